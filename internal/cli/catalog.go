package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/source"
	"github.com/spf13/cobra"
)

var (
	catalogURL     string
	catalogRandom  bool
	catalogJSON    bool
	catalogTimeout time.Duration
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the remote meme catalog or pick a random entry",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().StringVar(&catalogURL, "url", "https://api.imgflip.com/get_memes", "catalog endpoint")
	catalogCmd.Flags().BoolVarP(&catalogRandom, "random", "r", false, "print one random entry")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print JSON")
	catalogCmd.Flags().DurationVar(&catalogTimeout, "timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	client := source.NewCatalogClient(catalogURL, &http.Client{Timeout: catalogTimeout})

	var memes []entity.CatalogMeme
	if catalogRandom {
		meme, err := client.Random(cmd.Context())
		if err != nil {
			return err
		}
		memes = []entity.CatalogMeme{meme}
	} else {
		var err error
		if memes, err = client.Fetch(cmd.Context()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if catalogJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(memes)
	}
	for _, m := range memes {
		fmt.Fprintf(out, "%s\t%s\t%dx%d\t%s\n", m.ID, m.Name, m.Width, m.Height, m.URL)
	}
	return nil
}
