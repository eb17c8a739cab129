package cli

import (
	"fmt"
	"os"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/compositor"
	"github.com/ds124wfegd/memeditor/internal/pkg/editor"
	"github.com/ds124wfegd/memeditor/internal/pkg/layout"
	"github.com/ds124wfegd/memeditor/internal/pkg/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	renderOutput      string
	renderMode        string
	renderText        string
	renderTop         string
	renderBottom      string
	renderFontColor   string
	renderStrokeColor string
	renderScale       float64
	renderFont        string
	renderFilter      string
	renderFontsDir    string
	renderJitter      float64
	renderSeed        uint64
	renderMaxBytes    int64
)

var renderCmd = &cobra.Command{
	Use:   "render <image>",
	Short: "Composite text onto an image and write a PNG",
	Long: `Loads an image, draws meme text on it and writes the result as PNG.

Free mode centres one text on the image. Banner mode fits the image inside
500x500 and wraps top and bottom captions with a slight random tilt per line.

Examples:
  memectl render cat.jpg --text "HELLO"
  memectl render cat.jpg --mode banner --top "ONE DOES NOT" --bottom "SIMPLY" -o out.png
  memectl render cat.jpg --mode banner --top "STABLE" --jitter 0`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	defaults := entity.DefaultTextStyle()

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "funky-meme.png", "output PNG path")
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", string(entity.ModeFree), "placement mode (free, banner)")
	renderCmd.Flags().StringVarP(&renderText, "text", "t", "", "text for free mode")
	renderCmd.Flags().StringVar(&renderTop, "top", "", "top caption for banner mode")
	renderCmd.Flags().StringVar(&renderBottom, "bottom", "", "bottom caption for banner mode")
	renderCmd.Flags().StringVar(&renderFontColor, "font-color", defaults.FontColor, "fill colour")
	renderCmd.Flags().StringVar(&renderStrokeColor, "stroke-color", defaults.StrokeColor, "outline colour")
	renderCmd.Flags().Float64Var(&renderScale, "scale", defaults.FontScale, "font scale, 50 is neutral (free mode)")
	renderCmd.Flags().StringVar(&renderFont, "font", defaults.FontFamily, "font family")
	renderCmd.Flags().StringVar(&renderFilter, "filter", defaults.Filter, `image filter, e.g. "grayscale(100%)"`)
	renderCmd.Flags().StringVar(&renderFontsDir, "fonts-dir", "", "directory with extra .ttf fonts")
	renderCmd.Flags().Float64Var(&renderJitter, "jitter", 0.05, "max line rotation in radians (banner mode)")
	renderCmd.Flags().Uint64Var(&renderSeed, "seed", 0, "jitter seed, 0 for random")
	renderCmd.Flags().Int64Var(&renderMaxBytes, "max-bytes", source.MaxUploadBytes, "largest accepted input file")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	mode := entity.Mode(renderMode)
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q", renderMode)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	img, format, err := source.Decode(f, renderMaxBytes)
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	logrus.WithFields(logrus.Fields{"format": format, "width": img.Bounds().Dx(), "height": img.Bounds().Dy()}).Debug("image decoded")

	fonts := compositor.NewFonts()
	if renderFontsDir != "" {
		if _, err := fonts.LoadDir(renderFontsDir); err != nil {
			return fmt.Errorf("load fonts: %w", err)
		}
	}

	sess := editor.New("memectl", compositor.New(fonts, compositor.DefaultConfig()),
		editor.WithMode(mode),
		editor.WithJitter(layout.NewJitter(renderSeed, renderJitter)),
	)
	if err := sess.CompleteLoad(sess.BeginLoad(), img); err != nil {
		return err
	}
	style := entity.TextStyle{
		FontColor:   renderFontColor,
		StrokeColor: renderStrokeColor,
		FontScale:   renderScale,
		FontFamily:  renderFont,
		Filter:      renderFilter,
	}
	if err := sess.SetStyle(style); err != nil {
		return err
	}
	if err := sess.SetTexts(entity.Texts{Text: renderText, Top: renderTop, Bottom: renderBottom}); err != nil {
		return err
	}

	artifact, err := sess.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(renderOutput, artifact.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", renderOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d)\n", renderOutput, artifact.Width, artifact.Height)
	return nil
}
