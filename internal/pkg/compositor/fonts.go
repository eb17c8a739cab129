package compositor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts maps font family names to parsed TrueType fonts. Lookups are
// case-insensitive and unknown families fall back to the default family.
type Fonts struct {
	mu       sync.RWMutex
	families map[string]*truetype.Font
	fallback *truetype.Font
}

// NewFonts returns a registry preloaded with the Go fonts under the family
// names the editor offers.
func NewFonts() *Fonts {
	f := &Fonts{families: make(map[string]*truetype.Font)}

	bundled := []struct {
		data     []byte
		families []string
	}{
		{gobold.TTF, []string{"impact", "go bold", "anton"}},
		{goregular.TTF, []string{"go", "arial", "helvetica", "sans-serif", "comic sans ms", "times new roman", "serif"}},
		{gomono.TTF, []string{"go mono", "courier new", "monospace"}},
	}
	for _, b := range bundled {
		parsed, err := truetype.Parse(b.data)
		if err != nil {
			// bundled fonts are known-good
			panic(fmt.Sprintf("parse bundled font: %v", err))
		}
		for _, name := range b.families {
			f.families[name] = parsed
		}
	}
	f.fallback = f.families["impact"]
	return f
}

// Register parses a TrueType font and binds it to family.
func (f *Fonts) Register(family string, data []byte) error {
	parsed, err := truetype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %q: %w", family, err)
	}
	f.mu.Lock()
	f.families[normalizeFamily(family)] = parsed
	f.mu.Unlock()
	return nil
}

// LoadDir registers every .ttf file in dir under its base name, so
// impact.ttf overrides the bundled stand-in for "Impact".
func (f *Fonts) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".ttf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, err
		}
		family := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if err := f.Register(family, data); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// Has reports whether family resolves without falling back.
func (f *Fonts) Has(family string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.families[normalizeFamily(family)]
	return ok
}

// Face builds a new face for family at size pixels. Faces keep glyph caches
// and are not safe for concurrent use, so callers get their own.
func (f *Fonts) Face(family string, size float64) font.Face {
	f.mu.RLock()
	parsed, ok := f.families[normalizeFamily(family)]
	if !ok {
		parsed = f.fallback
	}
	f.mu.RUnlock()

	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func normalizeFamily(family string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(family), `"'`))
}

// faceMeasurer adapts a font face to layout.Measurer.
type faceMeasurer struct {
	face font.Face
}

func (m faceMeasurer) MeasureString(s string) float64 {
	return float64(font.MeasureString(m.face, s)) / 64
}
