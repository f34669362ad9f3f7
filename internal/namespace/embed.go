package namespace

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed data/*.json
var embeddedData embed.FS

// hybridOpen tries disk first (an operator-supplied override in overrideDir),
// then falls back to the embedded default. Ported from the teacher's
// engine/hybridfs.go disk-first/embedded-fallback pattern, now serving
// namespace config instead of template files.
func hybridOpen(overrideDir, lang string) ([]byte, error) {
	name := lang + ".json"

	if overrideDir != "" {
		diskPath := filepath.Join(overrideDir, name)
		if b, err := os.ReadFile(diskPath); err == nil {
			return b, nil
		}
	}

	b, err := fs.ReadFile(embeddedData, "data/"+name)
	if err != nil {
		return nil, fmt.Errorf("no namespace data for language %q: %w", lang, err)
	}
	return b, nil
}

// LoadLanguage loads the namespace table for lang, preferring an override
// file in overrideDir (if non-empty and present) over the embedded default.
func LoadLanguage(overrideDir, lang string) (*Data, error) {
	b, err := hybridOpen(overrideDir, lang)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
