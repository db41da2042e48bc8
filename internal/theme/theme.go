// Package theme loads hotki's name->style overlays from disk (spec.md
// §8: "themes may be loaded from disk as name->style overlays; unknown
// theme selections fail with a validation error") and resolves the
// ActionThemeNext/Prev/Set actions against the loaded set.
//
// Grounded in noisetorch-NoiseTorch's config.go (github.com/BurntSushi/toml,
// toml.DecodeFile against a directory of on-disk files) and
// kastheco-klique's go.mod choice of the same library. A theme here is one
// TOML file per name rather than NoiseTorch's single struct-shaped file,
// since config.Style is already a flat name->value bag and a directory of
// interchangeable overlay files matches how themes are authored and
// swapped independently of the rest of the config.
package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cortesi/hotki/internal/config"
)

// LoadDir reads every *.toml file directly inside dir as one theme, named
// after the file's base name with the extension stripped. An empty or
// missing dir yields an empty, non-nil map rather than an error: themes
// are optional.
func LoadDir(dir string) (map[string]config.Style, error) {
	themes := make(map[string]config.Style)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return themes, nil
	}
	if err != nil {
		return nil, fmt.Errorf("theme: reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".toml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(dir, entry.Name())
		style, err := Load(path)
		if err != nil {
			return nil, err
		}
		themes[name] = style
	}
	return themes, nil
}

// Load decodes a single TOML file into a Style overlay.
func Load(path string) (config.Style, error) {
	style := make(config.Style)
	if _, err := toml.DecodeFile(path, &style); err != nil {
		return nil, fmt.Errorf("theme: decoding %s: %w", path, err)
	}
	return style, nil
}

// Names returns the loaded theme names in sorted order, the order
// ActionThemeNext/ActionThemePrev cycle through.
func Names(themes map[string]config.Style) []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up name in themes, failing with the same ValidationError
// shape config produces for other unresolvable references (spec.md §7:
// "unknown theme name").
func Resolve(themes map[string]config.Style, name string) (config.Style, error) {
	style, ok := themes[name]
	if !ok {
		return nil, config.ValidationError{Message: fmt.Sprintf("unknown theme %q", name)}
	}
	return style, nil
}

// Cycle returns the theme name one step away from current in the sorted
// name order, wrapping at either end. forward selects Next, !forward
// selects Prev. If current is not among names (including the zero value,
// the no-theme-selected state), Cycle starts from the first name when
// moving forward or the last when moving backward. Cycle returns "" if
// names is empty.
func Cycle(names []string, current string, forward bool) string {
	if len(names) == 0 {
		return ""
	}
	idx := -1
	for i, n := range names {
		if n == current {
			idx = i
			break
		}
	}
	if idx == -1 {
		if forward {
			return names[0]
		}
		return names[len(names)-1]
	}
	if forward {
		return names[(idx+1)%len(names)]
	}
	return names[(idx-1+len(names))%len(names)]
}
