package prefs

import (
	"fmt"
	"os"

	"github.com/palletworks/pallet/internal/utils/pathutils"

	"howett.net/plist"
)

// Prefs holds autopkg's own preferences, read from the plist autopkg
// itself consults (typically ~/Library/Preferences/com.github.autopkg.plist).
// Well-known keys get typed accessors; everything else stays reachable
// through Get. Path-typed values are tilde-expanded once at load.
type Prefs struct {
	values map[string]any
}

func Defaults() *Prefs {
	p := &Prefs{values: map[string]any{
		"CACHE_DIR": "~/Library/AutoPkg/Cache",
		"RECIPE_SEARCH_DIRS": []any{
			".",
			"~/Library/AutoPkg/Recipes",
			"/Library/AutoPkg/Recipes",
		},
		"RECIPE_OVERRIDE_DIRS": []any{"~/Library/AutoPkg/RecipeOverrides"},
		"RECIPE_REPO_DIR":      "~/Library/AutoPkg/RecipeRepos",
	}}
	p.normalize()
	return p
}

// Load overlays the plist at path onto the defaults. A missing file is
// an error wrapping os.ErrNotExist so callers can choose to fall back
// to Defaults.
func Load(path string) (*Prefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plist file not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read plist %s: %w", path, err)
	}

	var loaded map[string]any
	if _, err := plist.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("invalid plist file %s: %w", path, err)
	}

	p := Defaults()
	for k, v := range loaded {
		p.values[k] = v
	}
	p.normalize()
	return p, nil
}

// normalize forces string-or-list keys into lists and expands tildes,
// so accessors never branch on the shape the plist happened to use.
func (p *Prefs) normalize() {
	for _, key := range []string{"RECIPE_SEARCH_DIRS", "RECIPE_OVERRIDE_DIRS"} {
		if s, ok := p.values[key].(string); ok {
			p.values[key] = []any{s}
		}
		p.values[key] = expandList(p.values[key])
	}
	for _, key := range []string{"CACHE_DIR", "RECIPE_REPO_DIR", "MUNKI_REPO"} {
		if s, ok := p.values[key].(string); ok {
			p.values[key] = expand(s)
		}
	}
}

func expand(path string) string {
	abs, err := pathutils.ToAbsolutePath(path)
	if err != nil {
		return path
	}
	return abs
}

func expandList(v any) []string {
	var out []string
	switch list := v.(type) {
	case []string:
		for _, s := range list {
			out = append(out, expand(s))
		}
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, expand(s))
			}
		}
	}
	return out
}

func (p *Prefs) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Set overrides a preference in memory. The plist on disk is never
// written back.
func (p *Prefs) Set(key string, value any) {
	p.values[key] = value
	p.normalize()
}

func (p *Prefs) String(key string) (string, bool) {
	v, ok := p.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (p *Prefs) Bool(key string) (bool, bool) {
	v, ok := p.values[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func (p *Prefs) StringList(key string) ([]string, bool) {
	v, ok := p.values[key]
	if !ok {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		return []string{list}, true
	}
	return nil, false
}

func (p *Prefs) CacheDir() string {
	s, _ := p.String("CACHE_DIR")
	return s
}

func (p *Prefs) RecipeRepoDir() string {
	s, _ := p.String("RECIPE_REPO_DIR")
	return s
}

func (p *Prefs) MunkiRepo() (string, bool) {
	return p.String("MUNKI_REPO")
}

func (p *Prefs) RecipeSearchDirs() []string {
	l, _ := p.StringList("RECIPE_SEARCH_DIRS")
	return l
}

func (p *Prefs) RecipeOverrideDirs() []string {
	l, _ := p.StringList("RECIPE_OVERRIDE_DIRS")
	return l
}
