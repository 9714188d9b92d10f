package recipe

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"howett.net/plist"
)

// Format is the on-disk encoding of a recipe file, derived from its
// extension. AutoPkg accepts both, so both are handled here.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatPlist
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatPlist:
		return "plist"
	default:
		return "unknown"
	}
}

// DetectFormat maps a recipe file extension to its format.
func DetectFormat(path string) (Format, error) {
	switch filepath.Ext(path) {
	case ".yaml":
		return FormatYAML, nil
	case ".plist", ".recipe":
		return FormatPlist, nil
	}
	return FormatUnknown, fmt.Errorf("invalid recipe format: %s", filepath.Ext(path))
}

// Contents is the parsed body of a recipe file. Only the keys this
// tool reads are modeled; autopkg owns the full schema.
type Contents struct {
	Description    string           `yaml:"Description" plist:"Description"`
	Identifier     string           `yaml:"Identifier" plist:"Identifier"`
	Input          map[string]any   `yaml:"Input" plist:"Input"`
	MinimumVersion string           `yaml:"MinimumVersion" plist:"MinimumVersion"`
	ParentRecipe   string           `yaml:"ParentRecipe" plist:"ParentRecipe"`
	Process        []map[string]any `yaml:"Process" plist:"Process"`
}

// Recipe is one resolved recipe file plus the trust verdict of the
// current invocation.
type Recipe struct {
	path     string
	format   Format
	contents Contents
	trust    TrustState
}

// New reads and parses the recipe at path.
func New(path string) (*Recipe, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %s: %w", path, err)
	}

	var contents Contents
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &contents); err != nil {
			return nil, fmt.Errorf("invalid file contents in %s: %w", path, err)
		}
	default:
		if _, err := plist.Unmarshal(data, &contents); err != nil {
			return nil, fmt.Errorf("invalid file contents in %s: %w", path, err)
		}
	}

	return &Recipe{
		path:     path,
		format:   format,
		contents: contents,
	}, nil
}

// Name is the recipe's filename, extension included. It is what
// autopkg subcommands are given.
func (r *Recipe) Name() string { return filepath.Base(r.path) }

// Dir is the directory holding the recipe, passed as --override-dir.
func (r *Recipe) Dir() string { return filepath.Dir(r.path) }

func (r *Recipe) Path() string       { return r.path }
func (r *Recipe) Format() Format     { return r.format }
func (r *Recipe) Contents() Contents { return r.contents }
func (r *Recipe) Trust() TrustState  { return r.trust }

func (r *Recipe) Description() string    { return r.contents.Description }
func (r *Recipe) Identifier() string     { return r.contents.Identifier }
func (r *Recipe) Input() map[string]any  { return r.contents.Input }
func (r *Recipe) MinimumVersion() string { return r.contents.MinimumVersion }
func (r *Recipe) ParentRecipe() string   { return r.contents.ParentRecipe }

func (r *Recipe) Process() []map[string]any { return r.contents.Process }

// InputName returns the NAME input variable.
func (r *Recipe) InputName() (string, error) {
	if name, ok := r.contents.Input["NAME"].(string); ok && name != "" {
		return name, nil
	}
	return "", fmt.Errorf("failed to get recipe name from %s contents", r.path)
}
