package errs

import "fmt"

type Code string

const (
	AllWithNamedRecipes  Code = "ALL_WITH_NAMED_RECIPES"
	ProvideRecipesOrAll  Code = "PROVIDE_RECIPES_OR_ALL"
	NoRecipesGiven       Code = "NO_RECIPES_GIVEN"
	ClearAllRequiresYes  Code = "CLEAR_ALL_REQUIRES_YES"
	ListFileWithBadShape Code = "LIST_FILE_WITH_BAD_SHAPE"
)

var messages = map[Code]string{
	AllWithNamedRecipes: `Invalid flag combination: cannot use --all with named recipes

Usage:
  - %[1]s every recipe known to the metadata cache:
      pallet %[2]s --all
  - %[1]s only specific recipes:
      pallet %[2]s Firefox.download.recipe GoogleChrome.pkg.recipe

Reason:
  --all targets everything, named args target a subset.`,

	ProvideRecipesOrAll: `Missing targets: provide recipe names or use --all

Examples:
  pallet %[2]s Firefox.download.recipe   # %[1]s a specific recipe
  pallet %[2]s --all                     # %[1]s every recipe in the metadata cache`,

	NoRecipesGiven: `No recipes to process

Provide recipes one of these ways:
  pallet %[1]s Firefox.download.recipe GoogleChrome.pkg.recipe
  pallet %[1]s --recipe-list recipes.json
  RECIPE=Firefox.download.recipe pallet %[1]s

All three sources are merged and deduplicated when combined.`,

	ClearAllRequiresYes: `--all requires --yes

Usage:
  - Drop a single recipe from the metadata cache:
      pallet cache clear Firefox.download.recipe
  - Drop every entry (destructive):
      pallet cache clear --all --yes

Reason:
  Clearing the whole cache forces every next run to re-download.
  --yes is required to acknowledge this.`,

	ListFileWithBadShape: `Invalid recipe list file: %[1]s

The file must contain a JSON array of recipe names:
  ["Firefox.download.recipe", "GoogleChrome.pkg.recipe"]`,
}

func Msg(code Code, a ...any) string {
	msg := messages[code]
	if msg == "" {
		msg = string(code)
	}
	return fmt.Sprintf(msg, a...)
}

// CommandError reports a subprocess that could not be started or that
// exited non-zero while the caller asked for exit codes to be checked.
type CommandError struct {
	Cmd      string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command failed: %s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, e.Cmd)
}

func (e *CommandError) Unwrap() error { return e.Err }

// CorruptCacheError reports a metadata cache file that exists but does
// not hold a valid JSON document. The file is left untouched so the
// operator can inspect or delete it.
type CorruptCacheError struct {
	Path string
	Err  error
}

func (e *CorruptCacheError) Error() string {
	return fmt.Sprintf("metadata cache %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptCacheError) Unwrap() error { return e.Err }
