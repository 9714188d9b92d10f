// Package recipelist reads and edits recipe list files: JSON arrays of
// recipe names that batch commands accept instead of positional args.
package recipelist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/utils"
)

// Load reads a recipe list file. The file must contain a JSON array of
// strings; anything else is an error so a typo'd file never silently
// runs zero recipes.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe list %s: %w", path, err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("recipe list %s is not a JSON array of names: %w", path, err)
	}

	return utils.Dedupe(names), nil
}

// Save writes names to path as a sorted, indented JSON array.
func Save(path string, names []string) error {
	sorted := append([]string(nil), utils.Dedupe(names)...)
	sort.Strings(sorted)

	if err := utils.CreateFile(path, sorted, utils.FileTypeJSON, 0o644); err != nil {
		return fmt.Errorf("failed to write recipe list %s: %w", path, err)
	}
	return nil
}

// Add appends names to the list file, creating it when missing, and
// returns the updated list.
func Add(path string, names []string) ([]string, error) {
	current, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		current = nil
	}

	added := 0
	for _, name := range names {
		if utils.Includes(current, name) {
			logger.Info("%s is already in the list", name)
			continue
		}
		current = append(current, name)
		added++
	}

	if added == 0 {
		return current, nil
	}
	if err := Save(path, current); err != nil {
		return nil, err
	}
	logger.Success("Added %d recipe(s) to %s", added, path)
	return current, nil
}

// Remove drops names from the list file and returns the updated list.
// Names that are not present are reported, not failed on.
func Remove(path string, names []string) ([]string, error) {
	current, err := Load(path)
	if err != nil {
		return nil, err
	}

	removed := 0
	for _, name := range names {
		if !utils.Includes(current, name) {
			logger.Warn("%s is not in the list", name)
			continue
		}
		current = utils.Filter(current, func(n string) bool { return n != name })
		removed++
	}

	if removed == 0 {
		return current, nil
	}
	if err := Save(path, current); err != nil {
		return nil, err
	}
	logger.Success("Removed %d recipe(s) from %s", removed, path)
	return current, nil
}
