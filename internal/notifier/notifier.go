// Package notifier renders the new-version banner from the state the
// checker persisted. It never touches the network itself.
package notifier

import (
	"fmt"
	"strings"

	"github.com/palletworks/pallet/internal/checker"
	"github.com/palletworks/pallet/internal/config"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/printer"
	"github.com/palletworks/pallet/internal/utils"
)

const (
	borderColor = "\033[38;5;39m"
	resetColor  = "\033[0m"
	padding     = 2
)

// DisplayUpdateNotification shows the banner when the persisted state
// says a newer release exists. Missing or unreadable state means no
// banner; this runs after every command and must never get in the way.
func DisplayUpdateNotification() {
	path, err := utils.UpdateStatePath()
	if err != nil {
		logger.Debug("failed to locate update state: %v", err)
		return
	}

	if ok, _ := utils.FileExists(path); !ok {
		return
	}

	var state config.UpdateState
	if err := utils.FileReader(path, utils.FileTypeJSON, &state); err != nil {
		logger.Debug("failed to load update state: %v", err)
		return
	}

	if !state.UpdateAvailable {
		return
	}

	DisplayVersionUpdate(state.LatestVersion)
}

// DisplayVersionUpdate shows a boxed notification for a new version.
func DisplayVersionUpdate(version string) {
	p := printer.NewColorPrinter()

	title := p.Success("New Version Available!")
	detected := p.Info("New version detected:")
	current := p.Error(checker.Version)
	latest := p.Success(version)
	hint := p.Warning("Get it at ") + p.Accent("https://github.com/palletworks/pallet/releases/latest")

	lines := []string{
		title,
		fmt.Sprintf("%s %s -> %s", detected, current, latest),
		hint,
	}

	maxWidth := utils.GetMaxWidth(lines) + padding*2
	topBottomBorder := borderColor + "╭" + strings.Repeat("─", maxWidth) + "╮" + resetColor
	sideBorder := borderColor + "│" + resetColor

	fmt.Println(topBottomBorder)
	for _, line := range lines {
		paddingLeft := (maxWidth - len(utils.StripANSI(line))) / 2
		paddingRight := maxWidth - len(utils.StripANSI(line)) - paddingLeft
		fmt.Printf("%s%s%s%s%s\n", sideBorder, strings.Repeat(" ", paddingLeft), line, strings.Repeat(" ", paddingRight), sideBorder)
	}
	fmt.Println(borderColor + "╰" + strings.Repeat("─", maxWidth) + "╯" + resetColor)
}
