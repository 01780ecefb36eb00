package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of the link command's --ui flag.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.ToLower(strings.TrimSpace(value))); m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// wantsProgressUI reports whether the link command should render the
// interactive progress view for the given number of units. Quiet runs and
// JSON output never get one; in auto mode a single unit is not worth it.
func wantsProgressUI(lf linkFlags, units int) bool {
	if lf.quiet || lf.format == "json" {
		return false
	}
	switch lf.ui {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return units > 1 && isTerminal(os.Stdout)
	}
}
