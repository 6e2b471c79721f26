package ui

import (
	"testing"

	"github.com/pkendall/sluice/internal/render"
)

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("NoSuchTheme"); got.Name != "Dracula" {
		t.Errorf("fallback theme = %q", got.Name)
	}
	if got := GetTheme("Slate"); got.Name != "Slate" {
		t.Errorf("theme = %q", got.Name)
	}
}

func TestNextThemeCycles(t *testing.T) {
	first := themeOrder[0]
	name := first
	for range themeOrder {
		name = NextTheme(name)
	}
	if name != first {
		t.Errorf("cycle did not return to %q, got %q", first, name)
	}
	if NextTheme("NoSuchTheme") != first {
		t.Errorf("unknown theme should restart the cycle")
	}
}

func TestClassStyleDistinguishesClasses(t *testing.T) {
	// Compare foreground colors rather than rendered strings; rendering
	// collapses to plain text under a no-color profile.
	styles := draculaTheme().Styles()
	errColor := styles.ClassStyle(render.ClassError).GetForeground()
	plainColor := styles.ClassStyle(render.ClassPlain).GetForeground()
	if errColor == plainColor {
		t.Error("error and plain lines share a foreground color")
	}
	if styles.ClassStyle(render.ClassTraceback).GetForeground() != errColor {
		t.Error("traceback lines should use the error foreground")
	}
}

func TestStateStyleUnknownState(t *testing.T) {
	styles := draculaTheme().Styles()
	// Unknown states get the muted default rather than panicking or
	// rendering unstyled.
	_ = styles.StateStyle("MYSTERY").Render("MYSTERY")
}
