// Package tray provides a system tray menu for the repcount service.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/repcount/internal/exercise"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSelect   func(kind exercise.Kind)
	onSettings func()
	onQuit     func()
	enabled    bool
	exercise   exercise.Kind
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuLastRep  *systray.MenuItem
	menuExercise *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSelect sets the callback called when an exercise is picked from the menu.
func (t *Tray) OnSelect(fn func(kind exercise.Kind)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSelect = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Repcount")
	systray.SetTooltip("Repcount exercise counter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle pose detection")
	systray.AddSeparator()

	t.menuLastRep = systray.AddMenuItem("Last: none", "Last counted repetition")
	t.menuLastRep.Disable()
	t.menuExercise = systray.AddMenuItem(exerciseTitle(t.exercise), "Select the exercise to count")
	t.mu.Unlock()

	for _, kind := range exercise.Kinds() {
		item := t.menuExercise.AddSubMenuItem(string(kind), "Count "+string(kind))
		go t.watchSelect(item, kind)
	}
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Repcount")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) watchSelect(item *systray.MenuItem, kind exercise.Kind) {
	for range item.ClickedCh {
		t.mu.RLock()
		callback := t.onSelect
		t.mu.RUnlock()

		if callback != nil {
			callback(kind)
		}
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// LastRepTitle formats the last-rep menu entry.
func LastRepTitle(label string, count int) string {
	if label == "" {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s ×%d", label, count)
}

// SetLastRep updates the last repetition display in the menu.
func (t *Tray) SetLastRep(label string, count int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastRep != nil {
		t.menuLastRep.SetTitle(LastRepTitle(label, count))
	}
}

func exerciseTitle(kind exercise.Kind) string {
	if kind == "" {
		return "Exercise"
	}
	return "Exercise: " + string(kind)
}

// SetExercise shows the selected exercise on the submenu title.
func (t *Tray) SetExercise(kind exercise.Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.exercise = kind
	if t.menuExercise != nil {
		t.menuExercise.SetTitle(exerciseTitle(kind))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// SetEnabled sets the enabled state without invoking the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}
