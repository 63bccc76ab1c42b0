// Package main provides a plugin that shows desktop notifications for
// workout events.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Event    string          `json:"event"`
	Exercise string          `json:"exercise"`
	Count    int             `json:"count"`
	Summary  string          `json:"summary"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config holds per-hook settings.
type Config struct {
	Title string `json:"title"`
	Sound bool   `json:"sound"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	if req.Action != "notify" {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("failed to parse config: %v", err)})
			return
		}
	}

	title, body := message(req, cfg)
	if err := show(title, body, cfg.Sound); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("notification failed: %v", err)})
		return
	}
	writeResponse(Response{Success: true})
}

// message returns the notification title and body for req.
func message(req Request, cfg Config) (string, string) {
	title := cfg.Title
	if title == "" {
		title = "repcount"
	}

	body := req.Summary
	if body == "" {
		switch req.Event {
		case "rep":
			body = fmt.Sprintf("%s: %d", req.Exercise, req.Count)
		case "session_end":
			body = fmt.Sprintf("%s session finished with %d reps", req.Exercise, req.Count)
		default:
			body = req.Exercise
		}
	}
	return title, body
}

func show(title, body string, sound bool) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %s with title %s`, quote(body), quote(title))
		if sound {
			script += ` sound name "Glass"`
		}
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", title, body)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
