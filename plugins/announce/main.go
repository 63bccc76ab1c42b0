// Package main provides a plugin that speaks workout progress using the
// platform text-to-speech command.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
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
	Voice string `json:"voice"`
	// Every speaks only on multiples of this count.
	Every int `json:"every"`
}

var errSkip = errors.New("skipped")

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("failed to parse config: %v", err)})
			return
		}
	}

	text, err := phrase(req, cfg)
	if errors.Is(err, errSkip) {
		writeResponse(Response{Success: true})
		return
	}
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	if err := speak(text, cfg.Voice); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("speech failed: %v", err)})
		return
	}

	data, _ := json.Marshal(map[string]string{"spoken": text})
	writeResponse(Response{Success: true, Data: data})
}

// phrase builds the sentence to speak for req.
func phrase(req Request, cfg Config) (string, error) {
	switch req.Action {
	case "say_count":
		if cfg.Every > 1 && req.Count%cfg.Every != 0 {
			return "", errSkip
		}
		return strconv.Itoa(req.Count), nil
	case "say_summary":
		if req.Summary == "" {
			return "", fmt.Errorf("summary is required")
		}
		return req.Summary, nil
	}
	return "", fmt.Errorf("unknown action: %s", req.Action)
}

// speak runs the platform speech command.
func speak(text, voice string) error {
	name := "espeak"
	if runtime.GOOS == "darwin" {
		name = "say"
	}
	args := []string{text}
	if voice != "" {
		args = append([]string{"-v", voice}, args...)
	}
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
