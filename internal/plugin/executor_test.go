package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    actions,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "ok", `echo '{"success":true,"data":{"message":"hello"}}'
`, "say")

	response, err := NewExecutor(5*time.Second).Execute(plugin, &Request{Action: "say", Event: "rep"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	request := &Request{
		Action:   "announce",
		Event:    "rep",
		Exercise: "Squat",
		Count:    7,
		Summary:  "You have done Squat 7 times",
		Config:   json.RawMessage(`{"voice":"en"}`),
	}

	response, err := NewExecutor(5 * time.Second).Execute(plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Action != "announce" || got.Event != "rep" || got.Exercise != "Squat" || got.Count != 7 {
		t.Errorf("unexpected request received: %+v", got)
	}
	if got.Summary != "You have done Squat 7 times" {
		t.Errorf("summary = %q", got.Summary)
	}
	if string(got.Config) != `{"voice":"en"}` {
		t.Errorf("config = %s", got.Config)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `sleep 10
echo '{"success":true}'
`)

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(plugin, &Request{Action: "slow"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not stop the plugin promptly")
	}
}

func TestExecutor_ExecuteContext_Cancelled(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `sleep 10
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor(5*time.Second).ExecuteContext(ctx, plugin, &Request{Action: "x"})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "fail", `echo '{"success":false,"error":"something went wrong"}'
`)

	response, err := NewExecutor(5*time.Second).Execute(plugin, &Request{Action: "x"})
	if err != nil {
		t.Fatalf("Execute() should not fail on an error response: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Error != "something went wrong" {
		t.Errorf("error = %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := scriptPlugin(t, "garbage", `echo 'not json'
`)

	_, err := NewExecutor(5*time.Second).Execute(plugin, &Request{Action: "x"})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse plugin response") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := scriptPlugin(t, "crash", `echo 'boom' >&2
exit 3
`)

	_, err := NewExecutor(5*time.Second).Execute(plugin, &Request{Action: "x"})
	if err == nil {
		t.Fatal("expected execution error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}

func TestExecutor_Execute_UnsupportedAction(t *testing.T) {
	plugin := scriptPlugin(t, "picky", `echo '{"success":true}'
`, "say")

	_, err := NewExecutor(5*time.Second).Execute(plugin, &Request{Action: "dance"})
	if err == nil {
		t.Fatal("expected unsupported action error")
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(2 * time.Second).Timeout(); got != 2*time.Second {
		t.Errorf("Timeout() = %v, want 2s", got)
	}
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want default %v", got, DefaultTimeout)
	}
}

func TestManifest_SupportsAction(t *testing.T) {
	open := Manifest{}
	if !open.SupportsAction("anything") {
		t.Error("manifest without actions should accept any action")
	}
	m := Manifest{Actions: []string{"say", "beep"}}
	if !m.SupportsAction("beep") || m.SupportsAction("dance") {
		t.Errorf("SupportsAction mismatch for %v", m.Actions)
	}
}
