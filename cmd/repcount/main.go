package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/repcount/internal/app"
	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/server"
	"github.com/ayusman/repcount/internal/store"
	"github.com/ayusman/repcount/internal/tray"
)

var (
	addr         = flag.String("addr", ":8080", "Listen address")
	dbPath       = flag.String("db", "", "SQLite database path (default ~/.repcount/repcount.db)")
	configPath   = flag.String("config", "", "Tuning JSON file (defaults are built in)")
	cameraID     = flag.Int("camera", -1, "Camera device id; negative disables capture")
	videoPath    = flag.String("video", "", "Video file to analyse instead of a camera")
	pluginDir    = flag.String("plugins", "", "Plugin directory (default ~/.repcount/plugins)")
	exerciseName = flag.String("exercise", "", "Exercise to count at startup (label or slug)")
	withTray     = flag.Bool("tray", false, "Show a system tray menu")
	staticDir    = flag.String("static", "", "Directory of static web files")
)

func main() {
	flag.Parse()
	fmt.Println("Repcount - Exercise Repetition Counter")

	home, err := dataDir()
	if err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	path := *dbPath
	if path == "" {
		path = filepath.Join(home, "repcount.db")
	}
	st, err := store.New(path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	tuning := config.DefaultTuningConfig()
	if *configPath != "" {
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}

	var kind exercise.Kind
	if *exerciseName != "" {
		if kind, err = exercise.ParseKind(*exerciseName); err != nil {
			log.Fatalf("Invalid -exercise: %v", err)
		}
	}

	plugins := *pluginDir
	if plugins == "" {
		plugins = filepath.Join(home, "plugins")
	}

	cfg := app.Config{
		Store:     st,
		PluginDir: plugins,
		Tuning:    tuning,
		Exercise:  kind,
	}
	switch {
	case *videoPath != "":
		cfg.Camera = capture.NewVideoFile(*videoPath, false)
		cfg.NoMotionGate = true
	case *cameraID >= 0:
		cfg.Camera = capture.NewCamera(*cameraID)
	}

	application := app.New(cfg)
	defer application.Close()

	if err := application.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	if cfg.Camera != nil {
		if err := application.Start(); err != nil {
			log.Fatalf("Failed to start capture: %v", err)
		}
	}

	web := *staticDir
	if web == "" {
		web = findWebDir()
	}
	if web != "" {
		fmt.Printf("Serving static files from: %s\n", web)
	}

	srv := server.New(server.Config{
		StaticDir: web,
		App:       application,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Printf("Server failed: %v", err)
		}
		stop()
	}()

	if *withTray {
		runTray(ctx, stop, application)
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

// runTray blocks in the tray event loop until quit is chosen or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App) {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnSelect(func(kind exercise.Kind) {
		if err := a.SelectExercise(kind); err != nil {
			log.Printf("Failed to select %s: %v", kind, err)
			return
		}
		t.SetExercise(kind)
		t.SetLastRep("", 0)
	})
	t.OnSettings(func() { openBrowser(settingsURL(*addr)) })
	t.OnQuit(stop)

	results, cancel := a.Subscribe()
	defer cancel()
	go func() {
		for res := range results {
			if res.RepCommitted {
				t.SetLastRep(res.Label, res.RepCount)
			}
		}
	}()
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	t.SetExercise(a.Exercise())
	t.Run()
}

func settingsURL(listen string) string {
	host := listen
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/"
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		log.Printf("Unsupported platform: %s", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// dataDir returns ~/.repcount, creating it if needed.
func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(homeDir, ".repcount")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.repcount/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".repcount", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
