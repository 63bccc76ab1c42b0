// Package app wires capture, pose detection, rep counting, storage and hook
// plugins into the running repcount service.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/monitoring"
	"github.com/ayusman/repcount/internal/plugin"
	"github.com/ayusman/repcount/internal/store"
)

// subscriberBuffer is the channel size handed to each Subscribe caller.
// Results are dropped for subscribers that fall this far behind.
const subscriberBuffer = 32

// Config holds configuration options for the application.
type Config struct {
	// Store persists sessions, events, hooks and settings. Optional.
	Store *store.Store
	// PluginDir is scanned for hook plugins.
	PluginDir string
	// Camera is the frame source for the capture loop. Without one, poses
	// can only arrive through Submit.
	Camera capture.Camera
	// NoMotionGate runs detection on every frame at the camera's own rate,
	// which suits recorded video.
	NoMotionGate bool
	// Detector overrides the MoveNet detector.
	Detector detector.Detector
	// Tuning supplies counter thresholds and pipeline rates.
	Tuning *config.TuningConfig
	// Clock drives the counter's timers. Defaults to the system clock.
	Clock counter.Clock
	// Exercise is the initial selection. When empty the stored setting is
	// used, falling back to auto.
	Exercise exercise.Kind
}

// Status is a snapshot of the application for the tray and API.
type Status struct {
	Enabled   bool             `json:"enabled"`
	Running   bool             `json:"running"`
	Exercise  exercise.Kind    `json:"exercise"`
	SessionID string           `json:"session_id,omitempty"`
	Counters  counter.Counters `json:"counters"`
}

// App is the main application that turns poses into counted reps.
type App struct {
	config     Config
	tuning     *config.TuningConfig
	engine     *counter.Engine
	camera     capture.Camera
	motion     *capture.MotionDetector
	gate       *capture.ActivityGate
	detector   detector.Detector
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// submitMu orders evaluations with session changes.
	submitMu sync.Mutex
	session  *store.Session

	subMu       sync.Mutex
	subscribers map[int]chan counter.FrameResult
	nextSub     int

	frameMu  sync.RWMutex
	frameJPG []byte
	frameSeq uint64

	hookCtx    context.Context
	hookCancel context.CancelFunc
	hookWG     sync.WaitGroup
}

// New creates an App, selects the initial exercise and opens a session.
func New(cfg Config) *App {
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.DefaultTuningConfig()
	}

	hookCtx, hookCancel := context.WithCancel(context.Background())
	a := &App{
		config:      cfg,
		tuning:      tuning,
		engine:      counter.NewEngine(tuning.CounterConfig(), cfg.Clock),
		camera:      cfg.Camera,
		motion:      capture.NewMotionDetector(tuning.GetMotionThreshold()),
		gate:        capture.NewActivityGate(tuning.GetMotionCooldown()),
		detector:    cfg.Detector,
		pluginMgr:   plugin.NewManager(cfg.PluginDir),
		pluginExec:  plugin.NewExecutor(plugin.DefaultTimeout),
		enabled:     true,
		subscribers: make(map[int]chan counter.FrameResult),
		hookCtx:     hookCtx,
		hookCancel:  hookCancel,
	}

	if a.detector == nil && a.camera != nil {
		if mn, err := detector.NewMoveNetDetector(detector.DefaultConfig()); err == nil {
			a.detector = mn
			monitoring.Logf("Using MoveNet pose detection")
		} else {
			monitoring.Logf("MoveNet not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	kind := a.initialExercise()
	if err := a.SelectExercise(kind); err != nil {
		monitoring.Logf("Failed to select %s (%v), using %s", kind, err, exercise.Auto)
		if err := a.SelectExercise(exercise.Auto); err != nil {
			monitoring.Logf("Failed to select %s: %v", exercise.Auto, err)
		}
	}

	return a
}

func (a *App) initialExercise() exercise.Kind {
	if a.config.Exercise != "" {
		return a.config.Exercise
	}
	if a.config.Store == nil {
		return exercise.Auto
	}
	saved, err := a.config.Store.Settings().Get(store.SettingExercise)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			monitoring.Logf("Failed to read exercise setting: %v", err)
		}
		return exercise.Auto
	}
	kind, err := exercise.ParseKind(saved)
	if err != nil {
		monitoring.Logf("Ignoring stored exercise %q: %v", saved, err)
		return exercise.Auto
	}
	return kind
}

// SetEnabled enables or disables frame processing in the capture loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether the capture loop is running.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Engine returns the counting engine.
func (a *App) Engine() *counter.Engine {
	return a.engine
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Camera returns the frame source, which may be nil.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Exercise returns the selected exercise.
func (a *App) Exercise() exercise.Kind {
	return a.engine.Kind()
}

// Status returns a snapshot of the application state.
func (a *App) Status() Status {
	return Status{
		Enabled:   a.IsEnabled(),
		Running:   a.IsRunning(),
		Exercise:  a.engine.Kind(),
		SessionID: a.SessionID(),
		Counters:  a.engine.Counters(),
	}
}

// SelectExercise ends the current session, switches the engine to kind and
// opens a new session. Selecting the current exercise also starts afresh.
func (a *App) SelectExercise(kind exercise.Kind) error {
	a.submitMu.Lock()
	defer a.submitMu.Unlock()
	return a.selectLocked(kind, a.engine.Clock().Now())
}

func (a *App) selectLocked(kind exercise.Kind, now time.Time) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", exercise.ErrUnknownKind, kind)
	}

	a.endSession(now)
	if err := a.engine.Select(kind); err != nil {
		return err
	}
	if s := a.config.Store; s != nil {
		if err := s.Settings().Set(store.SettingExercise, kind.Slug()); err != nil {
			monitoring.Logf("Failed to save exercise setting: %v", err)
		}
	}
	a.startSession(kind, now)
	monitoring.Logf("Selected exercise %s", kind)
	return nil
}

// Reset ends the current session and starts a new one for the same exercise.
func (a *App) Reset() {
	a.submitMu.Lock()
	defer a.submitMu.Unlock()

	now := a.engine.Clock().Now()
	a.endSession(now)
	a.engine.Reset()
	a.startSession(a.engine.Kind(), now)
}

// Submit evaluates a pose for the selected exercise at now, records any
// committed rep or finished hold, runs hooks and notifies subscribers.
func (a *App) Submit(pose *body.Pose, now time.Time) (counter.FrameResult, error) {
	return a.Evaluate(pose, "", now)
}

// Evaluate is Submit for an explicit exercise. A supported kind other than
// the selected one is selected first, which ends the current session. An
// empty kind means the selected exercise. Unsupported kinds return a result
// with StatusUnsupported and an error wrapping
// counter.ErrUnsupportedExercise, leaving the selection untouched.
func (a *App) Evaluate(pose *body.Pose, kind exercise.Kind, now time.Time) (counter.FrameResult, error) {
	a.submitMu.Lock()
	defer a.submitMu.Unlock()

	switch {
	case kind == "":
		kind = a.engine.Kind()
	case kind != a.engine.Kind() && kind.Valid():
		if err := a.selectLocked(kind, now); err != nil {
			return counter.FrameResult{}, err
		}
	}

	res, err := a.engine.Evaluate(pose, kind, now)
	if err != nil {
		return res, err
	}

	a.record(res)
	a.broadcast(res)
	return res, nil
}

// Now returns the current time on the engine's clock.
func (a *App) Now() time.Time {
	return a.engine.Clock().Now()
}

// SessionID returns the ID of the stored session in progress, or "" when
// nothing is being stored.
func (a *App) SessionID() string {
	a.submitMu.Lock()
	defer a.submitMu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

// Counters returns the running totals of the current session.
func (a *App) Counters() counter.Counters {
	return a.engine.Counters()
}

// Subscribe registers for every FrameResult produced by Submit. The returned
// function unsubscribes and closes the channel.
func (a *App) Subscribe() (<-chan counter.FrameResult, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextSub
	a.nextSub++
	ch := make(chan counter.FrameResult, subscriberBuffer)
	a.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			delete(a.subscribers, id)
			close(ch)
		})
	}
}

func (a *App) broadcast(res counter.FrameResult) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	for _, ch := range a.subscribers {
		select {
		case ch <- res:
		default:
		}
	}
}

// LatestFrame returns the most recent annotated JPEG from the capture loop
// and its sequence number. The sequence is zero until a frame exists.
func (a *App) LatestFrame() ([]byte, uint64) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.frameJPG, a.frameSeq
}

func (a *App) setLatestFrame(jpg []byte) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	a.frameJPG = jpg
	a.frameSeq++
}

// Start opens the camera and begins the capture loop. It is a no-op when
// already running and an error when no camera is configured.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.camera == nil {
		return errors.New("no camera configured")
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	if !a.config.NoMotionGate {
		a.camera.SetFPS(a.tuning.GetIdleFPS())
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	monitoring.Logf("Capture pipeline started")
	return nil
}

// Stop halts the capture loop and closes the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.camera.Close(); err != nil {
		monitoring.Logf("Error closing camera: %v", err)
	}
	a.motion.Reset()

	monitoring.Logf("Capture pipeline stopped")
}

// Close stops the pipeline, ends the session, waits for running hooks and
// releases the detector.
func (a *App) Close() error {
	a.Stop()

	a.submitMu.Lock()
	a.endSession(a.engine.Clock().Now())
	a.submitMu.Unlock()

	a.engine.Close()
	a.hookWG.Wait()
	a.hookCancel()
	a.motion.Close()

	if d := a.Detector(); d != nil {
		return d.Close()
	}
	return nil
}
