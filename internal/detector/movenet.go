package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/monitoring"
)

const poseServiceScript = "movenet_service.py"

// MoveNetDetector implements Detector using a Python MoveNet subprocess.
//
// Frames are written to the service's stdin as a 4-byte big-endian length
// followed by JPEG bytes. The service answers each frame with one JSON line.
type MoveNetDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMoveNetDetector creates a new MoveNet detector.
// The Python process is started lazily on first detection.
func NewMoveNetDetector(config Config) (*MoveNetDetector, error) {
	script := findServiceScript()
	if script == "" {
		return nil, fmt.Errorf("%s not found", poseServiceScript)
	}
	if config.IdleShutdownSecs <= 0 {
		config.IdleShutdownSecs = DefaultConfig().IdleShutdownSecs
	}
	return &MoveNetDetector{
		config: config,
		script: script,
	}, nil
}

// Detect encodes the frame, sends it to the pose service and returns the poses
// it reports, in pixel coordinates of the frame.
func (d *MoveNetDetector) Detect(frame *gocv.Mat) ([]body.Pose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		return nil, err
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	poses, err := decodeResponse(line, d.config.MinPoseScore)
	if err != nil {
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return poses, nil
}

// Close shuts down the Python process.
func (d *MoveNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MoveNetDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script, "--model", d.config.Model)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}
	monitoring.Logf("Pose service started (model=%s, pid=%d)", d.config.Model, d.cmd.Process.Pid)

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MoveNetDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MoveNetDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	idle := time.Duration(d.config.IdleShutdownSecs) * time.Second
	d.idleTimer = time.AfterFunc(idle, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if time.Since(d.lastUsed) < idle {
			return
		}
		monitoring.Logf("Pose service idle for %s, stopping", idle)
		if err := d.shutdown(); err != nil {
			monitoring.Logf("Pose service exit: %v", err)
		}
	})
}

// writeFrame writes one length-prefixed frame.
func writeFrame(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// servicePose is the JSON structure emitted by the pose service.
type servicePose struct {
	Keypoints []serviceKeypoint `json:"keypoints"`
	Score     float64           `json:"score"`
}

type serviceKeypoint struct {
	Name  string   `json:"name"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Score *float64 `json:"score"`
}

// decodeResponse parses one service line. Keypoints carrying a name are placed
// at that joint's index; unnamed ones are taken in order.
func decodeResponse(line []byte, minPoseScore float64) ([]body.Pose, error) {
	var response struct {
		Poses []servicePose `json:"poses"`
		Error string        `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("pose service: %s", response.Error)
	}

	poses := make([]body.Pose, 0, len(response.Poses))
	for _, sp := range response.Poses {
		if sp.Score < minPoseScore {
			continue
		}
		poses = append(poses, sp.toPose())
	}
	return poses, nil
}

func (sp servicePose) toPose() body.Pose {
	pose := body.EmptyPose()
	pose.Score = sp.Score
	for i, kp := range sp.Keypoints {
		idx := i
		if kp.Name != "" {
			j, err := body.ParseJoint(kp.Name)
			if err != nil {
				continue
			}
			idx = int(j)
		}
		if idx >= body.NumJoints {
			continue
		}
		pose.Keypoints[idx] = body.Keypoint{X: kp.X, Y: kp.Y, Score: kp.Score}
	}
	return pose
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", poseServiceScript),
		filepath.Join("..", "scripts", poseServiceScript),
		filepath.Join(execDir, "scripts", poseServiceScript),
		filepath.Join(os.Getenv("HOME"), ".repcount", "scripts", poseServiceScript),
	}
	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".repcount/venv/bin/python"),
	}
	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
