// Package detector runs body pose estimation on video frames.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/body"
)

// Detector defines the interface for body pose estimation implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected poses.
	// Returns an empty slice if nobody is in frame.
	Detect(frame *gocv.Mat) ([]body.Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// Model is the MoveNet variant served by the pose service
	// ("lightning" or "thunder").
	Model string

	// MinPoseScore drops whole poses whose overall score is below this value (0.0-1.0).
	MinPoseScore float64

	// IdleShutdownSecs stops the pose service after this many seconds without frames.
	IdleShutdownSecs int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:            "lightning",
		MinPoseScore:     0.2,
		IdleShutdownSecs: 30,
	}
}
