package app

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/monitoring"
)

// runPipeline is the capture loop. It reads frames at the idle rate until
// motion is seen, then switches to the active rate and runs pose detection
// on every frame until the motion cooldown lapses. With NoMotionGate set,
// every frame is processed at the camera's own rate.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	gated := !a.config.NoMotionGate
	fps := a.camera.FPS()
	if gated {
		fps = a.tuning.GetIdleFPS()
	}
	ticker := time.NewTicker(frameInterval(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		frame, err := a.camera.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			monitoring.Logf("Video source finished")
			return
		}
		if err != nil {
			monitoring.Logf("Error reading frame: %v", err)
			continue
		}

		now := a.engine.Clock().Now()
		if gated {
			motion, _ := a.motion.Detect(frame)
			active, changed := a.gate.Observe(motion, now)
			if changed {
				fps = a.tuning.GetIdleFPS()
				mode := "idle"
				if active {
					fps = a.tuning.GetActiveFPS()
					mode = "active"
				}
				a.camera.SetFPS(fps)
				ticker.Reset(frameInterval(fps))
				monitoring.Logf("Switched to %s mode (%d fps)", mode, fps)
			}
			if !active {
				a.publishFrame(frame)
				frame.Close()
				continue
			}
		}

		a.processFrame(frame, now)
		frame.Close()
	}
}

// processFrame runs detection on frame, submits the best pose and publishes
// the annotated frame. A frame with nobody in it is submitted as an empty
// pose so in-progress reps are dropped.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) {
	det := a.Detector()
	if det == nil {
		a.publishFrame(frame)
		return
	}

	poses, err := det.Detect(frame)
	if err != nil {
		monitoring.Logf("Error detecting pose: %v", err)
		a.publishFrame(frame)
		return
	}

	pose := bestPose(poses)
	res, err := a.Submit(&pose, now)
	if err != nil {
		monitoring.Logf("Error evaluating pose: %v", err)
	}

	drawSkeleton(frame, &pose, overlayMinScore)
	drawStatus(frame, res)
	a.publishFrame(frame)
}

// publishFrame encodes frame as the latest JPEG for the stream endpoint.
func (a *App) publishFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		monitoring.Logf("Error encoding frame: %v", err)
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	a.setLatestFrame(data)
}

// bestPose returns the highest scoring pose, or an empty pose when none
// were detected.
func bestPose(poses []body.Pose) body.Pose {
	if len(poses) == 0 {
		return body.EmptyPose()
	}
	best := poses[0]
	for _, p := range poses[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
