// Command repreplay counts repetitions in a JSON-lines pose recording.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/poseio"
	"github.com/ayusman/repcount/internal/report"
	"github.com/ayusman/repcount/internal/store"
)

// replayStart anchors recording offsets so exported timestamps are stable.
var replayStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout)
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "repreplay failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("repreplay", flag.ContinueOnError)
	var (
		exerciseName = fs.String("exercise", "auto", "Exercise to count (label or slug)")
		configPath   = fs.String("config", "", "Tuning JSON file")
		asJSON       = fs.Bool("json", false, "Print every frame result as a JSON line")
		exportPath   = fs.String("export", "", "Write counted reps to a .csv or .parquet file")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: repreplay [--exercise squat] [--config tuning.json] [--json] [--export reps.csv] recording.jsonl|-\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	kind, err := exercise.ParseKind(*exerciseName)
	if err != nil {
		return err
	}

	tuning := config.DefaultTuningConfig()
	if *configPath != "" {
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			return err
		}
	}

	frames, err := readFrames(fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	clock := counter.NewManualClock(replayStart)
	engine := counter.NewEngine(tuning.CounterConfig(), clock)
	defer engine.Close()
	if err := engine.Select(kind); err != nil {
		return err
	}

	results, err := poseio.Replay(engine, clock, kind, frames)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		for _, res := range results {
			if err := enc.Encode(res); err != nil {
				return err
			}
		}
	}

	reps, holds := collect(results)
	if h, _ := engine.FinishHold(); h != nil {
		holds = append(holds, store.HoldEvent{Label: h.Label, Seconds: h.Seconds(), At: clock.Now()})
	}
	if *exportPath != "" {
		if err := export(*exportPath, reps); err != nil {
			return err
		}
	}

	printSummary(stdout, len(frames), engine.Counters(), reps, holds)
	return nil
}

func readFrames(path string, stdin io.Reader) ([]poseio.Frame, error) {
	if path == "-" {
		return poseio.ReadAll(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return poseio.ReadAll(f)
}

// collect turns committed reps and finished holds into events.
func collect(results []counter.FrameResult) ([]store.RepEvent, []store.HoldEvent) {
	var reps []store.RepEvent
	var holds []store.HoldEvent
	for _, res := range results {
		if res.RepCommitted {
			reps = append(reps, store.RepEvent{Count: res.RepCount, Label: res.Label, At: res.Time})
		}
		if res.HoldSummary != nil {
			holds = append(holds, store.HoldEvent{
				Label:   res.HoldSummary.Label,
				Seconds: res.HoldSummary.Seconds(),
				At:      res.Time,
			})
		}
	}
	return reps, holds
}

func export(path string, reps []store.RepEvent) error {
	format, err := report.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := format.Write(f, reps); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, frames int, c counter.Counters, reps []store.RepEvent, holds []store.HoldEvent) {
	fmt.Fprintf(w, "frames:        %d\n", frames)
	fmt.Fprintf(w, "exercise:      %s\n", c.Exercise)
	fmt.Fprintf(w, "reps:          %d\n", c.RepCount)
	if len(reps) > 1 {
		tempo := report.Tempo(report.RepTimes(reps))
		fmt.Fprintf(w, "reps/min:      %.1f\n", tempo.RepsPerMinute)
		fmt.Fprintf(w, "mean interval: %.2fs\n", tempo.MeanInterval)
	}
	if len(holds) > 0 {
		hs := report.Holds(holds)
		fmt.Fprintf(w, "holds:         %d (%.1fs total)\n", hs.Count, hs.TotalSeconds)
	}
	if c.Summary != "" {
		fmt.Fprintf(w, "summary:       %s\n", c.Summary)
	}
}
