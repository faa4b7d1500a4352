// disktray-replay: runs a recorded detection stream through a local
// session and prints the guidance it produces. Each input line is one
// frame: {"ts": <unix ms>, "frame_id": N, "detections": [...]}.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/teslashibe/go-disktray/internal/config"
	"github.com/teslashibe/go-disktray/internal/log"
	"github.com/teslashibe/go-disktray/pkg/protocol"
	"github.com/teslashibe/go-disktray/pkg/session"
)

// recordedFrame is one line of a recording
type recordedFrame struct {
	TS int64 `json:"ts"` // Unix milliseconds; 0 means one interval after the previous frame
	protocol.FrameData
}

// frameClock reports the timestamp of the frame being replayed
type frameClock struct {
	now time.Time
}

func (c *frameClock) Now() time.Time { return c.now }

func main() {
	settings := config.FromEnv()
	input := flag.String("in", "-", "recording file, - for stdin")
	interval := flag.Duration("interval", 100*time.Millisecond, "frame spacing when ts is missing")
	quiet := flag.Bool("quiet", false, "only print frames that carry guidance")
	flag.StringVar(&settings.TaskFile, "task", settings.TaskFile, "YAML tuning file (default: built in)")
	flag.StringVar(&settings.DetectorLabelsFile, "detector-labels", settings.DetectorLabelsFile, "detector label order (default: canonical)")
	flag.StringVar(&settings.LogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	log.Init(settings.LogLevel)

	var r io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	if err := replay(r, os.Stdout, settings, *interval, *quiet); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func replay(r io.Reader, w io.Writer, settings config.Settings, interval time.Duration, quiet bool) error {
	cfg, _, err := settings.Session()
	if err != nil {
		return err
	}
	clock := &frameClock{now: time.Unix(0, 0)}
	cfg.Clock = clock
	cfg.Logger = log.L()

	sess, err := session.New("replay", cfg)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var frame recordedFrame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if frame.TS > 0 {
			clock.now = time.UnixMilli(frame.TS)
		} else {
			clock.now = clock.now.Add(interval)
		}

		records, err := frame.Records()
		if err != nil {
			fmt.Fprintf(w, "%5d  rejected: %v\n", line, err)
			continue
		}
		res, err := sess.Process(records)
		if err != nil {
			fmt.Fprintf(w, "%5d  rejected: %v\n", line, err)
			continue
		}
		if quiet && res.Instruction.IsEmpty() && res.Control.IsZero() {
			continue
		}
		fmt.Fprintln(w, describe(line, frame.FrameID, res))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read recording: %w", err)
	}

	snap := sess.Snapshot()
	fmt.Fprintf(w, "final state %s after %d frames (%d rejected)\n", snap.State, snap.Frames, snap.Errors)
	return nil
}

func describe(line int, frameID uint64, res session.Result) string {
	out := fmt.Sprintf("%5d  frame=%d  %s", line, frameID, res.State)
	if res.Transitioned() {
		out = fmt.Sprintf("%5d  frame=%d  %s -> %s", line, frameID, res.Previous, res.State)
	}
	if res.Instruction.Speech != "" {
		out += fmt.Sprintf("  %q", res.Instruction.Speech)
	}
	if res.Instruction.Image != "" {
		out += "  image=" + res.Instruction.Image
	}
	if res.Instruction.Video != "" {
		out += "  video=" + res.Instruction.Video
	}
	if res.Control.Flashlight != nil {
		out += fmt.Sprintf("  flashlight=%v", *res.Control.Flashlight)
	}
	return out
}
