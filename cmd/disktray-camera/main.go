// disktray-camera: runs the disk tray detector on a local camera and
// streams detections to a guidance server, printing what the user would
// be told.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-disktray/internal/config"
	"github.com/teslashibe/go-disktray/internal/log"
	"github.com/teslashibe/go-disktray/pkg/client"
	"github.com/teslashibe/go-disktray/pkg/detection/yolo"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
		os.Exit(1)
	}

	yoloCfg := yolo.DefaultConfig()
	server := flag.String("server", config.String("DISKTRAY_SERVER_URL", "ws://localhost:8088/ws/session"), "guidance server WebSocket URL")
	device := flag.Int("device", config.Int("DISKTRAY_CAMERA", 0), "camera device index")
	fps := flag.Float64("fps", 5, "frames per second sent to the server")
	conf := flag.Float64("conf", float64(yoloCfg.ConfidenceThresh), "detector confidence threshold")
	nms := flag.Float64("nms", float64(yoloCfg.NMSThresh), "detector NMS threshold")
	level := flag.String("log-level", config.String(config.EnvLogLevel, config.DefaultLogLevel), "log level")
	flag.StringVar(&yoloCfg.ModelPath, "model", config.String("DISKTRAY_MODEL", yoloCfg.ModelPath), "ONNX model path")
	flag.Parse()

	log.Init(*level)
	logger := log.L()

	yoloCfg.ConfidenceThresh = float32(*conf)
	yoloCfg.NMSThresh = float32(*nms)
	yoloCfg.Logger = logger
	detector, err := yolo.New(yoloCfg)
	if err != nil {
		logger.Error("load detector", "error", err)
		os.Exit(1)
	}
	defer detector.Close()

	cam, err := gocv.OpenVideoCapture(*device)
	if err != nil {
		logger.Error("open camera", "device", *device, "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	c, err := client.Dial(dialCtx, *server)
	cancel()
	if err != nil {
		logger.Error("connect", "server", *server, "error", err)
		os.Exit(1)
	}
	defer c.Close()
	logger.Info("connected", "session", c.SessionID())

	if err := run(ctx, cam, detector, c, *fps); err != nil && ctx.Err() == nil {
		logger.Error("stream stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cam *gocv.VideoCapture, detector *yolo.Detector, c *client.Client, fps float64) error {
	frames := make(chan client.Frame)
	go capture(ctx, cam, detector, fps, frames)

	return c.Stream(ctx, frames, printGuidance, func(f client.Frame, err error) {
		log.Warn("frame rejected", "frame", f.ID, "error", err)
	})
}

// capture reads the camera at fps and sends each frame's detections until
// ctx is done
func capture(ctx context.Context, cam *gocv.VideoCapture, detector *yolo.Detector, fps float64, frames chan<- client.Frame) {
	defer close(frames)

	if fps <= 0 {
		fps = 5
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	img := gocv.NewMat()
	defer img.Close()

	var frameID uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if ok := cam.Read(&img); !ok || img.Empty() {
			log.Warn("camera returned no frame")
			continue
		}
		records, err := detector.DetectMat(img)
		if err != nil {
			log.Warn("detect", "error", err)
			continue
		}

		frameID++
		select {
		case frames <- client.Frame{ID: frameID, Records: records}:
		case <-ctx.Done():
			return
		}
	}
}

func printGuidance(g client.Guidance) {
	if g.Control.Flashlight != nil {
		fmt.Printf("🔦 flashlight %v\n", onOff(*g.Control.Flashlight))
	}
	if g.Instruction.IsEmpty() {
		return
	}
	fmt.Printf("🗣  [%s] %s\n", g.State, g.Instruction.Speech)
	if g.Instruction.Image != "" {
		fmt.Printf("   image: %s\n", g.Instruction.Image)
	}
	if g.Instruction.Video != "" {
		fmt.Printf("   video: %s\n", g.Instruction.Video)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
