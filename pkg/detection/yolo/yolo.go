// Package yolo runs the disk tray object detector through OpenCV. It is
// kept apart from package detection so only the camera side links cgo.
package yolo

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-disktray/pkg/detection"
)

var (
	// ErrEmptyImage is returned when a frame decodes to nothing.
	ErrEmptyImage = errors.New("yolo: empty image")

	// ErrOutput is returned when the network output cannot be decoded.
	ErrOutput = errors.New("yolo: unreadable network output")
)

// Detector runs a YOLOv8-style ONNX model trained on the task's object
// classes. It emits raw Records in pixel coordinates with the model's own
// class indices; map them with a detection.LabelMap before use.
type Detector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
}

// Config holds YOLO detector configuration
type Config struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
	Logger           *slog.Logger
}

// DefaultConfig returns production defaults for the disk tray model
func DefaultConfig() Config {
	return Config{
		ModelPath:        "model/disktray.onnx",
		ConfidenceThresh: 0.7,
		NMSThresh:        0.3,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// New loads the ONNX model
func New(cfg Config) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds task objects in a JPEG frame
func (d *Detector) Detect(jpeg []byte) ([]detection.Record, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	return d.DetectMat(img)
}

// DetectMat finds task objects in an already decoded frame
func (d *Detector) DetectMat(img gocv.Mat) ([]detection.Record, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	imgW := float32(img.Cols())
	imgH := float32(img.Rows())

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	records, err := d.parseOutput(output, imgW, imgH)
	if err != nil {
		return nil, err
	}
	d.config.Logger.Debug("yolo detections", "count", len(records))
	return records, nil
}

// parseOutput decodes a [1, 4+classes, anchors] YOLOv8 tensor
func (d *Detector) parseOutput(output gocv.Mat, imgW, imgH float32) ([]detection.Record, error) {
	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	// Rows/cols are swapped relative to the per-anchor layout
	rows := output.Cols()
	cols := output.Rows()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if len(data) < rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrOutput, len(data), cols, rows)
	}

	scaleX := imgW / float32(d.config.InputWidth)
	scaleY := imgH / float32(d.config.InputHeight)

	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < cols; c++ {
			score := data[c*rows+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}
		if maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		boxes = append(boxes, image.Rect(
			int((cx-w/2)*scaleX),
			int((cy-h/2)*scaleY),
			int((cx+w/2)*scaleX),
			int((cy+h/2)*scaleY),
		))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	records := make([]detection.Record, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		records = append(records, detection.Record{
			X1:         float64(box.Min.X),
			Y1:         float64(box.Min.Y),
			X2:         float64(box.Max.X),
			Y2:         float64(box.Max.Y),
			Confidence: clampUnit(float64(confidences[idx])),
			Label:      classIDs[idx],
		})
	}
	return records, nil
}

// Close releases the detector resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// clampUnit keeps sigmoid rounding from producing 1.0000001
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
