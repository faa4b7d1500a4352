package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-disktray/pkg/detection"
	"github.com/teslashibe/go-disktray/pkg/guidance"
	"github.com/teslashibe/go-disktray/pkg/protocol"
	"github.com/teslashibe/go-disktray/pkg/session"
)

var labels = detection.DefaultLabels()

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(session.Config{
		Labels:   detection.IdentityMap(labels),
		Guidance: guidance.DefaultConfig(),
		Logger:   logger,
	})
	return NewServer(":0", mgr, logger)
}

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	resp, body := do(t, s, http.MethodPost, "/api/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: got %d, want 201 (%s)", resp.StatusCode, body)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.ID == "" || snap.State != guidance.StateStart {
		t.Fatalf("snapshot: got %+v", snap)
	}
	return snap.ID
}

func frameBody(t *testing.T, id uint64, records ...detection.Record) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(protocol.NewFrameData(id, records)); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return buf.String()
}

func postFrame(t *testing.T, s *Server, id string, frameID uint64, records ...detection.Record) FrameResponse {
	t.Helper()
	resp, body := do(t, s, http.MethodPost, "/api/sessions/"+id+"/frames", frameBody(t, frameID, records...))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("frame %d: got %d (%s)", frameID, resp.StatusCode, body)
	}
	var out FrameResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode frame response: %v", err)
	}
	return out
}

func rec(name string, x1, y1, x2, y2, conf float64) detection.Record {
	return detection.Record{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: conf, Label: labels.MustIndex(name)}
}

func TestServer_Status(t *testing.T) {
	s := newTestServer(t)
	createSession(t, s)

	resp, body := do(t, s, http.MethodGet, "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(status.Labels) != 8 || status.Sessions != 1 {
		t.Errorf("status: got %+v", status)
	}
}

func TestServer_Kickoff(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	out := postFrame(t, s, id, 1)
	if out.Instruction.Speech != "Put the tray on the table." {
		t.Errorf("speech: got %q", out.Instruction.Speech)
	}
	if out.Instruction.State != "nothing" || out.Instruction.Status != "success" || out.Instruction.FrameID != 1 {
		t.Errorf("instruction: got %+v", out.Instruction)
	}
	if out.Control != nil {
		t.Errorf("control: got %+v, want none", out.Control)
	}
}

func TestServer_ProcedureToCap(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	flat := rec("tray", 10, 10, 200, 100, 0.95)
	upright := rec("tray", 0, 0, 100, 200, 0.95)
	lever := rec("lever", 5, 190, 30, 300, 0.9)

	var frames [][]detection.Record
	frames = append(frames, nil)
	for i := 0; i < 3; i++ {
		frames = append(frames, []detection.Record{flat})
	}
	for i := 0; i < 3; i++ {
		frames = append(frames, []detection.Record{lever})
	}
	frames = append(frames, []detection.Record{upright, lever})
	for i := 0; i < 10; i++ {
		frames = append(frames, []detection.Record{flat})
	}

	var last FrameResponse
	for i, f := range frames {
		last = postFrame(t, s, id, uint64(i+1), f...)
	}
	if last.Instruction.State != "cap" {
		t.Fatalf("state: got %s, want cap", last.Instruction.State)
	}

	out := postFrame(t, s, id, 100, rec("arc", 0, 0, 50, 20, 0.8), rec("pin", 10, 10, 15, 30, 0.8))
	if out.Instruction.State != "assembled" {
		t.Errorf("state: got %s, want assembled", out.Instruction.State)
	}
	if out.Control == nil || out.Control.Flashlight == nil || !*out.Control.Flashlight {
		t.Errorf("control: got %+v, want flashlight on", out.Control)
	}
}

func TestServer_FrameErrors(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	tests := []struct {
		name   string
		path   string
		body   string
		expect int
	}{
		{
			name:   "unknown session",
			path:   "/api/sessions/nope/frames",
			body:   `{"detections":[]}`,
			expect: http.StatusNotFound,
		},
		{
			name:   "not json",
			path:   "/api/sessions/" + id + "/frames",
			body:   `{"detections":`,
			expect: http.StatusBadRequest,
		},
		{
			name:   "missing field",
			path:   "/api/sessions/" + id + "/frames",
			body:   `{"detections":[{"x1":0,"y1":0,"x2":1,"y2":1,"label":0}]}`,
			expect: http.StatusBadRequest,
		},
		{
			name:   "label out of range",
			path:   "/api/sessions/" + id + "/frames",
			body:   `{"detections":[{"x1":0,"y1":0,"x2":1,"y2":1,"confidence":0.5,"label":42}]}`,
			expect: http.StatusBadRequest,
		},
		{
			name:   "inverted box",
			path:   "/api/sessions/" + id + "/frames",
			body:   `{"detections":[{"x1":5,"y1":0,"x2":1,"y2":1,"confidence":0.5,"label":0}]}`,
			expect: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, s, http.MethodPost, tc.path, tc.body)
			if resp.StatusCode != tc.expect {
				t.Errorf("status: got %d, want %d (%s)", resp.StatusCode, tc.expect, body)
			}
			var payload map[string]string
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload["status"] != "error" || payload["error"] == "" {
				t.Errorf("payload: got %v", payload)
			}
		})
	}

	// rejected frames leave the session untouched
	resp, body := do(t, s, http.MethodGet, "/api/sessions/"+id, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: got %d", resp.StatusCode)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != guidance.StateStart || snap.Frames != 0 {
		t.Errorf("snapshot: got state=%s frames=%d", snap.State, snap.Frames)
	}
}

func TestServer_SessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	a := createSession(t, s)
	b := createSession(t, s)

	resp, body := do(t, s, http.MethodGet, "/api/sessions", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: got %d", resp.StatusCode)
	}
	var list []session.Snapshot
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("list: got %d sessions, want 2", len(list))
	}

	postFrame(t, s, b, 1)
	resp, body = do(t, s, http.MethodPost, "/api/sessions/"+b+"/reset", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: got %d", resp.StatusCode)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != guidance.StateStart {
		t.Errorf("after reset: got %s, want start", snap.State)
	}

	for _, tc := range []struct {
		id     string
		expect int
	}{
		{a, http.StatusNoContent},
		{a, http.StatusNotFound},
	} {
		resp, _ := do(t, s, http.MethodDelete, "/api/sessions/"+tc.id, "")
		if resp.StatusCode != tc.expect {
			t.Errorf("delete %s: got %d, want %d", tc.id, resp.StatusCode, tc.expect)
		}
	}

	resp, _ = do(t, s, http.MethodGet, fmt.Sprintf("/api/sessions/%s", a), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted: got %d, want 404", resp.StatusCode)
	}
}

func TestServer_WebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/ws/session", "/ws/events"} {
		resp, _ := do(t, s, http.MethodGet, path, "")
		if resp.StatusCode != http.StatusUpgradeRequired {
			t.Errorf("%s: got %d, want 426", path, resp.StatusCode)
		}
	}
}
