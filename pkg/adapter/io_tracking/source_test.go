// 指示: miu200521358
package io_tracking

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
)

const testFrameLine = `{"faces":[[{"x":0.5,"y":0.25,"z":0},{"x":0.1,"y":0.2,"z":0.3}]]}`

func TestDecodeFrame(t *testing.T) {
	frame, err := DecodeFrame([]byte(testFrameLine))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(frame.Faces) != 1 || len(frame.Faces[0]) != 2 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if frame.Faces[0][1].Z != 0.3 {
		t.Fatalf("unexpected landmark: %+v", frame.Faces[0][1])
	}

	_, err = DecodeFrame([]byte("{broken"))
	if io_common.ExtractErrorID(err) != io_common.IoErrorIDParseFailed {
		t.Fatalf("expected parse failed, got %v", err)
	}
}

func TestLineSourceSkipsBrokenLines(t *testing.T) {
	input := strings.Join([]string{testFrameLine, "", "not json", `{"faces":[]}`}, "\n")
	frames := []tracking.FaceFrame{}

	err := NewLineSource(strings.NewReader(input), 0).Run(context.Background(), func(frame tracking.FaceFrame) {
		frames = append(frames, frame)
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if len(frames[1].Faces) != 0 {
		t.Fatalf("expected empty frame, got %+v", frames[1])
	}
}

func TestLineSourceStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	err := NewLineSource(strings.NewReader(testFrameLine), 0).Run(ctx, func(tracking.FaceFrame) {
		called = true
	})
	if err != context.Canceled {
		t.Fatalf("expected canceled, got %v", err)
	}
	if called {
		t.Fatalf("sink should not be called")
	}
}

func TestOpenFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.jsonl")
	if err := os.WriteFile(path, []byte(testFrameLine+"\n"+testFrameLine+"\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	source, err := Open(path, time.Millisecond)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	count := 0
	if err := source.Run(context.Background(), func(tracking.FaceFrame) { count++ }); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 frames, got %d", count)
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.jsonl"), 0)
	if io_common.ExtractErrorID(err) != io_common.IoErrorIDFileNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = Open("face.csv", 0)
	if io_common.ExtractErrorID(err) != io_common.IoErrorIDExtInvalid {
		t.Fatalf("expected ext invalid, got %v", err)
	}
	if _, ok := mustOpenStdin(t).(*LineSource); !ok {
		t.Fatalf("expected line source for stdin")
	}
}

func mustOpenStdin(t *testing.T) any {
	t.Helper()
	source, err := Open(StdinSpec, 0)
	if err != nil {
		t.Fatalf("open stdin failed: %v", err)
	}
	return source
}

func TestUDPSourceReceivesDatagrams(t *testing.T) {
	source, err := NewUDPSource("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan tracking.FaceFrame, 4)
	done := make(chan error, 1)
	go func() {
		done <- source.Run(ctx, func(frame tracking.FaceFrame) { received <- frame })
	}()

	conn, err := net.Dial("udp", source.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("garbage")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := conn.Write([]byte(testFrameLine)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case frame := <-received:
		if len(frame.Faces) != 1 {
			t.Fatalf("unexpected frame: %+v", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("frame not received")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("source did not stop")
	}
}

func TestOpenUDPSpec(t *testing.T) {
	source, err := Open("udp://127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	udp, ok := source.(*UDPSource)
	if !ok {
		t.Fatalf("expected udp source, got %T", source)
	}
	_ = udp.Close()
}
