package websocketPkg

import (
	"context"
	"errors"
	"image"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"PoseFeedback/internal/entity"

	"github.com/gorilla/websocket"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// fakeModel is an inference sidecar answering every binary frame with reply.
type fakeModel struct {
	reply    func(frame []byte) interface{}
	frames   atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeModel) handler(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				t.Errorf("message type = %d, want binary", mt)
			}
			n := f.inFlight.Add(1)
			if n > f.maxSeen.Load() {
				f.maxSeen.Store(n)
			}
			f.frames.Add(1)
			time.Sleep(2 * time.Millisecond)
			f.inFlight.Add(-1)

			if err := conn.WriteJSON(f.reply(msg)); err != nil {
				return
			}
		}
	}
}

func startModel(t *testing.T, f *fakeModel) IWebsocket {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("ws" + strings.TrimPrefix(srv.URL, "http"))
	cfg.PingInterval = 0
	client := NewPoseModelClient(cfg)
	t.Cleanup(client.CloseConnections)
	return client
}

func landmarks(n int) []entity.RawLandmark {
	out := make([]entity.RawLandmark, n)
	for i := range out {
		out[i] = entity.RawLandmark{X: 0.5, Y: float64(i) / 40, Visibility: 0.9}
	}
	return out
}

func frame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 32, 18))
}

func TestDetectPose(t *testing.T) {
	model := &fakeModel{reply: func(frame []byte) interface{} {
		if len(frame) < 2 || frame[0] != 0xFF || frame[1] != 0xD8 {
			return map[string]string{"error": "expected jpeg"}
		}
		return map[string]interface{}{"landmarks": landmarks(33)}
	}}
	client := startModel(t, model)

	got, err := client.DetectPose(context.Background(), frame())
	if err != nil {
		t.Fatalf("DetectPose() error = %v", err)
	}
	if len(got) != 33 {
		t.Fatalf("len(landmarks) = %d, want 33", len(got))
	}
	if got[12].Y != 12.0/40 || got[12].Visibility != 0.9 {
		t.Errorf("landmark 12 = %+v", got[12])
	}
	if !client.IsConnected() {
		t.Errorf("IsConnected() = false after a successful call")
	}
}

func TestDetectPoseNoPose(t *testing.T) {
	client := startModel(t, &fakeModel{reply: func([]byte) interface{} {
		return map[string]interface{}{"landmarks": []entity.RawLandmark{}}
	}})

	got, err := client.DetectPose(context.Background(), frame())
	if err != nil {
		t.Fatalf("DetectPose() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(landmarks) = %d, want 0", len(got))
	}
}

func TestDetectPoseModelError(t *testing.T) {
	client := startModel(t, &fakeModel{reply: func([]byte) interface{} {
		return map[string]string{"error": "inference failed"}
	}})

	_, err := client.DetectPose(context.Background(), frame())
	if err == nil || !strings.Contains(err.Error(), "inference failed") {
		t.Fatalf("DetectPose() error = %v, want model error", err)
	}
}

func TestDetectPoseSerialisesCalls(t *testing.T) {
	model := &fakeModel{reply: func([]byte) interface{} {
		return map[string]interface{}{"landmarks": landmarks(33)}
	}}
	client := startModel(t, model)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.DetectPose(context.Background(), frame()); err != nil {
				t.Errorf("DetectPose() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := model.frames.Load(); got != 8 {
		t.Errorf("frames = %d, want 8", got)
	}
	if got := model.maxSeen.Load(); got != 1 {
		t.Errorf("max in-flight = %d, want 1", got)
	}
}

func TestDetectPoseUnreachable(t *testing.T) {
	cfg := DefaultConfig("ws://127.0.0.1:1/pose/ws")
	cfg.PingInterval = 0
	client := NewPoseModelClient(cfg)
	defer client.CloseConnections()

	_, err := client.DetectPose(context.Background(), frame())
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("DetectPose() error = %v, want ErrNotConnected", err)
	}
	if client.IsConnected() {
		t.Errorf("IsConnected() = true for unreachable model")
	}
}

func TestDetectPoseCancelledContext(t *testing.T) {
	client := startModel(t, &fakeModel{reply: func([]byte) interface{} {
		return map[string]interface{}{"landmarks": landmarks(33)}
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.DetectPose(ctx, frame()); !errors.Is(err, context.Canceled) {
		t.Fatalf("DetectPose() error = %v, want context.Canceled", err)
	}
}

func TestSlowHandshakeDoesNotBlockClient(t *testing.T) {
	// accepts TCP but never answers the upgrade
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := DefaultConfig("ws://" + ln.Addr().String() + "/pose/ws")
	cfg.PingInterval = 0
	client := NewPoseModelClient(cfg)
	time.Sleep(50 * time.Millisecond)

	done := make(chan bool, 1)
	go func() { done <- client.IsConnected() }()
	select {
	case connected := <-done:
		if connected {
			t.Errorf("IsConnected() = true during handshake")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("IsConnected() blocked behind the initial dial")
	}

	closed := make(chan struct{})
	go func() {
		client.CloseConnections()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("CloseConnections() blocked behind the initial dial")
	}
}
