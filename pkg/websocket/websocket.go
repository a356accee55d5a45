package websocketPkg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"PoseFeedback/internal/entity"
	"PoseFeedback/pkg/log"
	"PoseFeedback/pkg/utils"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var ErrNotConnected = errors.New("not connected to pose model service")

// IWebsocket is the pose model as seen by the rest of the service: one frame
// in, the model's raw landmark list out. An empty list means no pose.
type IWebsocket interface {
	DetectPose(ctx context.Context, frame image.Image) ([]entity.RawLandmark, error)
	IsConnected() bool
	CloseConnections()
}

type Config struct {
	URL          string
	JPEGQuality  int
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		JPEGQuality:  85,
		PingInterval: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

type poseResponse struct {
	Landmarks []entity.RawLandmark `json:"landmarks"`
	Error     string               `json:"error,omitempty"`
}

// webSocketClient holds a single connection to the inference sidecar. The
// model is not assumed to be safe for concurrent use, so the whole
// write/read exchange runs under mu.
type webSocketClient struct {
	cfg  Config
	conn *websocket.Conn
	mu   sync.Mutex
	done chan struct{}
}

func NewPoseModelClient(cfg Config) IWebsocket {
	client := &webSocketClient{
		cfg:  cfg,
		done: make(chan struct{}),
	}

	go client.connectInBackground()

	return client
}

// connectInBackground dials without holding mu so IsConnected and
// CloseConnections stay responsive during a slow handshake.
func (c *webSocketClient) connectInBackground() {
	conn, err := c.dial()
	if err != nil {
		log.Warn(log.Fields{
			"url":   c.cfg.URL,
			"error": err.Error(),
		}, "Initial connection to pose model failed, will retry on demand")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		conn.Close()
		return
	default:
	}
	if c.conn != nil {
		conn.Close()
		return
	}

	c.installLocked(conn)
	log.Info(log.Fields{"url": c.cfg.URL}, "Connected to pose model service")
}

func (c *webSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

func (c *webSocketClient) dial() (*websocket.Conn, error) {
	if c.cfg.URL == "" {
		return nil, errors.New("pose model URL not configured")
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			log.Warn(log.Fields{"error": err.Error()}, "Error sending pong to pose model")
		}
		return nil
	})

	return conn, nil
}

func (c *webSocketClient) installLocked(conn *websocket.Conn) {
	c.conn = conn

	if c.cfg.PingInterval > 0 {
		go c.keepAlive(conn)
	}
}

// reconnectLocked replaces the current connection. DetectPose calls it with
// mu held, so frames queue behind the redial.
func (c *webSocketClient) reconnectLocked() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.installLocked(conn)

	return nil
}

func (c *webSocketClient) CloseConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
	default:
		close(c.done)
	}

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			log.Warn(log.Fields{"error": err.Error()}, "Ping to pose model failed, marking connection as dead")
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *webSocketClient) DetectPose(ctx context.Context, frame image.Image) ([]entity.RawLandmark, error) {
	payload, err := utils.EncodeJPEG(frame, c.cfg.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("error encoding frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.reconnectLocked(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
		}
	}
	conn := c.conn

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn.SetWriteDeadline(c.deadline(ctx, c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		c.dropLocked(conn)
		return nil, fmt.Errorf("error sending frame: %w", err)
	}

	conn.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.dropLocked(conn)
		return nil, fmt.Errorf("error reading pose response: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var resp poseResponse
	if err := jsoniter.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling pose response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose model error: %s", resp.Error)
	}

	log.Debug(log.Fields{
		"frame_bytes": len(payload),
		"landmarks":   len(resp.Landmarks),
	}, "Received pose model response")

	return resp.Landmarks, nil
}

func (c *webSocketClient) dropLocked(conn *websocket.Conn) {
	conn.Close()
	if c.conn == conn {
		c.conn = nil
	}
}

func (c *webSocketClient) deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
