// ABOUTME: WebSocket client for the conversion service
// ABOUTME: Handles connection, handshake and request/response exchange
package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/Sendspin/umxconv/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds one conversion round trip
const DefaultTimeout = 2 * time.Minute

var (
	// ErrNotConnected is returned when Convert is called before Connect
	ErrNotConnected = errors.New("not connected")

	// ErrInputTooLarge is returned when the input exceeds the server's limit
	ErrInputTooLarge = errors.New("input exceeds server limit")
)

// Config holds client configuration
type Config struct {
	ServerAddr string        // host:port
	Timeout    time.Duration // Round-trip limit per conversion (default: 2m)
}

// Client is a connection to a conversion server. Conversions on one
// client run one at a time.
type Client struct {
	config Config
	conn   *websocket.Conn
	hello  protocol.ServerHello
	mu     sync.Mutex

	connected bool
}

// Result is a converted file received from the server
type Result struct {
	RequestID string
	Filename  string
	Data      []byte
	Duration  float64
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{config: config}
}

// Connect establishes the WebSocket connection and waits for server/hello
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: protocol.Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msgType, payload, err := readJSON(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	hello, ok := payload.(*protocol.ServerHello)
	if !ok {
		conn.Close()
		return fmt.Errorf("expected server/hello, got %s", msgType)
	}
	if hello.Version != protocol.Version {
		conn.Close()
		return fmt.Errorf("unsupported protocol version %d (want %d)", hello.Version, protocol.Version)
	}

	c.mu.Lock()
	c.conn = conn
	c.hello = *hello
	c.connected = true
	c.mu.Unlock()

	log.Printf("Connected to %s (ID: %s)", hello.Name, hello.ServerID)
	return nil
}

// Server returns the hello received from the server
func (c *Client) Server() protocol.ServerHello {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hello
}

// Convert uploads input and waits for the converted file. A conversion
// the server rejects is returned as a *protocol.ConvertError.
func (c *Client) Convert(ctx context.Context, input []byte, req protocol.ConvertRequest) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, ErrNotConnected
	}
	if limit := c.hello.MaxInputBytes; limit > 0 && int64(len(input)) > limit {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(input), limit)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	deadline := time.Now().Add(c.config.Timeout)
	c.conn.SetWriteDeadline(deadline)
	c.conn.SetReadDeadline(deadline)
	defer c.conn.SetWriteDeadline(time.Time{})
	defer c.conn.SetReadDeadline(time.Time{})

	// Unblock reads and writes when ctx is cancelled
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
		c.conn.SetWriteDeadline(time.Now())
	})
	defer stop()

	res, err := c.exchange(input, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.closeLocked()
			return nil, ctxErr
		}
		var convErr *protocol.ConvertError
		if !errors.As(err, &convErr) {
			c.closeLocked()
		}
		return nil, err
	}
	return res, nil
}

// exchange sends one request and reads its reply
func (c *Client) exchange(input []byte, req protocol.ConvertRequest) (*Result, error) {
	msg := protocol.Message{
		Type:    protocol.TypeConvertRequest,
		Payload: req,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, input); err != nil {
		return nil, fmt.Errorf("failed to send audio: %w", err)
	}

	msgType, payload, err := readJSON(c.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}

	switch reply := payload.(type) {
	case *protocol.ConvertError:
		return nil, reply
	case *protocol.ConvertResult:
		if reply.RequestID != req.RequestID {
			return nil, fmt.Errorf("reply for request %s, expected %s", reply.RequestID, req.RequestID)
		}

		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read output: %w", err)
		}
		if kind != websocket.BinaryMessage {
			return nil, fmt.Errorf("expected binary output, got message type %d", kind)
		}
		if len(data) != reply.Size {
			return nil, fmt.Errorf("output size %d does not match announced %d", len(data), reply.Size)
		}

		return &Result{
			RequestID: reply.RequestID,
			Filename:  reply.Filename,
			Data:      data,
			Duration:  reply.Duration,
		}, nil
	default:
		return nil, fmt.Errorf("unexpected message %s", msgType)
	}
}

// readJSON reads one text message and parses it
func readJSON(conn *websocket.Conn) (string, interface{}, error) {
	kind, data, err := conn.ReadMessage()
	if err != nil {
		return "", nil, err
	}
	if kind != websocket.TextMessage {
		return "", nil, fmt.Errorf("expected text message, got type %d", kind)
	}
	return protocol.Parse(data)
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.connected {
		c.connected = false
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
