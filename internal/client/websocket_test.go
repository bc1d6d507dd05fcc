// ABOUTME: Tests for WebSocket client implementation
// ABOUTME: Tests handshake and conversions against an in-process server
package client

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sendspin/umxconv/internal/protocol"
	"github.com/Sendspin/umxconv/internal/server"
	"github.com/Sendspin/umxconv/pkg/convert"
	"github.com/gorilla/websocket"
)

// monoWAV builds a 16-bit mono RIFF file
func monoWAV(sampleRate, frames int) []byte {
	le := binary.LittleEndian
	dataSize := frames * 2

	out := []byte("RIFF")
	out = le.AppendUint32(out, uint32(36+dataSize))
	out = append(out, "WAVEfmt "...)
	out = le.AppendUint32(out, 16)
	out = le.AppendUint16(out, 1)
	out = le.AppendUint16(out, 1)
	out = le.AppendUint32(out, uint32(sampleRate))
	out = le.AppendUint32(out, uint32(sampleRate*2))
	out = le.AppendUint16(out, 2)
	out = le.AppendUint16(out, 16)
	out = append(out, "data"...)
	out = le.AppendUint32(out, uint32(dataSize))
	for i := 0; i < frames; i++ {
		out = le.AppendUint16(out, uint16(int16(i%200-100)))
	}
	return out
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func startServer(t *testing.T, config server.Config) string {
	t.Helper()
	srv := server.New(config, convert.WithRandom(zeroReader{}))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return strings.TrimPrefix(ts.URL, "http://")
}

func connect(t *testing.T, addr string) *Client {
	t.Helper()
	c := NewClient(Config{ServerAddr: addr})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{ServerAddr: "localhost:8927"})
	if client == nil {
		t.Fatal("expected client to be created")
	}

	if client.config.ServerAddr != "localhost:8927" {
		t.Errorf("expected server addr localhost:8927, got %s", client.config.ServerAddr)
	}
	if client.config.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, client.config.Timeout)
	}
	if client.IsConnected() {
		t.Error("expected new client to be disconnected")
	}
}

func TestConnect(t *testing.T) {
	addr := startServer(t, server.Config{Name: "Studio"})
	c := connect(t, addr)

	if !c.IsConnected() {
		t.Error("expected client to be connected")
	}
	hello := c.Server()
	if hello.Name != "Studio" || hello.Version != protocol.Version {
		t.Errorf("unexpected hello %+v", hello)
	}
}

func TestConnectFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := NewClient(Config{ServerAddr: "127.0.0.1:1"})
	if err := c.Connect(ctx); err == nil {
		t.Fatal("expected dial error")
	}
	if c.IsConnected() {
		t.Error("expected client to stay disconnected")
	}
}

func TestConvert(t *testing.T) {
	addr := startServer(t, server.Config{})
	c := connect(t, addr)

	tests := []struct {
		name     string
		req      protocol.ConvertRequest
		filename string
		magic    string
	}{
		{"it", protocol.ConvertRequest{Format: "it", Name: "Loop"}, "Loop.it", "IMPM"},
		{"umx", protocol.ConvertRequest{Format: "umx", Name: "Loop"}, "Loop.umx", "\xC1\x83\x2A\x9E"},
	}

	// Requests share one connection
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Convert(context.Background(), monoWAV(22050, 11025), tt.req)
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			if res.Filename != tt.filename {
				t.Errorf("expected filename %s, got %s", tt.filename, res.Filename)
			}
			if res.RequestID == "" {
				t.Error("expected request ID")
			}
			if !strings.HasPrefix(string(res.Data), tt.magic) {
				t.Errorf("unexpected leading bytes % X", res.Data[:4])
			}
			if res.Duration != 0.5 {
				t.Errorf("expected duration 0.5, got %v", res.Duration)
			}
		})
	}
}

func TestConvertRemoteError(t *testing.T) {
	addr := startServer(t, server.Config{})
	c := connect(t, addr)

	_, err := c.Convert(context.Background(), []byte("not audio at all"), protocol.ConvertRequest{Format: "it"})

	var convErr *protocol.ConvertError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConvertError, got %v", err)
	}
	if convErr.Kind != protocol.KindDecode {
		t.Errorf("expected kind %s, got %s", protocol.KindDecode, convErr.Kind)
	}

	// Remote errors keep the connection open
	if !c.IsConnected() {
		t.Fatal("expected connection to stay open")
	}
	if _, err := c.Convert(context.Background(), monoWAV(8000, 800), protocol.ConvertRequest{Format: "it"}); err != nil {
		t.Errorf("Convert after remote error failed: %v", err)
	}
}

func TestConvertInputTooLarge(t *testing.T) {
	addr := startServer(t, server.Config{MaxInputBytes: 1000})
	c := connect(t, addr)

	_, err := c.Convert(context.Background(), monoWAV(8000, 8000), protocol.ConvertRequest{})
	if !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("expected ErrInputTooLarge, got %v", err)
	}
	if !c.IsConnected() {
		t.Error("expected connection to stay open")
	}
}

func TestConvertNotConnected(t *testing.T) {
	c := NewClient(Config{ServerAddr: "localhost:8927"})
	if _, err := c.Convert(context.Background(), []byte{1}, protocol.ConvertRequest{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

// silentHandler sends server/hello and then reads without ever replying
func silentHandler() http.Handler {
	upgrader := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(protocol.Message{
			Type:    protocol.TypeServerHello,
			Payload: protocol.ServerHello{ServerID: "silent", Name: "Silent", Version: protocol.Version},
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func TestConvertCancelled(t *testing.T) {
	silent := httptest.NewServer(silentHandler())
	t.Cleanup(silent.Close)

	c := connect(t, strings.TrimPrefix(silent.URL, "http://"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Convert(ctx, monoWAV(8000, 100), protocol.ConvertRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if c.IsConnected() {
		t.Error("expected connection to be closed after cancellation")
	}
}
