// ABOUTME: WebSocket conversion service
// ABOUTME: Accepts uploaded audio, converts it to IT/UMX and streams the result back
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Sendspin/umxconv/internal/discovery"
	"github.com/Sendspin/umxconv/internal/protocol"
	"github.com/Sendspin/umxconv/pkg/compact"
	"github.com/Sendspin/umxconv/pkg/convert"
	"github.com/Sendspin/umxconv/pkg/it"
	"github.com/Sendspin/umxconv/pkg/umx"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultMaxInputBytes caps the size of one uploaded audio message
	DefaultMaxInputBytes = 64 << 20

	// DefaultName is advertised when Config.Name is empty
	DefaultName = "umxconv"

	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second

	// headroom for the JSON request that precedes the audio
	readLimitSlack = 4096
)

// Session states
const (
	StateIdle       = "idle"
	StateUploading  = "uploading"
	StateConverting = "converting"
)

// Config holds server configuration
type Config struct {
	Port          int
	Name          string
	EnableMDNS    bool
	MaxInputBytes int64 // Largest accepted audio upload (default: 64 MiB)
	Debug         bool
	UseTUI        bool
}

// Stats counts conversions since the server started
type Stats struct {
	Conversions int
	Failures    int
	BytesIn     int64
	BytesOut    int64
	LastResult  string
}

// Server is the conversion service
type Server struct {
	config   Config
	serverID string

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	converter *convert.Converter

	// Session management
	sessions   map[string]*Session
	sessionsMu sync.RWMutex

	stats   Stats
	statsMu sync.Mutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	// TUI
	tui       *ServerTUI
	startTime time.Time

	// Control
	ctx        context.Context
	cancel     context.CancelFunc
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Session is one connected client
type Session struct {
	ID          string
	Addr        string
	Conn        *websocket.Conn
	State       string
	Conversions int

	// Output channel for messages
	sendChan chan interface{}

	mu sync.RWMutex
}

func (c *Session) setState(state string) {
	c.mu.Lock()
	c.State = state
	c.mu.Unlock()
}

// New creates a new server instance. Converter options are applied after
// the server's own, so a caller may replace its logger or random source.
func New(config Config, opts ...convert.Option) *Server {
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.MaxInputBytes <= 0 {
		config.MaxInputBytes = DefaultMaxInputBytes
	}

	var convertOpts []convert.Option
	if config.Debug {
		convertOpts = append(convertOpts, convert.WithLogger(log.New(log.Writer(), "[convert] ", log.Flags())))
	}
	convertOpts = append(convertOpts, opts...)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:    config,
		serverID:  uuid.New().String(),
		mux:       http.NewServeMux(),
		converter: convert.New(convertOpts...),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Intended for trusted local networks; browsers are accepted but logged
				origin := r.Header.Get("Origin")
				if origin != "" && origin != "http://localhost" && origin != "http://127.0.0.1" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		sessions:  make(map[string]*Session),
		startTime: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		stopChan:  make(chan struct{}),
	}

	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)

	return s
}

// Handler returns the HTTP handler serving the conversion endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the server until Stop is called, the TUI quits or the
// listener fails
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(s.config.Name, s.config.Port); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, protocol.Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdown()

	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// shutdown rejects new connections, cancels running conversions and
// closes open sessions so their goroutines exit
func (s *Server) shutdown() {
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	s.cancel()

	s.sessionsMu.RLock()
	for _, session := range s.sessions {
		session.Conn.Close()
	}
	s.sessionsMu.RUnlock()
}

// Stats returns a snapshot of the conversion counters
func (s *Server) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// SessionCount returns the number of connected clients
func (s *Server) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.wg.Add(1)
	defer s.wg.Done()
	s.handleConnection(conn, r.RemoteAddr)
}

// handleConnection serves conversion requests on one connection until it closes
func (s *Server) handleConnection(conn *websocket.Conn, addr string) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}

	session := &Session{
		ID:       uuid.New().String(),
		Addr:     addr,
		Conn:     conn,
		State:    StateIdle,
		sendChan: make(chan interface{}, 16),
	}

	s.sessionsMu.Lock()
	s.sessions[session.ID] = session
	s.sessionsMu.Unlock()
	s.shutdownMu.RUnlock()

	s.updateTUI()

	writerDone := make(chan struct{})
	defer func() {
		s.sessionsMu.Lock()
		delete(s.sessions, session.ID)
		s.sessionsMu.Unlock()
		close(session.sendChan)
		<-writerDone
		log.Printf("Client disconnected: %s", session.Addr)

		s.updateTUI()
	}()

	go func() {
		defer close(writerDone)
		s.clientWriter(session)
	}()

	conn.SetReadLimit(s.config.MaxInputBytes + readLimitSlack)

	hello := protocol.ServerHello{
		ServerID:      s.serverID,
		Name:          s.config.Name,
		Version:       protocol.Version,
		MaxInputBytes: s.config.MaxInputBytes,
	}
	if err := s.sendMessage(session, protocol.TypeServerHello, hello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if msgType != websocket.TextMessage {
			s.sendError(session, "", protocol.KindProtocol, "expected convert/request before audio data")
			continue
		}

		req, err := parseRequest(data)
		if err != nil {
			s.sendError(session, "", protocol.KindProtocol, err.Error())
			continue
		}
		if req.RequestID == "" {
			req.RequestID = uuid.New().String()
		}

		session.setState(StateUploading)
		s.updateTUI()

		msgType, audio, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Error reading audio for %s: %v", req.RequestID, err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			session.setState(StateIdle)
			s.sendError(session, req.RequestID, protocol.KindProtocol, "expected binary audio data after convert/request")
			continue
		}

		s.handleConvert(session, req, audio)
	}
}

// parseRequest decodes a text message that must be a convert/request
func parseRequest(data []byte) (*protocol.ConvertRequest, error) {
	msgType, payload, err := protocol.Parse(data)
	if err != nil {
		return nil, err
	}
	req, ok := payload.(*protocol.ConvertRequest)
	if !ok {
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeConvertRequest, msgType)
	}
	return req, nil
}

// handleConvert runs one conversion and queues its result or error
func (s *Server) handleConvert(session *Session, req *protocol.ConvertRequest, audio []byte) {
	session.setState(StateConverting)
	s.updateTUI()

	if s.config.Debug {
		log.Printf("[DEBUG] Request %s from %s: %d bytes, format=%q", req.RequestID, session.Addr, len(audio), req.Format)
	}

	start := time.Now()
	out, err := s.converter.Convert(s.ctx, audio, RequestConfig(req))

	session.mu.Lock()
	session.State = StateIdle
	if err == nil {
		session.Conversions++
	}
	session.mu.Unlock()
	s.updateTUI()

	if err != nil {
		log.Printf("Conversion %s failed: %v", req.RequestID, err)
		s.recordFailure(req.RequestID, err)
		s.sendError(session, req.RequestID, ErrorKind(err), err.Error())
		return
	}

	log.Printf("Conversion %s: %s (%d bytes) in %v", req.RequestID, out.Filename, len(out.Data), time.Since(start).Round(time.Millisecond))
	s.recordSuccess(len(audio), out)

	result := protocol.ConvertResult{
		RequestID: req.RequestID,
		Filename:  out.Filename,
		Size:      len(out.Data),
		Duration:  out.Duration,
	}
	if err := s.sendMessage(session, protocol.TypeConvertResult, result); err != nil {
		log.Printf("Error sending result: %v", err)
		return
	}
	if err := s.sendBinary(session, out.Data); err != nil {
		log.Printf("Error sending output: %v", err)
	}
}

func (s *Server) recordSuccess(inputSize int, out *convert.Output) {
	s.statsMu.Lock()
	s.stats.Conversions++
	s.stats.BytesIn += int64(inputSize)
	s.stats.BytesOut += int64(len(out.Data))
	s.stats.LastResult = out.Filename
	s.statsMu.Unlock()
}

func (s *Server) recordFailure(requestID string, err error) {
	s.statsMu.Lock()
	s.stats.Failures++
	s.stats.LastResult = fmt.Sprintf("%s failed: %s", requestID, ErrorKind(err))
	s.statsMu.Unlock()
}

// RequestConfig maps a request onto the converter defaults. Only fields
// present in the request override a default.
func RequestConfig(req *protocol.ConvertRequest) convert.Config {
	cfg := convert.DefaultConfig()
	if req.Format != "" {
		cfg.Format = req.Format
	}
	if req.BitDepth != 0 {
		cfg.BitDepth = req.BitDepth
	}
	if req.SampleRate != 0 {
		cfg.SampleRate = req.SampleRate
	}
	if req.Stereo != nil {
		cfg.Stereo = *req.Stereo
	}
	if req.ExtraChannels != nil {
		cfg.ExtraChannels = *req.ExtraChannels
	}
	if req.Name != "" {
		cfg.Name = req.Name
	}
	return cfg
}

// ErrorKind classifies a conversion error for the wire
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, convert.ErrMissingInput):
		return protocol.KindMissingInput
	case errors.Is(err, convert.ErrUnsupportedFormat):
		return protocol.KindUnsupportedFormat
	case errors.Is(err, convert.ErrDecode):
		return protocol.KindDecode
	case errors.Is(err, convert.ErrInvalidConfig):
		return protocol.KindInvalidConfig
	case errors.Is(err, umx.ErrSecureRandomUnavailable):
		return protocol.KindSecureRandom
	case errors.Is(err, compact.ErrOverflow):
		return protocol.KindOverflow
	case errors.Is(err, it.ErrTooManyChannels):
		return protocol.KindTooManyChannels
	default:
		return protocol.KindInternal
	}
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(session *Session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-session.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				session.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := session.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					session.Conn.Close()
					drain(session.sendChan)
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				session.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := session.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					session.Conn.Close()
					drain(session.sendChan)
					return
				}
			}

		case <-ticker.C:
			if err := session.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				session.Conn.Close()
				drain(session.sendChan)
				return
			}
		}
	}
}

// drain discards queued messages until the channel is closed
func drain(ch <-chan interface{}) {
	for range ch {
	}
}

// sendMessage queues a JSON message for a client
func (s *Server) sendMessage(session *Session, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case session.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary queues binary data for a client
func (s *Server) sendBinary(session *Session, data []byte) error {
	select {
	case session.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendError queues a convert/error message
func (s *Server) sendError(session *Session, requestID, kind, message string) {
	payload := protocol.ConvertError{
		RequestID: requestID,
		Kind:      kind,
		Message:   message,
	}
	if err := s.sendMessage(session, protocol.TypeConvertError, payload); err != nil {
		log.Printf("Error sending error message: %v", err)
	}
}
