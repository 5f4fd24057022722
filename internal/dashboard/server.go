// Package dashboard serves a live local view of the remote status
// document.
//
// The server polls the remote store on a fixed interval, detects
// revision changes, and pushes the fresh document to connected
// WebSocket clients. It also exposes the current document as JSON and
// a minimal HTML viewer.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/statusdash/statusctl/internal/schema"
)

// MessageType defines the type of a broadcast message.
type MessageType string

const (
	// MessageTypeDocument carries the full status document after a
	// revision change.
	MessageTypeDocument MessageType = "document"

	// MessageTypeStats carries aggregate task counts.
	MessageTypeStats MessageType = "stats"
)

// Message is one WebSocket broadcast.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Revision  string          `json:"revision,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Fetcher reads the current document and its revision token. Satisfied
// by store.DocumentStore.
type Fetcher interface {
	Fetch(ctx context.Context) (*schema.Document, string, error)
}

// Config holds server configuration.
type Config struct {
	// Port to listen on (default: 8080).
	Port int

	// Interval between remote polls (default: 30s).
	Interval time.Duration

	// Fetcher reads the remote document. Required.
	Fetcher Fetcher

	// Logger for server activity (default: stderr logger).
	Logger *log.Logger
}

// Server polls the remote document and fans changes out to WebSocket
// clients.
type Server struct {
	addr     string
	interval time.Duration
	fetcher  Fetcher
	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	current    *schema.Document
	currentRev string
	currentMu  sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewServer creates a dashboard server.
func NewServer(config *Config) (*Server, error) {
	if config == nil || config.Fetcher == nil {
		return nil, fmt.Errorf("dashboard fetcher is required")
	}
	port := config.Port
	if port == 0 {
		port = 8080
	}
	interval := config.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      fmt.Sprintf(":%d", port),
		interval:  interval,
		fetcher:   config.Fetcher,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}, nil
}

// Start begins polling and serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status.json", s.handleStatusJSON)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go s.pollLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard listening on %s", s.addr)
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

// pollLoop fetches the remote document and broadcasts revision changes.
func (s *Server) pollLoop() {
	defer s.wg.Done()

	// Prime the view before the first tick.
	s.poll()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *Server) poll() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	doc, revision, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Printf("poll failed: %v", err)
		return
	}

	s.currentMu.Lock()
	changed := revision != s.currentRev
	s.current = doc
	s.currentRev = revision
	s.currentMu.Unlock()

	if !changed {
		return
	}

	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Printf("failed to marshal document: %v", err)
		return
	}
	s.Broadcast(Message{Type: MessageTypeDocument, Revision: revision, Data: data})

	stats, err := json.Marshal(computeStats(doc))
	if err == nil {
		s.Broadcast(Message{Type: MessageTypeStats, Revision: revision, Data: stats})
	}
}

// Broadcast queues a message for all connected clients.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Client connected (total: %d)", clientCount)

	// New clients get the current document immediately rather than
	// waiting for the next revision change.
	s.currentMu.RLock()
	doc, revision := s.current, s.currentRev
	s.currentMu.RUnlock()

	if doc != nil {
		if data, err := json.Marshal(doc); err == nil {
			welcome := Message{
				Type:      MessageTypeDocument,
				Timestamp: time.Now(),
				Revision:  revision,
				Data:      data,
			}
			if raw, err := json.Marshal(welcome); err == nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, raw)
				cancel()
			}
		}
	}

	go s.readLoop(conn)
}

// readLoop keeps the connection alive and notices client disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, _, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Client disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

// GetAddr returns the server's listening address.
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
