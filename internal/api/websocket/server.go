package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/publisher"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development (TODO: restrict in production)
	},
}

// Server pushes ingest run events to websocket subscribers. Events arrive
// on the Redis stream the job service publishes to.
type Server struct {
	port   string
	server *http.Server
	hub    *Hub
	cache  *cache.RedisCache
	cancel context.CancelFunc
	log    *logrus.Entry
}

// NewServer creates a new WebSocket server. The cache may be nil, in which
// case clients can connect but no run events are relayed.
func NewServer(redisCache *cache.RedisCache, logger *logrus.Logger) *Server {
	return &Server{
		hub:   NewHub(logger),
		cache: redisCache,
		log:   logger.WithField("component", "ws"),
	}
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.port = port

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.hub.Run()

	if s.cache != nil {
		go s.relayRunEvents(ctx)
	} else {
		s.log.Warn("⚠️  redis unavailable, run events will not be relayed")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/ingest/live", s.handleIngestLive)
	mux.HandleFunc("/ws/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
	}

	s.log.WithField("port", port).Info("websocket server listening")
	return s.server.ListenAndServe()
}

// handleIngestLive handles WebSocket connections for run event updates
func (s *Server) handleIngestLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("⚠️  failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// relayRunEvents tails the run event stream and fans entries out to the
// hub. Reads start at the stream tail; subscribers only see runs that
// start after they connect.
func (s *Server) relayRunEvents(ctx context.Context) {
	client := s.cache.Client()
	lastID := "$"

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{publisher.RunStream, lastID},
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue // no entries before the block timeout
			}
			s.log.WithError(err).Warn("⚠️  run stream read failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				if data, ok := msg.Values["data"].(string); ok {
					s.hub.Broadcast([]byte(data))
				}
			}
		}
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
