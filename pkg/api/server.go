// Package api provides the HTTP API surface for mediacore: health/readiness,
// mission result retrieval, memory administration, and a WebSocket endpoint
// for real-time mission/ingest event delivery.
package api

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathomhq/mediacore/pkg/database"
	"github.com/fathomhq/mediacore/pkg/events"
	"github.com/fathomhq/mediacore/pkg/memory"
	"github.com/fathomhq/mediacore/pkg/mission"
	"github.com/fathomhq/mediacore/pkg/queue"
)

// Server is the HTTP API server, built on gin — the web framework this
// module's go.mod carries. The teacher's own pkg/api imported echo, which
// was absent from every go.mod in the pack (including the teacher's own);
// gin is what cmd/tarsy's real entrypoint actually uses.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	dbClient    *database.Client
	workerPool  *queue.WorkerPool
	connManager *events.ConnectionManager
	outbox      mission.OutboxStore
	memStore    *memory.Store
}

// NewServer creates a new API server. connManager, outbox, and memStore may
// each be nil — the corresponding routes then respond 503 rather than
// panicking — and a nil workerPool drops the worker_pool check from
// /health, so a partially-wired server never crashes a request goroutine.
func NewServer(
	dbClient *database.Client,
	workerPool *queue.WorkerPool,
	connManager *events.ConnectionManager,
	outbox mission.OutboxStore,
	memStore *memory.Store,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{
		engine:      e,
		dbClient:    dbClient,
		workerPool:  workerPool,
		connManager: connManager,
		outbox:      outbox,
		memStore:    memStore,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.engine.Use(securityHeaders())
	// Body size limit (2 MB) — rejects multi-MB/GB payloads before they
	// reach handler deserialization.
	s.engine.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*1024*1024)
		c.Next()
	})

	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api/v1")
	v1.Use(tenantScope())

	v1.GET("/missions/:mission_id", s.getMissionHandler)

	v1.POST("/memory/:item_id/pin", s.pinMemoryHandler)
	v1.POST("/memory/:item_id/unpin", s.unpinMemoryHandler)
	v1.POST("/memory/:item_id/archive", s.archiveMemoryHandler)
	v1.POST("/memory/prune", s.pruneMemoryHandler)

	v1.GET("/ws", s.wsHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener. Used
// by tests serving on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
