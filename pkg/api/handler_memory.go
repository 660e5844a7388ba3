package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// pinMemoryHandler handles POST /api/v1/memory/:item_id/pin.
func (s *Server) pinMemoryHandler(c *gin.Context) {
	s.memoryAction(c, "pin", func(itemID string) error {
		return s.memStore.Pin(c.Request.Context(), itemID)
	})
}

// unpinMemoryHandler handles POST /api/v1/memory/:item_id/unpin.
func (s *Server) unpinMemoryHandler(c *gin.Context) {
	s.memoryAction(c, "unpin", func(itemID string) error {
		return s.memStore.Unpin(c.Request.Context(), itemID)
	})
}

// archiveMemoryHandler handles POST /api/v1/memory/:item_id/archive.
func (s *Server) archiveMemoryHandler(c *gin.Context) {
	s.memoryAction(c, "archive", func(itemID string) error {
		return s.memStore.Archive(c.Request.Context(), itemID)
	})
}

func (s *Server) memoryAction(c *gin.Context, action string, fn func(itemID string) error) {
	if s.memStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "memory store not available"})
		return
	}
	itemID := c.Param("item_id")
	if err := fn(itemID); err != nil {
		writeMappedError(c, err)
		return
	}
	c.JSON(http.StatusOK, &MemoryActionResponse{ItemID: itemID, Action: action})
}

// pruneMemoryHandler handles POST /api/v1/memory/prune — an admin-triggered
// prune of a single namespace, distinct from pkg/cleanup's unscoped periodic
// sweep across all tenants.
func (s *Server) pruneMemoryHandler(c *gin.Context) {
	if s.memStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "memory store not available"})
		return
	}

	var req PruneMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := s.memStore.Prune(c.Request.Context(), req.Namespace, req.OlderThan, req.KeepPinned)
	if err != nil {
		writeMappedError(c, err)
		return
	}

	c.JSON(http.StatusOK, &PruneResponse{Deleted: deleted})
}
