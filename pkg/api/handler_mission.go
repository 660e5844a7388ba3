package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathomhq/mediacore/pkg/tenant"
)

// getMissionHandler handles GET /api/v1/missions/:mission_id — spec §4.9's
// session-resilience retrieval path: a caller whose connection dropped
// mid-mission fetches the persisted outbox bundle by id.
func (s *Server) getMissionHandler(c *gin.Context) {
	if s.outbox == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mission outbox not available"})
		return
	}

	scope, err := tenant.From(c.Request.Context())
	if err != nil {
		writeMappedError(c, err)
		return
	}

	missionID := c.Param("mission_id")
	bundle, ok, err := s.outbox.Get(c.Request.Context(), scope.Tenant, scope.Workspace, missionID)
	if err != nil {
		writeMappedError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "mission not found"})
		return
	}

	c.JSON(http.StatusOK, &MissionResponse{
		MissionID:   bundle.MissionID,
		Status:      bundle.Status,
		FinalText:   bundle.FinalText,
		Metrics:     bundle.Metrics,
		PersistedAt: bundle.PersistedAt,
	})
}
