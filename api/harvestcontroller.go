package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fedharvest/state"
)

// RunFunc launches one harvest run identified by runID. The service wires in
// the real pipeline; tests can substitute a stub.
type RunFunc func(ctx context.Context, runID string)

// RegisterHealthRoutes registers the liveness endpoint.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterHarvestRoutes registers harvest control endpoints.
func RegisterHarvestRoutes(r *gin.Engine, mgr *state.Manager, run RunFunc) {
	g := r.Group("/api/harvest")

	// GET /api/harvest/status returns a snapshot of the current run.
	g.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, mgr.GetStatus())
	})

	// POST /api/harvest/start launches a run asynchronously and returns
	// 202 Accepted immediately. A run already in flight is refused: the
	// portal session cannot serve two harvests at once.
	g.POST("/start", func(c *gin.Context) {
		runID := uuid.NewString()
		if !mgr.BeginRun(runID) {
			c.JSON(http.StatusConflict, gin.H{"error": "harvest already running"})
			return
		}

		go run(context.Background(), runID)
		c.JSON(http.StatusAccepted, gin.H{"status": "harvest started", "run_id": runID})
	})
}
