package api

import (
	"github.com/gin-gonic/gin"

	"fedharvest/state"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(mgr *state.Manager, run RunFunc) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	// Register resource routers
	RegisterHealthRoutes(r)
	RegisterHarvestRoutes(r, mgr, run)
	return r
}
