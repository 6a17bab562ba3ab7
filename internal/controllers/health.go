package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Probe reports whether one backing service is reachable.
type Probe func(ctx context.Context) error

type HealthController struct {
	version string
	probes  map[string]Probe
}

func NewHealthController(version string, probes map[string]Probe) *HealthController {
	return &HealthController{version: version, probes: probes}
}

func (hc *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": hc.version})
}

func (hc *HealthController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(hc.probes))
	status := http.StatusOK
	for name, probe := range hc.probes {
		if err := probe(ctx); err != nil {
			log.Warn().Err(err).Str("dependency", name).Msg("Readiness probe failed")
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(status, gin.H{"checks": checks})
}
