package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/logging"
)

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 2 * time.Second

// HealthResponse reports the server's view of itself and its dependencies.
type HealthResponse struct {
	Status      string             `json:"status"`
	Catalog     CatalogStatus      `json:"catalog"`
	Validations core.LimiterStatus `json:"validations"`
	Store       bool               `json:"store"`
	Checks      map[string]string  `json:"checks,omitempty"`
}

// CatalogStatus describes the published catalog.
type CatalogStatus struct {
	Source      string    `json:"source"`
	Fingerprint string    `json:"fingerprint"`
	Datasets    int       `json:"datasets"`
	Leaves      int       `json:"leaves"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// ReloadResponse reports the outcome of a catalog reload.
type ReloadResponse struct {
	Changed bool          `json:"changed"`
	Catalog CatalogStatus `json:"catalog"`
}

func (s *Server) catalogStatus() CatalogStatus {
	h := s.service.Holder()
	cat := h.Current()
	return CatalogStatus{
		Source:      h.SourceName(),
		Fingerprint: cat.Fingerprint(),
		Datasets:    len(cat.Datasets()),
		Leaves:      len(cat.Leaves()),
		LoadedAt:    h.LastReload(),
	}
}

// handleHealth reports 200 when every check passes and 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Catalog:     s.catalogStatus(),
		Validations: s.service.Limiter().Status(),
		Store:       s.service.HasStore(),
	}

	status := http.StatusOK
	for _, c := range s.checks {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(s.checks))
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := c.Check(ctx)
		cancel()
		if err != nil {
			logging.FromContext(r.Context()).Warn("health check failed", "check", c.Name, "error", err)
			resp.Checks[c.Name] = core.MapError(err).Message
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	writeJSON(w, status, resp)
}

// handleReloadCatalog re-reads the catalog source. A malformed source is
// reported and the previous catalog stays published.
func (s *Server) handleReloadCatalog(w http.ResponseWriter, r *http.Request) {
	changed, err := s.service.ReloadCatalog(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	logging.FromContext(r.Context()).Info("catalog reload requested", "changed", changed)
	writeJSON(w, http.StatusOK, ReloadResponse{Changed: changed, Catalog: s.catalogStatus()})
}
