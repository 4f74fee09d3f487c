package api

import (
	"net/http"

	"github.com/hashicorp-forge/hermes-distributor/internal/server"
	"github.com/hashicorp-forge/hermes-distributor/internal/version"
)

// HealthResponse reports liveness and which settings are configured.
// Secrets are reported only as presence flags.
type HealthResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Config  HealthConfig `json:"config"`
}

// HealthConfig is the configuration part of HealthResponse.
type HealthConfig struct {
	AppID              bool   `json:"app_id"`
	AppSecret          bool   `json:"app_secret"`
	TenantDomain       string `json:"tenant_domain"`
	DefaultFolderToken bool   `json:"default_folder_token"`
}

// HealthHandler reports the service status.
// Routes:
//
//	GET /health
//	GET /api/v2/distribute
//	GET /api/distribute
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		resp := HealthResponse{
			Status:  "ok",
			Version: version.Version,
		}
		if srv.Config != nil && srv.Config.Lark != nil {
			l := srv.Config.Lark
			resp.Config = HealthConfig{
				AppID:              l.AppID != "",
				AppSecret:          l.AppSecret != "",
				TenantDomain:       l.TenantDomain,
				DefaultFolderToken: l.DefaultFolderToken != "",
			}
		}

		respondJSON(w, srv.Logger, http.StatusOK, resp)
	})
}
