// Configuration status endpoint.

package api

import (
	"net/http"

	"github.com/seenimoa/finny/internal/config"
)

// ConfigStatusResponse is the data of GET /api/v1/config/status.
type ConfigStatusResponse struct {
	Settings []config.SettingStatus `json:"settings"`
	Warnings int                    `json:"warnings"`
}

// handleConfigStatus reports where the operator-relevant settings come from
// and flags values that are likely to get upstream requests refused.
func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	settings := config.CheckSettings(s.cfg)
	warnings := 0
	for _, st := range settings {
		if st.Warning != "" {
			warnings++
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigStatusResponse{
			Settings: settings,
			Warnings: warnings,
		},
	})
}
