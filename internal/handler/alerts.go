package handler

import (
	"net/http"
	"strconv"

	"hazardcam/internal/logger"
	"hazardcam/internal/repository"
)

// AlertsHandler lists recent alerts (GET, ?limit=N) or clears the history (DELETE).
func AlertsHandler(alertRepo repository.AlertRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			limit := atoiDefault(r.URL.Query().Get("limit"), 50)
			alerts, err := alertRepo.GetRecent(limit)
			if err != nil {
				logger.Error("Error querying alerts from database: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			counts, err := alertRepo.CountByLabel()
			if err != nil {
				logger.Error("Error counting alerts: %v", err)
				counts = map[string]int{}
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"alerts": alerts,
				"counts": counts,
			})

		case http.MethodDelete:
			if err := alertRepo.DeleteAll(); err != nil {
				logger.Error("Error clearing alerts: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			logger.Info("🗑️ Alert history cleared")
			w.WriteHeader(http.StatusNoContent)

		default:
			w.Header().Set("Allow", "GET, DELETE")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// atoiDefault parses s as a positive int or returns def.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
