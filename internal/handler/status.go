package handler

import (
	"net/http"

	"hazardcam/internal/dto"
)

// StatusReporter assembles the runtime status of the client.
type StatusReporter interface {
	Status() dto.Status
}

func StatusHandler(reporter StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reporter.Status())
	}
}
