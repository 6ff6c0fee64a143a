package handler

import (
	"net/http"

	"hazardcam/internal/logger"
	"hazardcam/internal/render"
	"hazardcam/internal/service/overlay"
	"hazardcam/internal/service/state"
)

// OverlayHandler returns the detection result currently drawn.
func OverlayHandler(overlayState *overlay.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, overlayState.Current())
	}
}

// SnapshotHandler renders the latest camera frame with the current overlay as JPEG.
func SnapshotHandler(preview *render.Preview, overlayState *overlay.State, clientState *state.ClientState, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame := preview.Latest()
		if frame == nil {
			http.Error(w, "No frame captured yet", http.StatusServiceUnavailable)
			return
		}

		snap := clientState.Snapshot()
		image, err := render.Annotate(frame, overlayState.Current(), snap.Hazards, snap.TextSize)
		if err != nil {
			logger.Error("Error rendering snapshot: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(image)
	}
}
