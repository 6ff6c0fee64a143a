package handler

import (
	"encoding/json"
	"net/http"

	"hazardcam/internal/dto"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
	"hazardcam/internal/repository"
	"hazardcam/internal/service/speech"
	"hazardcam/internal/service/state"
)

// Announcer voices short confirmations such as a mute toggle.
type Announcer interface {
	Say(text string)
}

// SettingsHandler reads and partially updates the user preferences.
// It is the only writer of hazard labels, mute and text size. announcer may
// be nil.
func SettingsHandler(clientState *state.ClientState, settingsRepo repository.SettingsRepository, announcer Announcer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, currentSettings(clientState))

		case http.MethodPut, http.MethodPost:
			var update dto.SettingsUpdate
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				http.Error(w, "Invalid settings body", http.StatusBadRequest)
				return
			}

			// Validate before applying anything.
			prefs := state.Preferences{Hazards: update.HazardLabels, Mute: update.Mute}
			if update.TextSize != nil {
				size, err := state.ParseTextSize(*update.TextSize)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				prefs.TextSize = &size
			}

			snap, muteChanged := clientState.Apply(prefs)
			if muteChanged && announcer != nil {
				announcer.Say(speech.MuteUtterance(snap.Mute))
			}

			settings := settingsFromSnapshot(snap)
			if settingsRepo != nil {
				if err := settingsRepo.Save(settings); err != nil {
					logger.Error("Error saving settings: %v", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}
			logger.Info("Settings updated: hazards=%v mute=%v size=%s", settings.HazardLabels, settings.Mute, settings.TextSize)
			writeJSON(w, http.StatusOK, settings)

		default:
			w.Header().Set("Allow", "GET, PUT")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func currentSettings(clientState *state.ClientState) *model.Settings {
	return settingsFromSnapshot(clientState.Snapshot())
}

func settingsFromSnapshot(snap state.Snapshot) *model.Settings {
	return &model.Settings{
		HazardLabels: snap.Hazards.Labels(),
		Mute:         snap.Mute,
		TextSize:     snap.TextSize.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
