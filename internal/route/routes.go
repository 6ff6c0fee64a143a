package route

import (
	"net/http"
	"os"
	"path/filepath"

	"hazardcam/internal/config"
	"hazardcam/internal/handler"
	"hazardcam/internal/logger"
	"hazardcam/internal/render"
	"hazardcam/internal/repository"
	"hazardcam/internal/service/hub"
	"hazardcam/internal/service/overlay"
	"hazardcam/internal/service/state"
)

// Services are the components the HTTP surface reads from and writes to.
type Services struct {
	ClientState  *state.ClientState
	Overlay      *overlay.State
	Preview      *render.Preview
	Hub          *hub.HubService
	Status       handler.StatusReporter
	AlertRepo    repository.AlertRepository
	SettingsRepo repository.SettingsRepository
	Announcer    handler.Announcer
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers static file serving, the settings and status API,
// the viewer websocket and the log endpoints.
func SetupRoutes(s Services, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// API endpoints
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(s.Hub, logger))
	mux.HandleFunc("/api/settings", handler.SettingsHandler(s.ClientState, s.SettingsRepo, s.Announcer, logger))
	mux.HandleFunc("/api/overlay", handler.OverlayHandler(s.Overlay))
	mux.HandleFunc("/api/snapshot", handler.SnapshotHandler(s.Preview, s.Overlay, s.ClientState, logger))
	mux.HandleFunc("/api/status", handler.StatusHandler(s.Status))
	mux.HandleFunc("/api/alerts", handler.AlertsHandler(s.AlertRepo, logger))

	// Log endpoints
	for _, level := range handler.LogLevels {
		mux.HandleFunc("/logs/"+level, handler.ShowLogsHandler(cfg, level))
		mux.HandleFunc("/logs/"+level+"/clear", handler.ClearLogsHandler(logger, level))
	}

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return mux
}
