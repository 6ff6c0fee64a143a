package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hazardcam/internal/config"
	"hazardcam/internal/dto"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
	"hazardcam/internal/render"
	"hazardcam/internal/repository/sqlite"
	"hazardcam/internal/service/overlay"
	"hazardcam/internal/service/state"
)

type memorySettings struct {
	saved *model.Settings
	fail  bool
}

func (m *memorySettings) Load() (*model.Settings, error) { return m.saved, nil }

func (m *memorySettings) Save(s *model.Settings) error {
	if m.fail {
		return errors.New("read-only database")
	}
	copied := *s
	m.saved = &copied
	return nil
}

func TestSettingsHandler_Get(t *testing.T) {
	st := state.NewClientState([]string{"knife", "fire"}, true, state.TextLarge)
	h := SettingsHandler(st, nil, nil, logger.Nop())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var got model.Settings
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(got.HazardLabels) != 2 || got.HazardLabels[0] != "fire" || !got.Mute || got.TextSize != "large" {
		t.Errorf("Unexpected settings %+v", got)
	}
}

func TestSettingsHandler_PartialUpdatePersists(t *testing.T) {
	st := state.NewClientState([]string{"fire"}, false, state.TextMedium)
	repo := &memorySettings{}
	h := SettingsHandler(st, repo, nil, logger.Nop())

	body := strings.NewReader(`{"mute": true, "size": "small"}`)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPut, "/api/settings", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	snap := st.Snapshot()
	if !snap.Mute || snap.TextSize != state.TextSmall || !snap.Hazards.Contains("fire") {
		t.Errorf("Unexpected state after update %+v", snap)
	}
	if repo.saved == nil || !repo.saved.Mute || repo.saved.TextSize != "small" {
		t.Errorf("Settings were not persisted: %+v", repo.saved)
	}
}

type recordingAnnouncer struct {
	said []string
}

func (a *recordingAnnouncer) Say(text string) { a.said = append(a.said, text) }

func TestSettingsHandler_AnnouncesMuteToggle(t *testing.T) {
	st := state.NewClientState([]string{"fire"}, false, state.TextMedium)
	announcer := &recordingAnnouncer{}
	h := SettingsHandler(st, &memorySettings{}, announcer, logger.Nop())

	put := func(body string) {
		t.Helper()
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 for %s, got %d", body, rec.Code)
		}
	}

	put(`{"mute": true}`)
	put(`{"mute": true}`)
	put(`{"size": "large"}`)
	put(`{"mute": false, "hazards": ["stairs"]}`)

	expected := []string{"Muted", "Unmuted"}
	if len(announcer.said) != len(expected) {
		t.Fatalf("Expected announcements %v, got %v", expected, announcer.said)
	}
	for i := range expected {
		if announcer.said[i] != expected[i] {
			t.Errorf("Announcement %d: expected %q, got %q", i, expected[i], announcer.said[i])
		}
	}
}

func TestSettingsHandler_InvalidSizeChangesNothing(t *testing.T) {
	st := state.NewClientState([]string{"fire"}, false, state.TextMedium)
	h := SettingsHandler(st, &memorySettings{}, nil, logger.Nop())

	body := strings.NewReader(`{"hazards": ["stairs"], "size": "huge"}`)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPut, "/api/settings", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if st.Hazards().Contains("stairs") {
		t.Error("A rejected update must not be partially applied")
	}
}

func TestSettingsHandler_BadBodyAndMethod(t *testing.T) {
	st := state.NewClientState(nil, false, state.TextMedium)
	h := SettingsHandler(st, nil, nil, logger.Nop())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodDelete, "/api/settings", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestSettingsHandler_SaveFailure(t *testing.T) {
	st := state.NewClientState(nil, false, state.TextMedium)
	h := SettingsHandler(st, &memorySettings{fail: true}, nil, logger.Nop())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"mute": true}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestOverlayHandler(t *testing.T) {
	ov := overlay.NewState()
	ov.Publish(model.DetectionResult{Boxes: []model.DetectionBox{{X2: 5, Y2: 5, Label: "person", Confidence: 0.7}}})

	rec := httptest.NewRecorder()
	OverlayHandler(ov)(rec, httptest.NewRequest(http.MethodGet, "/api/overlay", nil))

	var got model.DetectionResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(got.Boxes) != 1 || got.Boxes[0].Label != "person" {
		t.Errorf("Unexpected overlay %+v", got)
	}
}

func TestSnapshotHandler_NoFrameYet(t *testing.T) {
	st := state.NewClientState(nil, false, state.TextMedium)
	h := SnapshotHandler(&render.Preview{}, overlay.NewState(), st, logger.Nop())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the first frame, got %d", rec.Code)
	}
}

type fixedStatus dto.Status

func (f fixedStatus) Status() dto.Status { return dto.Status(f) }

func TestStatusHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	StatusHandler(fixedStatus{Connection: "connected", ClientID: "abc", FramesAdmitted: 3})(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var got dto.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Connection != "connected" || got.ClientID != "abc" || got.FramesAdmitted != 3 {
		t.Errorf("Unexpected status %+v", got)
	}
}

func TestAlertsHandler_ListAndClear(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewAlertRepository(db)
	repo.Insert(&model.Alert{Label: "fire", Confidence: 0.9, Timestamp: time.Now()})
	repo.Insert(&model.Alert{Label: "fire", Confidence: 0.8, Timestamp: time.Now()})
	h := AlertsHandler(repo, logger.Nop())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/alerts?limit=1", nil))

	var body struct {
		Alerts []model.Alert  `json:"alerts"`
		Counts map[string]int `json:"counts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(body.Alerts) != 1 || body.Counts["fire"] != 2 {
		t.Errorf("Unexpected alerts body %+v", body)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodDelete, "/api/alerts", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if alerts, _ := repo.GetRecent(10); len(alerts) != 0 {
		t.Errorf("Expected empty history, got %d", len(alerts))
	}
}

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{LogDirectory: dir, LogMaxSizeMB: 1, LogMaxBackups: 1}

	rec := httptest.NewRecorder()
	ShowLogsHandler(cfg, "warning")(rec, httptest.NewRequest(http.MethodGet, "/logs/warning", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing log file, got %d", rec.Code)
	}

	if err := os.WriteFile(filepath.Join(dir, "info.log"), []byte("hello\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	ShowLogsHandler(cfg, "info")(rec, httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hello") {
		t.Errorf("Expected log content, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ClearLogsHandler(logger.Nop(), "info")(rec, httptest.NewRequest(http.MethodGet, "/logs/info/clear", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET clear, got %d", rec.Code)
	}
}
