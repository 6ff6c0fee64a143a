package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hazardcam/internal/capture"
	"hazardcam/internal/config"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
	"hazardcam/internal/repository/sqlite"
	"hazardcam/internal/service/sampler"
	"hazardcam/internal/service/state"
)

type savedSettings struct {
	settings *model.Settings
}

func (s savedSettings) Load() (*model.Settings, error) { return s.settings, nil }

func TestRestoreState_ConfigDefaults(t *testing.T) {
	cfg := &config.Config{HazardLabels: []string{"fire"}, Mute: true, TextSize: "bogus"}

	st, err := restoreState(cfg, savedSettings{}, logger.Nop())
	if err != nil {
		t.Fatalf("restoreState failed: %v", err)
	}
	snap := st.Snapshot()
	if !snap.Hazards.Contains("fire") || !snap.Mute || snap.TextSize != state.TextMedium {
		t.Errorf("Unexpected state %+v", snap)
	}
}

func TestRestoreState_SavedSettingsWin(t *testing.T) {
	cfg := &config.Config{HazardLabels: []string{"fire"}, TextSize: "small"}
	saved := savedSettings{&model.Settings{HazardLabels: []string{"knife"}, Mute: true, TextSize: "large"}}

	st, err := restoreState(cfg, saved, logger.Nop())
	if err != nil {
		t.Fatalf("restoreState failed: %v", err)
	}
	snap := st.Snapshot()
	if snap.Hazards.Contains("fire") || !snap.Hazards.Contains("knife") || !snap.Mute || snap.TextSize != state.TextLarge {
		t.Errorf("Unexpected state %+v", snap)
	}
}

func TestPayloadEncoder(t *testing.T) {
	if e, err := payloadEncoder("raw"); err != nil || e != (sampler.RawEncoder{}) {
		t.Errorf("Expected RawEncoder, got %T %v", e, err)
	}
	if e, err := payloadEncoder("JPEG"); err != nil {
		t.Errorf("jpeg failed: %v", err)
	} else if _, ok := e.(capture.JPEGEncoder); !ok {
		t.Errorf("Expected JPEGEncoder, got %T", e)
	}
	if _, err := payloadEncoder("png"); err == nil {
		t.Error("Expected error for unknown encoding")
	}
}

func TestNew_RejectsUnknownCodec(t *testing.T) {
	cfg := testConfig(t, "ws://127.0.0.1:1/ws")
	cfg.WireCodec = "xml"
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for unknown wire codec")
	}
}

// openFilesUnder lists this process's open file descriptors inside dir.
func openFilesUnder(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("Cannot list open files: %v", err)
	}
	var open []string
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err == nil && strings.HasPrefix(target, dir) {
			open = append(open, target)
		}
	}
	return open
}

func TestNew_ClosesLogFilesOnError(t *testing.T) {
	cfg := testConfig(t, "ws://127.0.0.1:1/ws")
	cfg.SpeechSink = "carrier-pigeon"

	if _, err := New(cfg); err == nil {
		t.Fatal("Expected error for unknown speech sink")
	}
	if _, err := os.Stat(filepath.Join(cfg.LogDirectory, "error.log")); err != nil {
		t.Fatalf("Expected the failure to be logged: %v", err)
	}
	if open := openFilesUnder(t, cfg.LogDirectory); len(open) != 0 {
		t.Errorf("Log files left open after New failed: %v", open)
	}
}

func testConfig(t *testing.T, detectorURL string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:                 0,
		DetectorURL:          detectorURL,
		WireCodec:            "json",
		PayloadEncoding:      "raw",
		RetryDelay:           50 * time.Millisecond,
		HandshakeTimeout:     time.Second,
		WriteTimeout:         time.Second,
		MinFrameInterval:     200 * time.Millisecond,
		OutboundQueue:        2,
		CameraSource:         filepath.Join(dir, "missing.mp4"),
		HazardCooldown:       5 * time.Second,
		HazardLabels:         []string{"fire"},
		TextSize:             "medium",
		SpeechSink:           "log",
		SpeechQueue:          4,
		DBPath:               filepath.Join(dir, "app.db"),
		JournalFlushInterval: time.Hour,
		JournalBufferLimit:   10,
		LogDirectory:         filepath.Join(dir, "logs"),
		LogMaxSizeMB:         1,
		LogMaxBackups:        1,
	}
}

func TestRun_EndToEndAlertIsJournaled(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"client_id":"e2e"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`[{"box":[1,2,30,40],"confidence":0.9,"label":"fire"}]`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	cfg := testConfig(t, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws")
	application, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		status := application.Status()
		if status.ClientID == "e2e" && len(status.ActiveHazards) == 1 && application.buffer.Pending() == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Client never received the handshake and alert: %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if id, ok := application.clientState.ClientID(); ok {
		t.Errorf("Client id must be cleared on shutdown, got %q", id)
	}
	if err := application.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The journal flushes on shutdown.
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()
	alerts, err := sqlite.NewAlertRepository(db).GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Label != "fire" || alerts[0].ClientID != "e2e" {
		t.Errorf("Expected one journaled fire alert, got %+v", alerts)
	}
}
