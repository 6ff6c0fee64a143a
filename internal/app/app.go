package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"hazardcam/internal/capture"
	"hazardcam/internal/codec"
	"hazardcam/internal/config"
	"hazardcam/internal/dto"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
	"hazardcam/internal/render"
	"hazardcam/internal/repository/sqlite"
	"hazardcam/internal/route"
	"hazardcam/internal/service/connection"
	"hazardcam/internal/service/hazard"
	"hazardcam/internal/service/hub"
	"hazardcam/internal/service/journal"
	"hazardcam/internal/service/overlay"
	"hazardcam/internal/service/sampler"
	"hazardcam/internal/service/speech"
	"hazardcam/internal/service/state"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger *logger.Logger
	db     *sqlite.DB
	codec  codec.Codec

	clientState *state.ClientState
	overlay     *overlay.State
	preview     *render.Preview
	source      capture.Source
	sampler     *sampler.Sampler
	manager     *connection.Manager
	debouncer   *hazard.Debouncer
	buffer      *journal.BufferService
	speech      *speech.Queue
	hub         *hub.HubService
	server      *http.Server
}

// New wires every component from cfg. Persisted settings override the
// configured hazard labels, mute and text size.
func New(cfg *config.Config) (_ *App, err error) {
	log := logger.NewLogger(cfg)
	defer func() {
		if err != nil {
			log.Close()
		}
	}()

	wire, err := codec.Lookup(cfg.WireCodec)
	if err != nil {
		return nil, err
	}
	encoder, err := payloadEncoder(cfg.PayloadEncoding)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	alertRepo := sqlite.NewAlertRepository(db)
	settingsRepo := sqlite.NewSettingsRepository(db)
	sessions := journal.NewSessionJournal(sqlite.NewSessionRepository(db))

	if n, err := sessions.Recover(time.Now()); err != nil {
		log.Warning("Could not close dangling sessions: %v", err)
	} else if n > 0 {
		log.Info("Closed %d sessions left open by a previous run", n)
	}

	clientState, err := restoreState(cfg, settingsRepo, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	speaker, err := speech.NewSpeaker(cfg, log)
	if err != nil {
		log.Error("Speech sink unavailable: %v", err)
		db.Close()
		return nil, err
	}

	clk := clock.New()
	overlayState := overlay.NewState()
	hubService := hub.NewHubService(overlayState, log)
	speechQueue := speech.NewQueue(speaker, cfg.SpeechQueue, log)
	buffer := journal.NewBufferService(cfg, log, alertRepo, clientState, clk)
	debouncer := hazard.NewDebouncer(cfg.HazardCooldown, clk, clientState,
		hazard.MultiNotifier{speechQueue, buffer, hubService}, log)

	manager := connection.NewManager(connection.Options{
		Endpoint:         cfg.DetectorURL,
		DiscoveryURL:     cfg.DetectorDiscoveryURL,
		RetryDelay:       cfg.RetryDelay,
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		Codec:            wire,
		Clock:            clk,
	}, clientState, sessions, log,
		connection.ResultHandlerFunc(overlayState.Publish),
		connection.ResultHandlerFunc(func(result model.DetectionResult) { debouncer.OnResult(result) }),
	)

	a := &App{
		config:      cfg,
		logger:      log,
		db:          db,
		codec:       wire,
		clientState: clientState,
		overlay:     overlayState,
		preview:     &render.Preview{},
		source:      capture.NewSource(cfg, log),
		sampler:     sampler.NewSampler(cfg.MinFrameInterval, cfg.OutboundQueue, encoder, log),
		manager:     manager,
		debouncer:   debouncer,
		buffer:      buffer,
		speech:      speechQueue,
		hub:         hubService,
	}

	router := route.SetupRoutes(route.Services{
		ClientState:  clientState,
		Overlay:      overlayState,
		Preview:      a.preview,
		Hub:          hubService,
		Status:       a,
		AlertRepo:    alertRepo,
		SettingsRepo: settingsRepo,
		Announcer:    speechQueue,
	}, cfg, log)
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func payloadEncoder(name string) (sampler.PayloadEncoder, error) {
	switch strings.ToLower(name) {
	case "", "raw":
		return sampler.RawEncoder{}, nil
	case "jpeg", "jpg":
		return capture.JPEGEncoder{Quality: 80}, nil
	default:
		return nil, fmt.Errorf("unknown payload encoding %q", name)
	}
}

type settingsLoader interface {
	Load() (*model.Settings, error)
}

// restoreState builds the shared client state from the configuration and
// then applies saved settings on top.
func restoreState(cfg *config.Config, repo settingsLoader, log *logger.Logger) (*state.ClientState, error) {
	size, err := state.ParseTextSize(cfg.TextSize)
	if err != nil {
		log.Warning("Invalid TEXT_SIZE %q, using medium", cfg.TextSize)
	}
	hazards, mute := cfg.HazardLabels, cfg.Mute

	saved, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if saved != nil {
		hazards, mute = saved.HazardLabels, saved.Mute
		if parsed, err := state.ParseTextSize(saved.TextSize); err == nil {
			size = parsed
		}
		log.Info("Restored settings: hazards=%v mute=%v size=%s", hazards, mute, size)
	}

	return state.NewClientState(hazards, mute, size), nil
}

// Run starts every component and blocks until ctx is done or the HTTP
// server fails. Cancelling ctx shuts down the detection link, cancels hazard
// timers, flushes the alert journal and disconnects viewers.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sink := capture.FrameSinkFunc(func(frame *model.Frame) bool {
			a.preview.Submit(frame)
			return a.sampler.Submit(frame)
		})
		if err := a.source.Run(ctx, sink); err != nil {
			// The API and the detection link stay up without a camera.
			a.logger.Error("Camera capture stopped: %v", err)
		}
		return nil
	})
	g.Go(func() error { return a.manager.Run(ctx, a.sampler.Outbound()) })
	g.Go(func() error { return a.debouncer.Run(ctx) })
	g.Go(func() error { return a.buffer.Run(ctx) })
	g.Go(func() error { return a.speech.Run(ctx) })
	g.Go(func() error { return a.hub.Run(ctx) })

	g.Go(func() error {
		a.logger.Info("🚀 Hazard camera client")
		a.logger.Info("📍 API: http://localhost:%d", a.config.Port)
		a.logger.Info("🤖 Detector: %s (%s)", a.config.DetectorURL, a.codec.Name())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Status implements handler.StatusReporter.
func (a *App) Status() dto.Status {
	clientID, _ := a.clientState.ClientID()
	conn := a.manager.Stats()
	frames := a.sampler.Stats()
	active := a.debouncer.ActiveLabels()
	if active == nil {
		active = []string{}
	}

	return dto.Status{
		Connection:     a.manager.State().String(),
		ClientID:       clientID,
		Endpoint:       a.manager.Endpoint(),
		Codec:          a.codec.Name(),
		FramesSeen:     frames.Seen,
		FramesAdmitted: frames.Admitted,
		HandoffDrops:   frames.HandoffDrops,
		MessagesSent:   conn.Sent,
		SendDrops:      conn.SendDrops,
		DecodeErrors:   conn.DecodeErrors,
		Reconnects:     conn.Reconnects,
		ActiveHazards:  active,
		Viewers:        a.hub.GetClientCount(),
	}
}

// Close releases the database and log files. Call after Run returns.
func (a *App) Close() error {
	dbErr := a.db.Close()
	logErr := a.logger.Close()
	if dbErr != nil {
		return dbErr
	}
	return logErr
}
