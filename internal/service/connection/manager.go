// Package connection owns the duplex link to the remote detection service.
//
// Reconnects use a fixed delay, not exponential backoff: during a long outage
// the client keeps retrying every RetryDelay, so recovery latency after the
// service returns is at most one RetryDelay plus the dial time.
package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"hazardcam/internal/codec"
	"hazardcam/internal/dto"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
)

// State of the single logical connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

var (
	ErrNotConnected   = errors.New("not connected")
	ErrAlreadyRunning = errors.New("connection manager already running")
)

// ResultHandler consumes detection results in arrival order.
type ResultHandler interface {
	HandleResult(result model.DetectionResult)
}

// ResultHandlerFunc adapts a function to ResultHandler.
type ResultHandlerFunc func(model.DetectionResult)

func (f ResultHandlerFunc) HandleResult(result model.DetectionResult) { f(result) }

// Identity is where the handshake's client id is stored.
type Identity interface {
	SetClientID(id string)
	ClearClientID()
}

// SessionJournal records connection lifetimes. Optional.
type SessionJournal interface {
	BeginSession(clientID, endpoint string, at time.Time) (int64, error)
	EndSession(id int64, at time.Time) error
}

type Options struct {
	Endpoint         string
	DiscoveryURL     string
	RetryDelay       time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Codec            codec.Codec
	Clock            clock.Clock
	HTTPClient       *http.Client
}

// Stats are cumulative counters since creation.
type Stats struct {
	Sent         uint64
	SendDrops    uint64
	DecodeErrors uint64
	Reconnects   uint64
}

type Manager struct {
	opts     Options
	dialer   *websocket.Dialer
	identity Identity
	handlers []ResultHandler
	journal  SessionJournal
	logger   *logger.Logger

	state atomic.Int32

	connMu    sync.Mutex
	conn      *websocket.Conn
	endpoint  string
	sessionID int64

	writeMu sync.Mutex

	sent         atomic.Uint64
	sendDrops    atomic.Uint64
	decodeErrors atomic.Uint64
	reconnects   atomic.Uint64

	runMu    sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	shutdown bool
}

// NewManager creates a manager in the Disconnected state. journal may be nil.
func NewManager(opts Options, identity Identity, journal SessionJournal, logger *logger.Logger, handlers ...ResultHandler) *Manager {
	if opts.Codec == nil {
		opts.Codec = codec.JSON{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.HandshakeTimeout}
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Manager{
		opts:     opts,
		dialer:   &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		identity: identity,
		handlers: handlers,
		journal:  journal,
		logger:   logger,
	}
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	if old := State(m.state.Swap(int32(s))); old != s {
		m.logger.Info("Detection link %s -> %s", old, s)
	}
}

// Endpoint returns the URL of the current or last connection.
func (m *Manager) Endpoint() string {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if m.endpoint == "" {
		return m.opts.Endpoint
	}
	return m.endpoint
}

func (m *Manager) Stats() Stats {
	return Stats{
		Sent:         m.sent.Load(),
		SendDrops:    m.sendDrops.Load(),
		DecodeErrors: m.decodeErrors.Load(),
		Reconnects:   m.reconnects.Load(),
	}
}

// Run connects, keeps reconnecting and forwards outbound records until ctx is
// done or Shutdown is called. It never fails on transport errors. Only one
// Run may be active at a time; a concurrent call returns ErrAlreadyRunning.
func (m *Manager) Run(ctx context.Context, outbound <-chan dto.OutboundMessage) error {
	m.runMu.Lock()
	if m.shutdown {
		m.runMu.Unlock()
		return nil
	}
	if m.cancel != nil {
		m.runMu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.runMu.Unlock()

	defer func() {
		m.runMu.Lock()
		m.cancel, m.done = nil, nil
		m.runMu.Unlock()
		close(done)
	}()
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.pump(ctx, outbound)
	}()

	m.connectLoop(ctx)
	wg.Wait()

	m.setState(Disconnected)
	m.identity.ClearClientID()
	m.logger.Info("🛑 Detection link shut down")
	return nil
}

// Shutdown closes the transport, cancels a pending retry and stops the
// receive loop. Safe to call more than once, and before Run.
func (m *Manager) Shutdown() {
	m.runMu.Lock()
	m.shutdown = true
	cancel, done := m.cancel, m.done
	m.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.closeConn()
	if done != nil {
		<-done
	}
}

func (m *Manager) connectLoop(ctx context.Context) {
	for ctx.Err() == nil {
		m.setState(Connecting)

		conn, endpoint, err := m.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warning("Connecting to detection service failed: %v (retry in %v)", err, m.opts.RetryDelay)
			if !m.sleep(ctx, m.opts.RetryDelay) {
				return
			}
			continue
		}

		m.attach(conn, endpoint)
		err = m.receive(ctx, conn)
		m.detach(conn)

		if ctx.Err() != nil {
			return
		}
		m.reconnects.Add(1)
		m.logger.Warning("Detection link lost: %v (reconnecting in %v)", err, m.opts.RetryDelay)
		if !m.sleep(ctx, m.opts.RetryDelay) {
			return
		}
	}
}

func (m *Manager) connect(ctx context.Context) (*websocket.Conn, string, error) {
	endpoint := m.opts.Endpoint
	if m.opts.DiscoveryURL != "" {
		discovered, err := m.discover(ctx)
		if err != nil {
			return nil, "", err
		}
		endpoint = discovered
	}

	dialCtx := ctx
	if m.opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, m.opts.HandshakeTimeout)
		defer cancel()
	}

	conn, resp, err := m.dialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, "", fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, "", fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return conn, endpoint, nil
}

// discover fetches the service host from the discovery document. The body is
// either a full ws:// URL or a bare host[:port].
func (m *Manager) discover(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.opts.DiscoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("discovery request: %w", err)
	}
	resp, err := m.opts.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("discovery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discovery: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("discovery body: %w", err)
	}
	return EndpointFromDiscovery(string(body))
}

// EndpointFromDiscovery turns a discovery document into a websocket URL.
func EndpointFromDiscovery(body string) (string, error) {
	host := strings.TrimSpace(body)
	if host == "" {
		return "", errors.New("discovery: empty document")
	}
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return host, nil
	}
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	if strings.ContainsAny(host, " /\t\n") {
		return "", fmt.Errorf("discovery: invalid host %q", host)
	}
	return "ws://" + host + "/ws", nil
}

func (m *Manager) attach(conn *websocket.Conn, endpoint string) {
	m.connMu.Lock()
	m.conn = conn
	m.endpoint = endpoint
	m.sessionID = 0
	m.connMu.Unlock()

	m.setState(Connected)
	m.logger.Info("🔌 Connected to detection service at %s", endpoint)
}

func (m *Manager) detach(conn *websocket.Conn) {
	m.setState(Disconnected)

	m.connMu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	sessionID := m.sessionID
	m.sessionID = 0
	m.connMu.Unlock()

	conn.Close()

	if sessionID != 0 && m.journal != nil {
		if err := m.journal.EndSession(sessionID, m.opts.Clock.Now()); err != nil {
			m.logger.Error("Failed to record session end: %v", err)
		}
	}
}

func (m *Manager) closeConn() {
	m.connMu.Lock()
	conn := m.conn
	m.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// receive reads until the connection fails or ctx is done.
func (m *Manager) receive(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	handshaken := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m.handleMessage(data, &handshaken)
	}
}

func (m *Manager) handleMessage(data []byte, handshaken *bool) {
	in, err := codec.DecodeInbound(m.opts.Codec, data)
	if err != nil {
		m.decodeErrors.Add(1)
		m.logger.Warning("Discarding message from detection service: %v", err)
		return
	}

	if in.IsHandshake() {
		if *handshaken {
			m.logger.Warning("Ignoring repeated handshake (client id %s)", in.Handshake.ClientID)
			return
		}
		*handshaken = true
		m.identity.SetClientID(in.Handshake.ClientID)
		m.logger.Info("Received client id: %s", in.Handshake.ClientID)
		m.beginSession(in.Handshake.ClientID)
		return
	}

	result := model.DetectionResult{Boxes: in.Boxes, ArrivedAt: m.opts.Clock.Now()}
	for _, h := range m.handlers {
		h.HandleResult(result)
	}
}

func (m *Manager) beginSession(clientID string) {
	if m.journal == nil {
		return
	}
	id, err := m.journal.BeginSession(clientID, m.Endpoint(), m.opts.Clock.Now())
	if err != nil {
		m.logger.Error("Failed to record session start: %v", err)
		return
	}
	m.connMu.Lock()
	m.sessionID = id
	m.connMu.Unlock()
}

// pump is the single writer of the connection. Records arriving while not
// connected are dropped, never queued.
func (m *Manager) pump(ctx context.Context, outbound <-chan dto.OutboundMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			if err := m.Send(msg); err != nil && !errors.Is(err, ErrNotConnected) {
				m.logger.Warning("Frame send failed: %v", err)
			}
		}
	}
}

// Send writes one frame record. It returns ErrNotConnected, dropping the
// record, unless the manager is Connected. A write error closes the
// connection, which makes the receive loop schedule a reconnect.
func (m *Manager) Send(msg dto.OutboundMessage) error {
	m.connMu.Lock()
	conn := m.conn
	m.connMu.Unlock()

	if conn == nil || m.State() != Connected {
		m.sendDrops.Add(1)
		return ErrNotConnected
	}

	data, err := m.opts.Codec.Marshal(msg)
	if err != nil {
		m.sendDrops.Add(1)
		return fmt.Errorf("encode frame: %w", err)
	}

	m.writeMu.Lock()
	if m.opts.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(m.opts.WriteTimeout))
	}
	err = conn.WriteMessage(m.opts.Codec.MessageType(), data)
	m.writeMu.Unlock()

	if err != nil {
		m.sendDrops.Add(1)
		conn.Close()
		return fmt.Errorf("write frame: %w", err)
	}
	m.sent.Add(1)
	return nil
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	timer := m.opts.Clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
