package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int

	DetectorURL          string
	DetectorDiscoveryURL string
	WireCodec            string // json, cbor or msgpack
	PayloadEncoding      string // raw or jpeg
	RetryDelay           time.Duration
	HandshakeTimeout     time.Duration
	WriteTimeout         time.Duration

	MinFrameInterval time.Duration
	OutboundQueue    int
	CameraSource     string
	CameraUDPPort    int // 0 disables the UDP camera intake

	HazardCooldown time.Duration
	HazardLabels   []string
	Mute           bool
	TextSize       string

	SpeechSink        string // log, command or zmq
	SpeechCommand     string
	SpeechZMQEndpoint string
	SpeechQueue       int

	DBPath               string
	JournalFlushInterval time.Duration
	JournalBufferLimit   int

	LogDirectory  string
	LogMaxSizeMB  int
	LogMaxBackups int
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	return &Config{
		Port: getEnvAsInt("PORT", 8080),

		DetectorURL:          getEnv("DETECTOR_URL", "ws://localhost:8000/ws"),
		DetectorDiscoveryURL: getEnv("DETECTOR_DISCOVERY_URL", ""),
		WireCodec:            getEnv("WIRE_CODEC", "json"),
		PayloadEncoding:      getEnv("PAYLOAD_ENCODING", "raw"),
		RetryDelay:           getEnvAsDuration("RETRY_DELAY", 2*time.Second), // fixed delay, no backoff
		HandshakeTimeout:     getEnvAsDuration("HANDSHAKE_TIMEOUT", 5*time.Second),
		WriteTimeout:         getEnvAsDuration("WRITE_TIMEOUT", 5*time.Second),

		MinFrameInterval: getEnvAsDuration("MIN_FRAME_INTERVAL", 200*time.Millisecond),
		OutboundQueue:    getEnvAsInt("OUTBOUND_QUEUE", 4),
		CameraSource:     getEnv("CAMERA_SOURCE", "0"),
		CameraUDPPort:    getEnvAsInt("CAMERA_UDP_PORT", 0),

		HazardCooldown: getEnvAsDuration("HAZARD_COOLDOWN", 5*time.Second),
		HazardLabels:   getEnvAsList("HAZARD_LABELS", nil),
		Mute:           getEnvAsBool("MUTE", false),
		TextSize:       getEnv("TEXT_SIZE", "medium"),

		SpeechSink:        getEnv("SPEECH_SINK", "log"),
		SpeechCommand:     getEnv("SPEECH_COMMAND", "espeak"),
		SpeechZMQEndpoint: getEnv("SPEECH_ZMQ_ENDPOINT", "tcp://*:5556"),
		SpeechQueue:       getEnvAsInt("SPEECH_QUEUE", 8),

		DBPath:               getEnv("DB_PATH", filepath.Join(".", "data", "hazardcam.db")),
		JournalFlushInterval: getEnvAsDuration("JOURNAL_FLUSH_INTERVAL", 10*time.Second),
		JournalBufferLimit:   getEnvAsInt("JOURNAL_BUFFER_LIMIT", 50),

		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogMaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("250ms") or a bare number of milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
