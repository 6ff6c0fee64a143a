// Package speech voices hazard alerts through a pluggable sink.
package speech

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"hazardcam/internal/config"
	"hazardcam/internal/logger"
	"hazardcam/internal/service/hazard"
)

// Speaker voices one utterance. Speak may block until playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Close() error
}

// Utterance is the sentence spoken for a hazard label.
func Utterance(label string) string {
	return fmt.Sprintf("Warning, %s detected in front of you.", label)
}

// MuteUtterance confirms a mute toggle.
func MuteUtterance(muted bool) string {
	if muted {
		return "Muted"
	}
	return "Unmuted"
}

// NewSpeaker builds the sink named by cfg.SpeechSink.
func NewSpeaker(cfg *config.Config, logger *logger.Logger) (Speaker, error) {
	switch strings.ToLower(cfg.SpeechSink) {
	case "", "log":
		return NewLogSpeaker(logger), nil
	case "command":
		return NewCommandSpeaker(cfg.SpeechCommand)
	case "zmq":
		return NewZMQSpeaker(cfg.SpeechZMQEndpoint)
	default:
		return nil, fmt.Errorf("unknown speech sink %q", cfg.SpeechSink)
	}
}

// LogSpeaker writes utterances to the info log.
type LogSpeaker struct {
	logger *logger.Logger
}

func NewLogSpeaker(logger *logger.Logger) *LogSpeaker {
	return &LogSpeaker{logger: logger}
}

func (s *LogSpeaker) Speak(ctx context.Context, text string) error {
	s.logger.Info("🔊 %s", text)
	return nil
}

func (s *LogSpeaker) Close() error { return nil }

// Queue hands utterances to a Speaker on its own goroutine so that the
// connection's receive loop and HTTP handlers never wait on audio.
type Queue struct {
	speaker Speaker
	logger  *logger.Logger
	items   chan string
	dropped atomic.Uint64
	spoken  atomic.Uint64
}

func NewQueue(speaker Speaker, size int, logger *logger.Logger) *Queue {
	if size <= 0 {
		size = 8
	}
	return &Queue{
		speaker: speaker,
		logger:  logger,
		items:   make(chan string, size),
	}
}

// Notify implements hazard.Notifier. Alerts are dropped when the queue is full.
func (q *Queue) Notify(alert hazard.Alert) {
	q.Say(Utterance(alert.Label))
}

// Say queues arbitrary text, dropping it when the queue is full.
func (q *Queue) Say(text string) {
	select {
	case q.items <- text:
	default:
		q.dropped.Add(1)
		q.logger.Warning("Speech queue full, dropping %q", text)
	}
}

// Run speaks queued utterances until ctx is done, then closes the speaker.
func (q *Queue) Run(ctx context.Context) error {
	defer q.speaker.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-q.items:
			if err := q.speaker.Speak(ctx, text); err != nil && ctx.Err() == nil {
				q.logger.Error("Failed to speak %q: %v", text, err)
				continue
			}
			q.spoken.Add(1)
		}
	}
}

// Spoken returns how many utterances were voiced.
func (q *Queue) Spoken() uint64 { return q.spoken.Load() }

// Dropped returns how many utterances were lost to a full queue.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
