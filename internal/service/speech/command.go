package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandSpeaker runs an external text-to-speech program with the
// utterance as its last argument, e.g. "espeak" or "say -v Alex".
type CommandSpeaker struct {
	name string
	args []string
}

func NewCommandSpeaker(command string) (*CommandSpeaker, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("speech command is empty")
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("speech command %q not found: %w", fields[0], err)
	}
	return &CommandSpeaker{name: fields[0], args: fields[1:]}, nil
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string(nil), s.args...), text)
	out, err := exec.CommandContext(ctx, s.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", s.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *CommandSpeaker) Close() error { return nil }
