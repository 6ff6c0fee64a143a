package journal

import (
	"time"

	"hazardcam/internal/repository"
)

// SessionJournal records connection lifetimes through a SessionRepository.
type SessionJournal struct {
	repo repository.SessionRepository
}

func NewSessionJournal(repo repository.SessionRepository) *SessionJournal {
	return &SessionJournal{repo: repo}
}

func (j *SessionJournal) BeginSession(clientID, endpoint string, at time.Time) (int64, error) {
	return j.repo.Begin(clientID, endpoint, at)
}

func (j *SessionJournal) EndSession(id int64, at time.Time) error {
	return j.repo.End(id, at)
}

// Recover closes sessions a previous process left open and returns how many.
func (j *SessionJournal) Recover(at time.Time) (int64, error) {
	return j.repo.CloseDangling(at)
}
