// Package store persists one JSON snapshot per (sessionID, date) plus a
// per-session summary. File names encode the date unambiguously so restore
// works by exact trading date, never by "whatever is newest".
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
)

// ErrNoSnapshot means no snapshot exists for the requested date. Callers
// treat it as cold start, not as an error to crash on.
var ErrNoSnapshot = errors.New("store: no snapshot for date")

const dateLayout = "2006-01-02"

type Store struct {
	dir    string
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// SaveDay writes the full session state snapshot for its date. Write goes to
// a temp file first and renames into place so readers never see a torn file.
func (s *Store) SaveDay(state *models.SessionState) error {
	dir := filepath.Join(s.dir, state.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	final := filepath.Join(dir, s.dayFile(state.Date))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.Debug("day snapshot saved",
		zap.String("session", state.SessionID),
		zap.String("date", state.Date.Format(dateLayout)))
	return nil
}

// LoadDay restores the snapshot for exactly the given date. A snapshot whose
// recorded date disagrees with its file name is a hard error; silent
// divergence here corrupts every later day.
func (s *Store) LoadDay(sessionID string, date time.Time) (*models.SessionState, error) {
	path := filepath.Join(s.dir, sessionID, s.dayFile(date))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if !sameDay(state.Date, date) {
		return nil, fmt.Errorf("snapshot %s records date %s, expected %s",
			path, state.Date.Format(dateLayout), date.Format(dateLayout))
	}
	return &state, nil
}

func (s *Store) dayFile(date time.Time) string {
	return fmt.Sprintf("session_%s.json", date.Format(dateLayout))
}

func sameDay(a, b time.Time) bool {
	return a.Format(dateLayout) == b.Format(dateLayout)
}
