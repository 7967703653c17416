package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alphadesk/alphadesk/internal/models"
)

// DaySummary is one trading day's line in the session summary.
type DaySummary struct {
	Date             string           `json:"date"`
	Status           models.DayStatus `json:"status"`
	CalendarDegraded bool             `json:"calendar_degraded,omitempty"`
	Cycles           int              `json:"cycles"`
	Adjustments      int              `json:"adjustments"`
	StopReason       string           `json:"stop_reason"`
	LedgerStatus     string           `json:"ledger_status"`
	Cash             float64          `json:"cash"`
	RealizedTotal    float64          `json:"realized_total"`
	FailedProducers  []string         `json:"failed_producers,omitempty"`
}

// Summary aggregates all days of one session run.
type Summary struct {
	SessionID string            `json:"session_id"`
	Tickers   []models.TickerID `json:"tickers"`
	Mode      models.Mode       `json:"mode"`
	Days      []DaySummary      `json:"days"`
}

// SaveSummary rewrites the whole summary document for the session.
func (s *Store) SaveSummary(summary Summary) error {
	dir := filepath.Join(s.dir, summary.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	final := filepath.Join(dir, "summary.json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return os.Rename(tmp, final)
}

// LoadSummary reads the session summary if present.
func (s *Store) LoadSummary(sessionID string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, sessionID, "summary.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}
