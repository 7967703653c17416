package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/models"
)

const dateLayout = "2006-01-02"

// Calendar answers which dates are trading sessions. When the remote
// calendar service is unreachable it degrades to a weekday heuristic,
// which misses exchange holidays. Callers surface the degraded flag so
// the session record shows which rule produced the schedule.
type Calendar struct {
	client *resty.Client
	logger *zap.Logger
}

type calendarResponse struct {
	Dates []string `json:"dates"`
}

func NewCalendar(cfg *config.Config, logger *zap.Logger) *Calendar {
	var client *resty.Client
	if cfg.CalendarURL != "" {
		client = resty.New()
		client.SetBaseURL(cfg.CalendarURL)
		client.SetTimeout(15 * time.Second)
	}
	return &Calendar{client: client, logger: logger}
}

// TradingDays expands a window into its trading dates, oldest first.
// The second return reports whether the weekday fallback was used.
func (c *Calendar) TradingDays(window models.DateRange) ([]time.Time, bool, error) {
	if c.client != nil {
		dates, err := c.fetch(window)
		if err == nil {
			return dates, false, nil
		}
		c.logger.Warn("trading calendar unavailable, using weekday fallback",
			zap.Error(err))
	}
	return weekdayFallback(window), true, nil
}

// IsTradingDay reports whether a single date has a trading session.
func (c *Calendar) IsTradingDay(date time.Time) (bool, bool, error) {
	window := models.DateRange{Start: date, End: date}
	days, degraded, err := c.TradingDays(window)
	if err != nil {
		return false, degraded, err
	}
	return len(days) > 0, degraded, nil
}

func (c *Calendar) fetch(window models.DateRange) ([]time.Time, error) {
	resp, err := c.client.R().
		SetQueryParams(map[string]string{
			"start": window.Start.Format(dateLayout),
			"end":   window.End.Format(dateLayout),
		}).
		Get("/trading-days")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trading calendar: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("calendar API error %d: %s", resp.StatusCode(), resp.String())
	}

	var result calendarResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse calendar response: %w", err)
	}

	dates := make([]time.Time, 0, len(result.Dates))
	for _, raw := range result.Dates {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("calendar returned malformed date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func weekdayFallback(window models.DateRange) []time.Time {
	var dates []time.Time
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
	}
	return dates
}
