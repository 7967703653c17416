// Package scheduler drives multi-day deliberation runs: one trading day at a
// time through coordinator, negotiation and ledger, with persistence between
// days and a periodic reputation pass over producers.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/analysts"
	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/coordinator"
	"github.com/alphadesk/alphadesk/internal/ledger"
	"github.com/alphadesk/alphadesk/internal/marketdata"
	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/negotiation"
	"github.com/alphadesk/alphadesk/internal/oracle"
	"github.com/alphadesk/alphadesk/internal/store"
)

// Publisher receives outward events for the live feed. The scheduler never
// blocks on it; implementations must absorb slow consumers themselves.
type Publisher interface {
	Publish(event models.Event)
}

// NopPublisher drops every event. Used when the feed server is not running.
type NopPublisher struct{}

func (NopPublisher) Publish(models.Event) {}

// Scheduler runs a session across a trading calendar.
type Scheduler struct {
	cfg       *config.Config
	provider  marketdata.Provider
	calendar  *marketdata.Calendar
	store     *store.Store
	registry  *Registry
	pool      *coordinator.Pool
	engine    *negotiation.Engine
	ledger    *ledger.Ledger
	publisher Publisher
	logger    *zap.Logger
}

// New wires a scheduler with the default analyst roster and desk manager.
func New(cfg *config.Config, client oracle.Client, provider marketdata.Provider, calendar *marketdata.Calendar, st *store.Store, logger *zap.Logger) *Scheduler {
	registry := NewRegistry()
	for _, profile := range analysts.Roster() {
		registry.Register(profile, analysts.New(profile, client, registry.Board(), logger))
	}

	mode := models.Mode(cfg.Mode)
	manager := negotiation.NewManager("desk_manager", client, logger)

	return &Scheduler{
		cfg:       cfg,
		provider:  provider,
		calendar:  calendar,
		store:     st,
		registry:  registry,
		pool:      coordinator.NewPool(cfg.WorkerPoolSize, logger),
		engine:    negotiation.NewEngine(manager, registry.Profiles(), cfg.MaxChatRounds, logger),
		ledger:    ledger.New(mode, logger),
		publisher: NopPublisher{},
		logger:    logger,
	}
}

// SetPublisher attaches a live feed. Call before Run.
func (s *Scheduler) SetPublisher(p Publisher) {
	if p != nil {
		s.publisher = p
	}
}

// Registry exposes the producer roster, mainly for the feed snapshot.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// TradingDates expands [start, end] into trading sessions. The second return
// reports the degraded weekday fallback.
func (s *Scheduler) TradingDates(start, end time.Time) ([]time.Time, bool, error) {
	if end.Before(start) {
		return nil, false, fmt.Errorf("end date %s precedes start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return s.calendar.TradingDays(models.DateRange{Start: start, End: end})
}

// Run executes every trading day in [start, end] and returns the session
// summary. Individual day failures mark the day and continue; only a broken
// calendar or a poisoned snapshot aborts the run.
func (s *Scheduler) Run(ctx context.Context, sessionID string, tickers []models.TickerID, start, end time.Time) (*store.Summary, error) {
	if len(tickers) == 0 {
		return nil, errors.New("no tickers to deliberate on")
	}

	dates, degraded, err := s.TradingDates(start, end)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no trading sessions between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if degraded {
		s.logger.Warn("running on weekday-fallback calendar, exchange holidays not excluded")
	}

	summary := &store.Summary{
		SessionID: sessionID,
		Tickers:   tickers,
		Mode:      models.Mode(s.cfg.Mode),
	}

	prev, err := s.restoreBefore(sessionID, dates[0])
	if err != nil {
		return nil, err
	}

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		state := s.seedDay(sessionID, tickers, date, prev)
		day := s.runDay(ctx, state, prev)
		day.CalendarDegraded = degraded
		summary.Days = append(summary.Days, day)

		if err := s.store.SaveDay(state); err != nil {
			s.logger.Error("day snapshot not persisted, next day will cold-start",
				zap.String("date", date.Format("2006-01-02")), zap.Error(err))
		}
		if err := s.store.SaveSummary(*summary); err != nil {
			s.logger.Error("summary not persisted", zap.Error(err))
		}

		// The next day seeds from the persisted snapshot only; in-memory
		// state never crosses a day boundary.
		prev, err = s.reloadDay(sessionID, date)
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// reloadDay reads back the snapshot just written. When the save failed the
// read misses and the next day cold-starts, exactly as a restart would.
func (s *Scheduler) reloadDay(sessionID string, date time.Time) (*models.SessionState, error) {
	state, err := s.store.LoadDay(sessionID, date)
	if errors.Is(err, store.ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", date.Format("2006-01-02"), err)
	}
	return state, nil
}

// restoreBefore loads the snapshot of the trading day immediately before
// date, if this session persisted one. A missing snapshot is a cold start.
func (s *Scheduler) restoreBefore(sessionID string, date time.Time) (*models.SessionState, error) {
	window := models.DateRange{Start: date.AddDate(0, 0, -14), End: date.AddDate(0, 0, -1)}
	days, _, err := s.calendar.TradingDays(window)
	if err != nil || len(days) == 0 {
		return nil, nil
	}
	priorDate := days[len(days)-1]

	state, err := s.store.LoadDay(sessionID, priorDate)
	if errors.Is(err, store.ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", priorDate.Format("2006-01-02"), err)
	}
	s.logger.Info("restored prior session state",
		zap.String("date", priorDate.Format("2006-01-02")))
	return state, nil
}

// seedDay builds the day's starting state: fresh on day one, otherwise
// carrying cash, positions, weights and communication history forward.
// Signals always start empty; each day deliberates from scratch.
func (s *Scheduler) seedDay(sessionID string, tickers []models.TickerID, date time.Time, prev *models.SessionState) *models.SessionState {
	state := &models.SessionState{
		SessionID: sessionID,
		Date:      date,
		Tickers:   append([]models.TickerID(nil), tickers...),
		Window: models.DateRange{
			Start: date.AddDate(0, 0, -s.cfg.LookbackDays),
			End:   date,
		},
		Flags: models.Flags{
			Mode:          models.Mode(s.cfg.Mode),
			CommEnabled:   s.cfg.CommEnabled,
			NotifyEnabled: s.cfg.NotifyEnabled,
			MaxCycles:     s.cfg.MaxCycles,
		},
		Decisions: make(map[models.TickerID]models.Decision),
	}
	if prev != nil {
		state.SessionIndex = prev.SessionIndex + 1
		state.Portfolio = prev.Portfolio.Clone()
		state.Weights = prev.Weights.Clone()
		state.CommLog = prev.CommLog.Clone()
	} else {
		state.SessionIndex = 1
		state.Portfolio = models.NewPortfolio(s.cfg.InitialCash, s.cfg.MarginRequirement)
		state.Weights = models.NewWeightState(s.registry.IDs())
	}
	return state
}

// dayData is the market view prefetched for one session.
type dayData struct {
	briefs  map[models.TickerID]string
	closes  map[models.TickerID][]float64
	last    map[models.TickerID]float64
	returns map[models.TickerID]float64
}

func (s *Scheduler) fetchDayData(state *models.SessionState) dayData {
	d := dayData{
		briefs:  make(map[models.TickerID]string, len(state.Tickers)),
		closes:  make(map[models.TickerID][]float64, len(state.Tickers)),
		last:    make(map[models.TickerID]float64, len(state.Tickers)),
		returns: make(map[models.TickerID]float64, len(state.Tickers)),
	}
	for _, t := range state.Tickers {
		bars, err := s.provider.Prices(t, state.Window)
		if err != nil {
			s.logger.Warn("price fetch failed",
				zap.String("ticker", string(t)), zap.Error(err))
			continue
		}
		closes := marketdata.Closes(bars)
		d.briefs[t] = marketdata.FormatBrief(bars)
		d.closes[t] = closes
		d.last[t] = marketdata.LastClose(bars)
		if n := len(closes); n >= 2 && closes[n-2] > 0 {
			d.returns[t] = (closes[n-1] - closes[n-2]) / closes[n-2]
		}
	}
	return d
}

// runDay executes one full trading day over the prepared state and returns
// its summary line. The state is mutated in place and holds the final
// signals, decisions, portfolio and status when this returns.
func (s *Scheduler) runDay(ctx context.Context, state *models.SessionState, prev *models.SessionState) store.DaySummary {
	date := state.Date
	s.logger.Info("trading day start",
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("session", state.SessionIndex))
	s.publisher.Publish(models.NewEvent(models.EventDayStart, map[string]any{
		"date":    date.Format("2006-01-02"),
		"session": state.SessionIndex,
	}))

	data := s.fetchDayData(state)

	// Score yesterday's calls against today's realized returns before any
	// new signal lands, then run the cadence passes. Cadences key off the
	// persisted session counter so they hold across restarts.
	recordAccuracy(prev, data.returns, state.Weights)
	if s.cfg.WeightCadence > 0 && state.SessionIndex%s.cfg.WeightCadence == 0 {
		recomputeWeights(state.Weights, s.registry.IDs(), s.logger)
	}
	if s.cfg.RotationCadence > 0 && state.SessionIndex%s.cfg.RotationCadence == 0 {
		rotateWorst(state.Weights, s.registry.IDs(), s.logger)
	}

	s.registry.Board().Reset()
	failed := s.analysisRounds(ctx, state, data)

	outcome := s.engine.Run(ctx, state)
	state.Decisions = outcome.Decisions

	account := state.Portfolio.TotalValue(data.last)
	maxShares := ledger.MaxShares(ledger.DefaultRiskConfig(s.cfg.RiskFraction), account, data.closes, data.last)
	pf, report := s.ledger.Execute(state.Decisions, data.last, maxShares, state.Portfolio, date)
	state.Portfolio = pf

	switch {
	case report.Status == ledger.StatusSkipped:
		state.Status = models.DaySkipped
	case len(failed) > 0:
		state.Status = models.DayPartial
	default:
		state.Status = models.DayComplete
	}

	s.publishDayEnd(state, report)
	s.logger.Info("trading day complete",
		zap.String("date", date.Format("2006-01-02")),
		zap.String("status", string(state.Status)),
		zap.Int("cycles", outcome.CyclesExecuted),
		zap.String("stop", string(outcome.StopReason)),
		zap.Float64("cash", state.Portfolio.Cash))

	return store.DaySummary{
		Date:            date.Format("2006-01-02"),
		Status:          state.Status,
		Cycles:          outcome.CyclesExecuted,
		Adjustments:     outcome.TotalAdjustments,
		StopReason:      string(outcome.StopReason),
		LedgerStatus:    string(report.Status),
		Cash:            state.Portfolio.Cash,
		RealizedTotal:   state.Portfolio.TotalRealized(),
		FailedProducers: failed,
	}
}

// analysisRounds runs the first coordinator round and, when configured, a
// second round fed with the first round's consolidated view and any posted
// notices. Returns the producers that failed in either round.
func (s *Scheduler) analysisRounds(ctx context.Context, state *models.SessionState, data dayData) []string {
	day := analysts.DayContext{MarketBrief: data.briefs}

	failedSet := make(map[string]bool)
	s.runRound(ctx, state, day, 1, failedSet)

	if s.cfg.SecondRound {
		day.RoundOneSummary = roundOneSummary(state)
		if state.Flags.NotifyEnabled {
			day.Notices = s.registry.Board().Snapshot()
			s.publishNotices(day.Notices)
		}
		s.runRound(ctx, state, day, 2, failedSet)
	}

	failed := make([]string, 0, len(failedSet))
	for _, id := range s.registry.IDs() {
		if failedSet[string(id)] {
			failed = append(failed, string(id))
		}
	}
	return failed
}

func (s *Scheduler) runRound(ctx context.Context, state *models.SessionState, day analysts.DayContext, round int, failedSet map[string]bool) {
	tasks := make(map[coordinator.TaskID]coordinator.TaskFunc)
	for _, a := range s.registry.Producers() {
		tasks[coordinator.TaskID(a.ID())] = a.Task(day, round)
	}
	results := s.pool.RunParallel(ctx, state, tasks)
	coordinator.MergeResults(state, round, results)
	for id, res := range results {
		if res.Status == coordinator.StatusError {
			failedSet[string(id)] = true
		}
	}
}

// roundOneSummary renders the first round's consolidated signal view for
// the second-round prompt.
func roundOneSummary(state *models.SessionState) string {
	var b strings.Builder
	for _, t := range state.Tickers {
		signals := state.SignalsFor(t)
		if len(signals) == 0 {
			continue
		}
		b.WriteString(string(t) + ":")
		for _, p := range state.Producers() {
			sig, ok := signals[p]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, " %s=%s/%d", p, sig.Direction, sig.Confidence)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Scheduler) publishNotices(notices []models.Notice) {
	for _, n := range notices {
		s.publisher.Publish(models.NewEvent(models.EventProducerMessage, n))
	}
}

func (s *Scheduler) publishDayEnd(state *models.SessionState, report ledger.Report) {
	s.publisher.Publish(models.NewEvent(models.EventPortfolio, state.Portfolio))
	s.publisher.Publish(models.NewEvent(models.EventDayComplete, map[string]any{
		"date":          state.Date.Format("2006-01-02"),
		"status":        state.Status,
		"ledger_status": report.Status,
		"decisions":     state.Decisions,
	}))
}
