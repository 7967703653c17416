// Package negotiation is the bounded deliberation loop between the desk
// manager and its producers: decide whether to talk, talk, apply the revised
// signals, regenerate decisions, and stop on silence, no progress, or the
// hard cycle cap.
package negotiation

import (
	"context"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/analysts"
	"github.com/alphadesk/alphadesk/internal/models"
)

// StopReason records why the loop ended; it lands in the day summary.
type StopReason string

const (
	StopNoCommunication StopReason = "no_communication"
	StopNoProgress      StopReason = "no_progress"
	StopCycleCap        StopReason = "cycle_cap"
	StopDisabled        StopReason = "comm_disabled"
)

// Outcome is what one full negotiation run produced.
type Outcome struct {
	Decisions        map[models.TickerID]models.Decision
	CyclesExecuted   int
	TotalAdjustments int
	StopReason       StopReason
}

// Engine drives the state machine:
// Seed → Decide → {Stop | PrivateChat | Meeting} → Apply → Reconverge → Decide …
// It runs strictly sequentially on the orchestrating goroutine.
type Engine struct {
	manager       *Manager
	profiles      map[models.ProducerID]analysts.Profile
	maxChatRounds int
	logger        *zap.Logger
}

func NewEngine(manager *Manager, profiles []analysts.Profile, maxChatRounds int, logger *zap.Logger) *Engine {
	byID := make(map[models.ProducerID]analysts.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	if maxChatRounds <= 0 {
		maxChatRounds = 2
	}
	return &Engine{
		manager:       manager,
		profiles:      byID,
		maxChatRounds: maxChatRounds,
		logger:        logger,
	}
}

// Run seeds decisions from the current signals and loops until the manager
// stops asking, a cycle makes no progress, or maxCycles is reached. All
// signal revisions land in the state as cycle-tagged envelopes; the audit log
// receives every communication decision whatever its outcome.
func (e *Engine) Run(ctx context.Context, state *models.SessionState) Outcome {
	out := Outcome{
		Decisions:  e.manager.GenerateDecisions(ctx, state),
		StopReason: StopCycleCap,
	}
	state.Decisions = out.Decisions

	if !state.Flags.CommEnabled {
		out.StopReason = StopDisabled
		return out
	}

	maxCycles := state.Flags.MaxCycles
	if maxCycles <= 0 {
		maxCycles = 3
	}

	for cycle := 1; cycle <= maxCycles; cycle++ {
		out.CyclesExecuted = cycle

		cd := e.manager.DecideCommunication(ctx, state, cycle)
		state.CommLog.Decisions = append(state.CommLog.Decisions, cd)

		if !cd.ShouldCommunicate {
			out.StopReason = StopNoCommunication
			break
		}

		result := e.exchange(ctx, state, cd)
		e.record(state, cd, result)
		out.TotalAdjustments += result.AdjustmentsMade

		e.apply(state, cycle, result)
		out.Decisions = e.manager.GenerateDecisions(ctx, state)
		state.Decisions = out.Decisions

		// A cycle with zero adjustments is always the last cycle, even
		// when cycles remain.
		if result.AdjustmentsMade == 0 {
			out.StopReason = StopNoProgress
			break
		}
	}

	e.logger.Info("negotiation finished",
		zap.Int("cycles", out.CyclesExecuted),
		zap.Int("adjustments", out.TotalAdjustments),
		zap.String("stop_reason", string(out.StopReason)))
	return out
}

func (e *Engine) exchange(ctx context.Context, state *models.SessionState, cd models.CommunicationDecision) models.ExchangeResult {
	switch cd.Kind {
	case models.KindMeeting:
		var invited []analysts.Profile
		for _, target := range cd.Targets {
			if p, ok := e.profiles[target]; ok {
				invited = append(invited, p)
			}
		}
		return e.manager.Meeting(ctx, state, invited, cd.Topic, e.maxChatRounds)
	default:
		// One bilateral exchange per explicitly targeted producer.
		merged := models.ExchangeResult{UpdatedSignals: make(map[models.ProducerID][]models.Signal)}
		for _, target := range cd.Targets {
			p, ok := e.profiles[target]
			if !ok {
				continue
			}
			r := e.manager.PrivateChat(ctx, state, p, cd.Topic, e.maxChatRounds)
			merged.AdjustmentsMade += r.AdjustmentsMade
			if r.Rounds > merged.Rounds {
				merged.Rounds = r.Rounds
			}
			for producer, sigs := range r.UpdatedSignals {
				merged.UpdatedSignals[producer] = append(merged.UpdatedSignals[producer], sigs...)
			}
		}
		return merged
	}
}

// apply writes the revised signals under a cycle-tagged key, never
// overwriting prior history.
func (e *Engine) apply(state *models.SessionState, cycle int, result models.ExchangeResult) {
	for producer, sigs := range result.UpdatedSignals {
		for _, sig := range sigs {
			state.AppendSignal(models.SignalEnvelope{
				Producer: producer,
				CycleTag: cycle,
				Signal:   sig,
			})
		}
	}
}

func (e *Engine) record(state *models.SessionState, cd models.CommunicationDecision, result models.ExchangeResult) {
	switch cd.Kind {
	case models.KindMeeting:
		state.CommLog.Meetings = append(state.CommLog.Meetings, models.MeetingRecord{
			Cycle:        cd.Cycle,
			Participants: cd.Targets,
			Topic:        cd.Topic,
			Rounds:       result.Rounds,
			Adjustments:  result.AdjustmentsMade,
			At:           cd.Timestamp,
		})
	default:
		for _, target := range cd.Targets {
			state.CommLog.Chats = append(state.CommLog.Chats, models.ChatRecord{
				Cycle:       cd.Cycle,
				Producer:    target,
				Topic:       cd.Topic,
				Rounds:      result.Rounds,
				Adjustments: result.AdjustmentsMade,
				At:          cd.Timestamp,
			})
		}
	}
}
