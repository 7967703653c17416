package negotiation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/analysts"
	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
)

func negotiationState(maxCycles int) *models.SessionState {
	state := &models.SessionState{
		SessionID: "desk-test",
		Date:      time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		Tickers:   []models.TickerID{"AAPL", "MSFT"},
		Portfolio: models.NewPortfolio(100000, 0.5),
		Weights:   models.NewWeightState([]models.ProducerID{"technical"}),
		Flags: models.Flags{
			Mode:        models.ModeDirection,
			CommEnabled: true,
			MaxCycles:   maxCycles,
		},
		Decisions: make(map[models.TickerID]models.Decision),
	}
	state.AppendSignal(models.SignalEnvelope{
		Producer: "technical", Round: 1,
		Signal: models.Signal{Ticker: "AAPL", Direction: models.Bullish, Confidence: 60},
	})
	state.AppendSignal(models.SignalEnvelope{
		Producer: "technical", Round: 1,
		Signal: models.Signal{Ticker: "MSFT", Direction: models.Neutral, Confidence: 50},
	})
	return state
}

func newTestEngine(client oracle.Client) *Engine {
	manager := NewManager("desk_manager", client, zap.NewNop())
	return NewEngine(manager, analysts.Roster(), 2, zap.NewNop())
}

func TestRunStopsWhenManagerDeclinesAfterAdjustments(t *testing.T) {
	client := &oracle.StaticClient{Responses: []string{
		// Seed decisions.
		`{"decisions":[{"ticker":"AAPL","action":"long","confidence":60,"rationale":"initial view"}]}`,
		// Cycle 1: talk to the technical analyst.
		`{"should_communicate":true,"kind":"private_chat","topic":"conviction check","targets":["technical"],"rationale":"signals disagree"}`,
		`{"done":false,"message":"walk me through the chart again"}`,
		`{"settled":true,"note":"changed my mind","signals":[
			{"ticker":"AAPL","direction":"bearish","confidence":40,"rationale":"momentum rolled over"},
			{"ticker":"MSFT","direction":"bullish","confidence":70,"rationale":"breakout confirmed"}
		]}`,
		// Reconverge with the revised signals.
		`{"decisions":[
			{"ticker":"AAPL","action":"short","confidence":55,"rationale":"post-chat"},
			{"ticker":"MSFT","action":"long","confidence":65,"rationale":"post-chat"}
		]}`,
		// Cycle 2: nothing left to discuss.
		`{"should_communicate":false,"rationale":"desk aligned"}`,
	}}

	state := negotiationState(3)
	out := newTestEngine(client).Run(context.Background(), state)

	assert.Equal(t, 2, out.CyclesExecuted)
	assert.Equal(t, 2, out.TotalAdjustments)
	assert.Equal(t, StopNoCommunication, out.StopReason)

	// Final decisions reflect the cycle-1 revisions.
	assert.Equal(t, models.ActionShort, out.Decisions["AAPL"].Action)
	assert.Equal(t, models.ActionLong, out.Decisions["MSFT"].Action)

	// Revisions landed as cycle-tagged envelopes on top of history.
	sig, ok := state.LatestSignalFor("technical", "AAPL")
	require.True(t, ok)
	assert.Equal(t, models.Bearish, sig.Direction)
	assert.Len(t, state.Signals, 4)

	// Both communication decisions are on the audit log.
	require.Len(t, state.CommLog.Decisions, 2)
	assert.True(t, state.CommLog.Decisions[0].ShouldCommunicate)
	assert.False(t, state.CommLog.Decisions[1].ShouldCommunicate)
	require.Len(t, state.CommLog.Chats, 1)
	assert.Equal(t, 2, state.CommLog.Chats[0].Adjustments)
}

func TestRunImmediateStopLeavesSignalsUntouched(t *testing.T) {
	client := &oracle.StaticClient{Responses: []string{
		`{"decisions":[{"ticker":"AAPL","action":"long","confidence":60,"rationale":"view"}]}`,
		`{"should_communicate":false,"rationale":"no ambiguity"}`,
	}}

	state := negotiationState(3)
	before := len(state.Signals)
	out := newTestEngine(client).Run(context.Background(), state)

	assert.Equal(t, 1, out.CyclesExecuted)
	assert.Equal(t, 0, out.TotalAdjustments)
	assert.Equal(t, StopNoCommunication, out.StopReason)
	assert.Len(t, state.Signals, before)
	require.Len(t, state.CommLog.Decisions, 1)
}

func TestRunDisabledSkipsLoopEntirely(t *testing.T) {
	client := &oracle.StaticClient{Responses: []string{
		`{"decisions":[{"ticker":"AAPL","action":"long","confidence":60,"rationale":"view"}]}`,
	}}

	state := negotiationState(3)
	state.Flags.CommEnabled = false
	out := newTestEngine(client).Run(context.Background(), state)

	assert.Equal(t, 0, out.CyclesExecuted)
	assert.Equal(t, StopDisabled, out.StopReason)
	assert.Empty(t, state.CommLog.Decisions)
	assert.NotEmpty(t, out.Decisions)
}

func TestRunHitsCycleCap(t *testing.T) {
	cycle := func(confidence int) []string {
		return []string{
			`{"should_communicate":true,"kind":"private_chat","topic":"recheck","targets":["technical"],"rationale":"still torn"}`,
			`{"done":false,"message":"and now?"}`,
			fmt.Sprintf(`{"settled":true,"signals":[{"ticker":"AAPL","direction":"bullish","confidence":%d,"rationale":"revised"}]}`, confidence),
			`{"decisions":[{"ticker":"AAPL","action":"long","confidence":60,"rationale":"again"}]}`,
		}
	}

	responses := []string{
		`{"decisions":[{"ticker":"AAPL","action":"long","confidence":60,"rationale":"seed"}]}`,
	}
	responses = append(responses, cycle(65)...)
	responses = append(responses, cycle(70)...)

	client := &oracle.StaticClient{Responses: responses}
	state := negotiationState(2)
	out := newTestEngine(client).Run(context.Background(), state)

	assert.Equal(t, 2, out.CyclesExecuted)
	assert.Equal(t, 2, out.TotalAdjustments)
	assert.Equal(t, StopCycleCap, out.StopReason)
}

func TestRunStopsOnZeroAdjustmentCycle(t *testing.T) {
	client := &oracle.StaticClient{Responses: []string{
		`{"decisions":[{"ticker":"AAPL","action":"long","confidence":60,"rationale":"seed"}]}`,
		`{"should_communicate":true,"kind":"private_chat","topic":"sanity check","targets":["technical"],"rationale":"one more look"}`,
		// Manager has nothing to ask after all; chat ends without revisions.
		`{"done":true}`,
		`{"decisions":[{"ticker":"AAPL","action":"long","confidence":60,"rationale":"unchanged"}]}`,
	}}

	state := negotiationState(3)
	out := newTestEngine(client).Run(context.Background(), state)

	assert.Equal(t, 1, out.CyclesExecuted)
	assert.Equal(t, 0, out.TotalAdjustments)
	assert.Equal(t, StopNoProgress, out.StopReason)
}

func TestRunOracleExhaustedFallsBackDeterministically(t *testing.T) {
	client := &oracle.StaticClient{}

	state := negotiationState(3)
	out := newTestEngine(client).Run(context.Background(), state)

	// Weighted vote decisions plus a declined communication.
	assert.Equal(t, 1, out.CyclesExecuted)
	assert.Equal(t, StopNoCommunication, out.StopReason)
	require.Len(t, out.Decisions, 2)
	assert.Equal(t, models.ActionLong, out.Decisions["AAPL"].Action)
	assert.Equal(t, models.ActionHold, out.Decisions["MSFT"].Action)
}

func TestDecideCommunicationRejectsUnknownTargets(t *testing.T) {
	client := &oracle.StaticClient{Responses: []string{
		`{"should_communicate":true,"kind":"private_chat","topic":"chat","targets":["nobody"],"rationale":"?"}`,
	}}
	manager := NewManager("desk_manager", client, zap.NewNop())

	state := negotiationState(3)
	cd := manager.DecideCommunication(context.Background(), state, 1)
	assert.False(t, cd.ShouldCommunicate)
	assert.Contains(t, cd.Rationale, "no valid targets")
}

func TestMeetingConsolidatesAcrossProducers(t *testing.T) {
	client := &oracle.StaticClient{Responses: []string{
		`{"adjourned":true,"minutes":"quick sync","signals":{
			"technical":[{"ticker":"AAPL","direction":"bearish","confidence":45,"rationale":"agreed to trim"}]
		}}`,
	}}
	manager := NewManager("desk_manager", client, zap.NewNop())

	state := negotiationState(3)
	profiles := []analysts.Profile{{ID: "technical", Title: "Technical Analyst"}}
	result := manager.Meeting(context.Background(), state, profiles, "risk sync", 2)

	assert.Equal(t, 1, result.AdjustmentsMade)
	assert.Equal(t, 1, result.Rounds)
	require.Len(t, result.UpdatedSignals["technical"], 1)
	assert.Equal(t, models.Bearish, result.UpdatedSignals["technical"][0].Direction)
}

func TestPrivateChatRepeatedRevisionCountsOnce(t *testing.T) {
	client := &oracle.StaticClient{Responses: []string{
		`{"done":false,"message":"first pass"}`,
		`{"settled":false,"signals":[{"ticker":"AAPL","direction":"bearish","confidence":40,"rationale":"r1"}]}`,
		`{"done":false,"message":"second pass"}`,
		`{"settled":true,"signals":[{"ticker":"AAPL","direction":"bearish","confidence":40,"rationale":"r2 same"}]}`,
	}}
	manager := NewManager("desk_manager", client, zap.NewNop())

	state := negotiationState(3)
	profile := analysts.Profile{ID: "technical", Title: "Technical Analyst"}
	result := manager.PrivateChat(context.Background(), state, profile, "conviction", 3)

	// The unchanged round-two repeat does not count a second adjustment.
	assert.Equal(t, 1, result.AdjustmentsMade)
	assert.Equal(t, 2, result.Rounds)
	require.Len(t, result.UpdatedSignals["technical"], 1)
}
