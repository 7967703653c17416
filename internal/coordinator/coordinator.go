// Package coordinator fans independent producer tasks out over a bounded
// worker pool and funnels their results back to the orchestrating goroutine.
// Tasks see isolated session clones; all merging is sequential.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
)

type TaskID string

// Status classifies one task outcome. The output map always has exactly one
// entry per submitted task, whatever happened inside it.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
	StatusNoResult Status = "no_result"
)

// Result is one task's structured outcome. A task error never aborts its
// siblings; it becomes StatusError here.
type Result struct {
	Status  Status
	Signals []models.Signal
	Err     error
}

// TaskFunc is one producer's analysis pass. It receives a structural copy of
// the session, so it can read nested state freely without racing siblings.
type TaskFunc func(ctx context.Context, state *models.SessionState) ([]models.Signal, error)

// Pool is a fixed-width worker pool. Width is independent of task count.
type Pool struct {
	width  int
	logger *zap.Logger
}

func NewPool(width int, logger *zap.Logger) *Pool {
	if width <= 0 {
		width = 4
	}
	return &Pool{width: width, logger: logger}
}

// RunParallel executes all tasks and returns one Result per TaskID. Results
// are collected as tasks complete, not in submission order. The canonical
// state passed in is never written here; callers merge via MergeResults.
func (p *Pool) RunParallel(ctx context.Context, state *models.SessionState, tasks map[TaskID]TaskFunc) map[TaskID]Result {
	type keyed struct {
		id  TaskID
		res Result
	}

	jobs := make(chan TaskID)
	done := make(chan keyed, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.width; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				started := time.Now()
				res := p.runOne(ctx, tasks[id], state.Clone())
				p.logger.Debug("producer task finished",
					zap.String("task", string(id)),
					zap.String("status", string(res.Status)),
					zap.Duration("took", time.Since(started)))
				done <- keyed{id: id, res: res}
			}
		}()
	}

	for id := range tasks {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	close(done)

	results := make(map[TaskID]Result, len(tasks))
	for k := range done {
		results[k.id] = k.res
	}
	return results
}

func (p *Pool) runOne(ctx context.Context, fn TaskFunc, snapshot *models.SessionState) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: StatusError, Err: fmt.Errorf("task panicked: %v", r)}
		}
	}()

	signals, err := fn(ctx, snapshot)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	if len(signals) == 0 {
		return Result{Status: StatusNoResult}
	}
	return Result{Status: StatusSuccess, Signals: signals}
}

// MergeResults applies successful task outputs to the canonical state,
// strictly sequentially, one envelope per signal under the task's producer
// key. Only the orchestrating goroutine calls this.
func MergeResults(state *models.SessionState, round int, results map[TaskID]Result) {
	for id, res := range results {
		if res.Status != StatusSuccess {
			continue
		}
		for _, sig := range res.Signals {
			state.AppendSignal(models.SignalEnvelope{
				Producer: models.ProducerID(id),
				Round:    round,
				Signal:   sig,
			})
		}
	}
}
