// Package scheduler re-asks configured questions on cron schedules and
// reports when an answer changes between runs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"go.uber.org/zap"
)

// DefaultTick is how often due jobs are checked.
const DefaultTick = 30 * time.Second

type Asker interface {
	Ask(ctx context.Context, query string, opts app.AskOptions) (app.Answer, error)
}

type job struct {
	name  string
	query string
	cron  string
	expr  *cronexpr.Expression
	next  time.Time
	last  helpers.AnswerSnapshot
}

// Outcome describes one job execution.
type Outcome struct {
	Job    string
	RunID  string
	State  string
	Change helpers.AnswerChange
	Err    error
}

type Scheduler struct {
	mu     sync.Mutex
	jobs   []*job
	asker  Asker
	logger *zap.Logger
	tick   time.Duration
	now    func() time.Time
}

// New parses every job's cron expression. Jobs are first due at their next
// cron time after start.
func New(jobs []config.ScheduleJob, asker Asker, start time.Time, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{asker: asker, logger: logger, tick: DefaultTick, now: time.Now}
	for _, j := range jobs {
		expr, err := cronexpr.Parse(j.Cron)
		if err != nil {
			return nil, fmt.Errorf("job %q: invalid cron %q: %w", j.Name, j.Cron, err)
		}
		next := expr.Next(start)
		if next.IsZero() {
			return nil, fmt.Errorf("job %q: cron %q never fires", j.Name, j.Cron)
		}
		s.jobs = append(s.jobs, &job{name: j.Name, query: j.Query, cron: j.Cron, expr: expr, next: next})
	}
	return s, nil
}

// Next reports when the named job runs next.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.name == name {
			return j.next, true
		}
	}
	return time.Time{}, false
}

// Run checks for due jobs every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		s.logger.Warn("no scheduled jobs configured")
	}
	for _, j := range s.jobs {
		s.logger.Info("job scheduled", zap.String("job", j.name), zap.String("cron", j.cron), zap.Time("next", j.next))
	}
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunDue(ctx, s.now())
		}
	}
}

// RunDue executes, one at a time, every job whose next fire time is not
// after now, then advances it past now.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) []Outcome {
	s.mu.Lock()
	var due []*job
	for _, j := range s.jobs {
		if !j.next.After(now) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	var out []Outcome
	for _, j := range due {
		if ctx.Err() != nil {
			break
		}
		out = append(out, s.execute(ctx, j, now))
		s.mu.Lock()
		j.next = j.expr.Next(now)
		s.mu.Unlock()
	}
	return out
}

// RunAll executes every job immediately without touching the schedule.
func (s *Scheduler) RunAll(ctx context.Context) []Outcome {
	s.mu.Lock()
	jobs := append([]*job(nil), s.jobs...)
	s.mu.Unlock()
	var out []Outcome
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		out = append(out, s.execute(ctx, j, s.now()))
	}
	return out
}

func (s *Scheduler) execute(ctx context.Context, j *job, at time.Time) Outcome {
	log := s.logger.With(zap.String("job", j.name))
	ans, err := s.asker.Ask(ctx, j.query, app.AskOptions{})
	if err != nil {
		log.Error("scheduled research failed", zap.Error(err))
		return Outcome{Job: j.name, Err: err}
	}
	r := ans.Result

	s.mu.Lock()
	change := helpers.CompareAnswer(j.last, r.FinalAnswer, at)
	j.last = helpers.AnswerSnapshot{Hash: change.CurrentHash, At: at}
	s.mu.Unlock()

	fields := []zap.Field{zap.String("run_id", r.ID), zap.String("state", string(r.State)), zap.Any("files", ans.Files)}
	switch {
	case change.FirstRun:
		log.Info("scheduled research completed", fields...)
	case change.Changed:
		log.Info("answer changed since last run", append(fields, zap.Duration("since", change.Since))...)
	default:
		log.Info("answer unchanged", fields...)
	}
	return Outcome{Job: j.name, RunID: r.ID, State: string(r.State), Change: change}
}
