package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/models"
)

type scriptedAsker struct {
	answers []string
	calls   []string
	err     error
}

func (a *scriptedAsker) Ask(_ context.Context, query string, _ app.AskOptions) (app.Answer, error) {
	a.calls = append(a.calls, query)
	if a.err != nil {
		return app.Answer{}, a.err
	}
	answer := a.answers[0]
	if len(a.answers) > 1 {
		a.answers = a.answers[1:]
	}
	return app.Answer{Result: models.ResearchResult{ID: "run", Query: query, State: models.StateDone, FinalAnswer: answer}}, nil
}

func TestNewRejectsBadCron(t *testing.T) {
	t.Parallel()
	_, err := New([]config.ScheduleJob{{Name: "bad", Query: "q", Cron: "not a cron"}}, &scriptedAsker{}, time.Now(), nil)
	if err == nil {
		t.Fatalf("expected error for invalid cron")
	}
}

func TestRunDueFiresAndAdvances(t *testing.T) {
	t.Parallel()
	start := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	asker := &scriptedAsker{answers: []string{"open 9-5", "open 9-5", "open 8-6"}}
	s, err := New([]config.ScheduleJob{
		{Name: "hourly", Query: "library hours", Cron: "0 * * * *"},
		{Name: "daily", Query: "dining", Cron: "@daily"},
	}, asker, start, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	next, ok := s.Next("hourly")
	if !ok || !next.Equal(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first fire time %v", next)
	}

	if out := s.RunDue(context.Background(), start.Add(10*time.Minute)); len(out) != 0 {
		t.Fatalf("nothing should be due yet, got %+v", out)
	}

	out := s.RunDue(context.Background(), time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	if len(out) != 1 || out[0].Job != "hourly" || !out[0].Change.FirstRun {
		t.Fatalf("unexpected first outcome %+v", out)
	}
	if next, _ := s.Next("hourly"); !next.Equal(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("schedule not advanced: %v", next)
	}

	out = s.RunDue(context.Background(), time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	if len(out) != 1 || out[0].Change.Changed {
		t.Fatalf("same answer should be unchanged: %+v", out)
	}
	out = s.RunDue(context.Background(), time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC))
	if len(out) != 1 || !out[0].Change.Changed || out[0].Change.Since != time.Hour {
		t.Fatalf("new answer should be reported as changed: %+v", out)
	}
	if len(asker.calls) != 3 || asker.calls[0] != "library hours" {
		t.Fatalf("unexpected calls %v", asker.calls)
	}
}

func TestRunAllReportsErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s, err := New([]config.ScheduleJob{{Name: "a", Query: "q", Cron: "@hourly"}}, &scriptedAsker{err: boom}, time.Now(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out := s.RunAll(context.Background())
	if len(out) != 1 || !errors.Is(out[0].Err, boom) {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	s, err := New(nil, &scriptedAsker{}, time.Now(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.tick = 5 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}
