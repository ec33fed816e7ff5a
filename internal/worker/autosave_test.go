package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSaver struct {
	loggedIn atomic.Bool
	saves    atomic.Int32
	err      error
}

func (s *countingSaver) IsLoggedIn() bool { return s.loggedIn.Load() }

func (s *countingSaver) Save() error {
	s.saves.Add(1)
	return s.err
}

func TestTickSkipsWhenLoggedOut(t *testing.T) {
	s := &countingSaver{}
	a := NewAutosaver(s, time.Minute, nil)

	if a.Tick() {
		t.Fatal("expected tick to be skipped")
	}
	if got := s.saves.Load(); got != 0 {
		t.Fatalf("saves = %d, want 0", got)
	}

	s.loggedIn.Store(true)
	if !a.Tick() {
		t.Fatal("expected tick to save")
	}
	if got := s.saves.Load(); got != 1 {
		t.Fatalf("saves = %d, want 1", got)
	}
}

func TestTickSwallowsSaveError(t *testing.T) {
	s := &countingSaver{err: errors.New("quota exceeded")}
	s.loggedIn.Store(true)
	a := NewAutosaver(s, time.Minute, nil)

	if !a.Tick() {
		t.Fatal("failed save still counts as attempted")
	}
}

func TestStartStop(t *testing.T) {
	s := &countingSaver{}
	a := NewAutosaver(s, time.Hour, nil)

	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := a.Start(); err == nil {
		t.Fatal("expected second start to fail")
	}
	if next := a.Next(); next.IsZero() || next.Before(time.Now()) {
		t.Fatalf("unexpected next run %v", next)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !a.Next().IsZero() {
		t.Fatal("expected zero next run after stop")
	}
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestStartRejectsShortInterval(t *testing.T) {
	a := NewAutosaver(&countingSaver{}, 10*time.Millisecond, nil)
	if err := a.Start(); err == nil {
		t.Fatal("expected error")
	}
}
