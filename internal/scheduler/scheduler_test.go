package scheduler

import (
	"context"
	"testing"
	"time"

	logx "weeklybot/pkg/logx"
)

func TestStartDisabledIsNoop(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, func(context.Context) {}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}

func TestStartRejectsBadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty spec", cfg: Config{Enabled: true}},
		{name: "bad spec", cfg: Config{Enabled: true, Spec: "every tuesday"}},
		{name: "bad timezone", cfg: Config{Enabled: true, Spec: "0 8 * * 1", Timezone: "Mars/Olympus"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New(tt.cfg, func(context.Context) {}, logx.Nop())
			if err := s.Start(context.Background()); err == nil {
				s.Stop()
				t.Fatal("expected error")
			}
		})
	}
}

func TestScheduledJobFires(t *testing.T) {
	t.Parallel()
	fired := make(chan struct{}, 4)
	// @every is accepted via the descriptor parser; a sub-second interval
	// keeps this test fast.
	s := New(Config{Enabled: true, Spec: "@every 100ms"}, func(context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, logx.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job never fired")
	}
}

func TestApplyDisables(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Spec: "@every 1h"}, func(context.Context) {}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Apply(context.Background(), Config{Enabled: false}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Stop after disable must be safe.
	s.Stop()
}
