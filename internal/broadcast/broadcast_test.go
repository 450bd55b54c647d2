package broadcast

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"weeklybot/internal/content"
	"weeklybot/internal/storage"
	logx "weeklybot/pkg/logx"
)

type fakeSource struct {
	text string
	err  error
}

func (f *fakeSource) Fetch(context.Context) (string, error) { return f.text, f.err }

type fakeSink struct {
	mu      sync.Mutex
	sent    map[string]string // channelID -> body
	failFor map[string]error  // channelID -> error
}

func newFakeSink() *fakeSink {
	return &fakeSink{sent: map[string]string{}, failFor: map[string]error{}}
}

func (f *fakeSink) Send(_ context.Context, channelID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[channelID]; err != nil {
		return err
	}
	f.sent[channelID] = body
	return nil
}

func seedStore(t *testing.T, rows ...storage.TenantConfig) *storage.Memory {
	t.Helper()
	st := storage.NewMemory()
	for _, r := range rows {
		if err := st.Upsert(context.Background(), r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return st
}

func TestRunSkipFailSucceed(t *testing.T) {
	t.Parallel()
	st := seedStore(t,
		storage.TenantConfig{GuildID: "g1", ChannelID: "c1", ShowBossBattle: true},
		storage.TenantConfig{GuildID: "g2", ChannelID: "", ShowBossBattle: true},
		storage.TenantConfig{GuildID: "g3", ChannelID: "c3", ShowBossBattle: false},
	)
	snk := newFakeSink()
	snk.failFor["c1"] = errors.New("channel deleted")

	c := New(Config{}, st, &fakeSource{text: "boss text"}, snk, logx.Nop())
	out, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Attempted != 2 {
		t.Fatalf("Attempted = %d, want 2 (g2 is skipped, not attempted)", out.Attempted)
	}
	if out.Succeeded != 1 {
		t.Fatalf("Succeeded = %d, want 1", out.Succeeded)
	}
	if out.Failed() != 1 || out.Failures[0].GuildID != "g1" {
		t.Fatalf("Failures = %+v", out.Failures)
	}
	if out.Failures[0].Err == nil {
		t.Fatal("failure must carry a reason")
	}

	if _, ok := snk.sent["c3"]; !ok {
		t.Fatal("g3 should have been delivered despite g1 failing")
	}
	if body := snk.sent["c3"]; strings.Contains(body, "boss text") {
		t.Fatalf("g3 has boss section disabled, body = %q", body)
	}
}

func TestRunFailureIsolation(t *testing.T) {
	t.Parallel()
	rows := []storage.TenantConfig{
		{GuildID: "g1", ChannelID: "c1", ShowBossBattle: true},
		{GuildID: "g2", ChannelID: "c2", ShowBossBattle: true},
		{GuildID: "g3", ChannelID: "c3", ShowBossBattle: true},
		{GuildID: "g4", ChannelID: "c4", ShowBossBattle: true},
		{GuildID: "g5", ChannelID: "c5", ShowBossBattle: true},
	}
	st := seedStore(t, rows...)
	snk := newFakeSink()
	snk.failFor["c2"] = errors.New("missing access")
	snk.failFor["c4"] = errors.New("rate limited")

	c := New(Config{Workers: 3, RatePerSec: 1000}, st, &fakeSource{text: "x"}, snk, logx.Nop())
	out, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Attempted != 5 || out.Succeeded != 3 || out.Failed() != 2 {
		t.Fatalf("outcome = %+v", out)
	}
	// Failures come back in store order regardless of worker interleaving.
	if out.Failures[0].GuildID != "g2" || out.Failures[1].GuildID != "g4" {
		t.Fatalf("Failures = %+v", out.Failures)
	}
	for _, ch := range []string{"c1", "c3", "c5"} {
		if _, ok := snk.sent[ch]; !ok {
			t.Fatalf("%s not delivered; a failing guild blocked others", ch)
		}
	}
}

func TestRunContentFallback(t *testing.T) {
	t.Parallel()
	st := seedStore(t,
		storage.TenantConfig{GuildID: "g1", ChannelID: "c1", ShowBossBattle: true},
		storage.TenantConfig{GuildID: "g2", ChannelID: "c2", ShowBossBattle: true},
	)
	snk := newFakeSink()

	c := New(Config{}, st, &fakeSource{err: errors.New("sheets down")}, snk, logx.Nop())
	out, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run must not fail on content errors: %v", err)
	}
	if out.Succeeded != 2 {
		t.Fatalf("Succeeded = %d", out.Succeeded)
	}
	for ch, body := range snk.sent {
		if !strings.Contains(body, content.Fallback) {
			t.Fatalf("%s body %q missing fallback text", ch, body)
		}
	}
}

func TestRunReadAllFailureIsFatal(t *testing.T) {
	t.Parallel()
	st := storage.NewMemory()
	st.FailReadAll = errors.New("db locked")
	snk := newFakeSink()

	c := New(Config{}, st, &fakeSource{text: "x"}, snk, logx.Nop())
	out, err := c.Run(context.Background())
	if err == nil {
		t.Fatal("expected fatal error when the config read fails")
	}
	if out.Attempted != 0 || len(snk.sent) != 0 {
		t.Fatalf("no deliveries may be attempted, outcome = %+v sent = %v", out, snk.sent)
	}
}

func TestRunBodyComposition(t *testing.T) {
	t.Parallel()
	st := seedStore(t,
		storage.TenantConfig{GuildID: "g1", ChannelID: "c1", ShowBossBattle: true},
		storage.TenantConfig{GuildID: "g2", ChannelID: "c2", ShowBossBattle: false},
	)
	snk := newFakeSink()

	c := New(Config{Template: "base text"}, st, &fakeSource{text: "boss info"}, snk, logx.Nop())
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	withBoss := snk.sent["c1"]
	if !strings.HasPrefix(withBoss, "base text") || !strings.Contains(withBoss, "boss info") {
		t.Fatalf("c1 body = %q", withBoss)
	}
	if !strings.Contains(withBoss, "Weekly Boss Battle") {
		t.Fatalf("c1 body missing section header: %q", withBoss)
	}
	if got := snk.sent["c2"]; got != "base text" {
		t.Fatalf("c2 body = %q, want bare template", got)
	}
}

func TestRunEmptyStore(t *testing.T) {
	t.Parallel()
	c := New(Config{}, storage.NewMemory(), &fakeSource{text: "x"}, newFakeSink(), logx.Nop())
	out, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Attempted != 0 || out.Succeeded != 0 || out.Failed() != 0 {
		t.Fatalf("outcome = %+v", out)
	}
}
