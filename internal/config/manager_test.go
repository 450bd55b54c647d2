package config

import (
	"os"
	"testing"
	"time"
)

func TestReloadPublishesAcceptedConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
discord:
  public_key: "`+testKey+`"
  bot_token: "tok"
sheets:
  spreadsheet_id: "sheet"
broadcast:
  workers: 2
`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	next := `
discord:
  public_key: "` + testKey + `"
  bot_token: "tok"
sheets:
  spreadsheet_id: "sheet"
broadcast:
  workers: 8
`
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	m.reload()

	select {
	case cfg := <-sub:
		if cfg.Broadcast.Workers != 8 {
			t.Fatalf("workers = %d, want 8", cfg.Broadcast.Workers)
		}
	case <-time.After(time.Second):
		t.Fatal("no config published")
	}
	if m.Get().Broadcast.Workers != 8 {
		t.Fatal("reload did not commit")
	}
}

func TestReloadKeepsPreviousOnInvalid(t *testing.T) {
	path := writeFile(t, "config.yaml", `
discord:
  public_key: "`+testKey+`"
  bot_token: "tok"
sheets:
  spreadsheet_id: "sheet"
`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	// Public key missing: validation must reject, keeping the old config.
	if err := os.WriteFile(path, []byte(`
discord:
  bot_token: "tok"
sheets:
  spreadsheet_id: "sheet"
`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	m.reload()

	select {
	case cfg := <-sub:
		t.Fatalf("rejected config was published: %+v", cfg)
	case <-time.After(100 * time.Millisecond):
	}
	if m.Get().Discord.PublicKey != testKey {
		t.Fatal("previous config lost")
	}
}

func TestReloadSkipsUnchanged(t *testing.T) {
	path := writeFile(t, "config.yaml", `
discord:
  public_key: "`+testKey+`"
  bot_token: "tok"
sheets:
  spreadsheet_id: "sheet"
`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	// Same bytes on disk: an editor-triggered event without content change.
	m.reload()

	select {
	case <-sub:
		t.Fatal("unchanged config was republished")
	case <-time.After(100 * time.Millisecond):
	}
}
