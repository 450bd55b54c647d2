package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logx "weeklybot/pkg/logx"
)

func newDiscord(t *testing.T, handler http.HandlerFunc) *Discord {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewDiscord(DiscordConfig{
		BotToken:      "bot-token",
		ApplicationID: "app1",
		APIBase:       ts.URL,
	}, logx.Nop())
}

func TestSend(t *testing.T) {
	t.Parallel()
	var gotPath, gotAuth, gotContent string
	d := newDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var payload struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotContent = payload.Content
		w.WriteHeader(http.StatusOK)
	})

	if err := d.Send(context.Background(), "c123", "hello there"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/channels/c123/messages" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bot bot-token" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotContent != "hello there" {
		t.Fatalf("content = %q", gotContent)
	}
}

func TestSendFailureStatus(t *testing.T) {
	t.Parallel()
	d := newDiscord(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Missing Access","code":50001}`, http.StatusForbidden)
	})

	err := d.Send(context.Background(), "c123", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	var se *SendError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not *SendError", err)
	}
	if se.Status != http.StatusForbidden {
		t.Fatalf("Status = %d", se.Status)
	}
	if !strings.Contains(se.Detail, "Missing Access") {
		t.Fatalf("Detail = %q", se.Detail)
	}
}

func TestRegisterCommands(t *testing.T) {
	t.Parallel()
	var gotMethod, gotPath string
	var payload []map[string]any
	d := newDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	})

	if err := d.RegisterCommands(context.Background()); err != nil {
		t.Fatalf("RegisterCommands: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/applications/app1/commands" {
		t.Fatalf("%s %s", gotMethod, gotPath)
	}
	if len(payload) != 1 || payload[0]["name"] != "configure" {
		t.Fatalf("payload = %+v", payload)
	}
	opts, _ := payload[0]["options"].([]any)
	if len(opts) != 2 {
		t.Fatalf("options = %+v", payload[0]["options"])
	}
}

func TestRegisterCommandsNeedsApplicationID(t *testing.T) {
	t.Parallel()
	d := NewDiscord(DiscordConfig{BotToken: "t"}, logx.Nop())
	if err := d.RegisterCommands(context.Background()); err == nil {
		t.Fatal("expected error without application id")
	}
}
