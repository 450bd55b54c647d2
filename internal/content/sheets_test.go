package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	logx "weeklybot/pkg/logx"
)

func newSheets(t *testing.T, handler http.HandlerFunc) *Sheets {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewSheets(SheetsConfig{
		APIKey:        "key123",
		SpreadsheetID: "sheet1",
		Range:         "Discord!B2",
		APIBase:       ts.URL,
	}, logx.Nop())
}

func TestFetch(t *testing.T) {
	t.Parallel()
	var gotPath, gotKey string
	s := newSheets(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Discord!B2","values":[["Chaotic Efaunt"]]}`))
	})

	got, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "Chaotic Efaunt" {
		t.Fatalf("got %q", got)
	}
	if gotPath != "/v4/spreadsheets/sheet1/values/Discord!B2" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "key123" {
		t.Fatalf("key = %q", gotKey)
	}
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "internal", http.StatusInternalServerError)
			},
		},
		{
			name: "empty values",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"values":[]}`))
			},
		},
		{
			name: "missing values",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newSheets(t, tt.handler)
			_, err := s.Fetch(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("error %T is not *FetchError", err)
			}
		})
	}
}

func TestFetchNonStringCell(t *testing.T) {
	t.Parallel()
	s := newSheets(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"values":[[42]]}`))
	})
	got, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "42" {
		t.Fatalf("got %q", got)
	}
}
