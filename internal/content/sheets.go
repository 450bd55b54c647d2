package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	logx "weeklybot/pkg/logx"
)

// Defaults from the deployed spreadsheet.
const (
	DefaultAPIBase = "https://sheets.googleapis.com"
	DefaultRange   = "Discord!B2"
)

// FetchError marks a content-source failure. Callers treat it as non-fatal.
type FetchError struct {
	cause error
}

func (e *FetchError) Error() string { return fmt.Sprintf("content fetch: %v", e.cause) }
func (e *FetchError) Unwrap() error { return e.cause }

func fetchErr(err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{cause: err}
}

type SheetsConfig struct {
	APIKey        string
	SpreadsheetID string
	Range         string
	APIBase       string
	Timeout       time.Duration
}

// Sheets reads one cell from a public Google spreadsheet via the values API.
type Sheets struct {
	cfg   SheetsConfig
	httpc *http.Client
	log   logx.Logger
}

func NewSheets(cfg SheetsConfig, log logx.Logger) *Sheets {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sheets{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		log:   log,
	}
}

// Fetch returns the configured cell's text.
// The per-call timeout bounds the broadcast even when the caller's context
// has no deadline of its own.
func (s *Sheets) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		strings.TrimRight(s.cfg.APIBase, "/"),
		url.PathEscape(s.cfg.SpreadsheetID),
		url.PathEscape(s.cfg.Range))
	if s.cfg.APIKey != "" {
		u += "?key=" + url.QueryEscape(s.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fetchErr(err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fetchErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little for the error message, but never echo the full body.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fetchErr(fmt.Errorf("sheets API status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var payload struct {
		Values [][]json.RawMessage `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fetchErr(err)
	}
	if len(payload.Values) == 0 || len(payload.Values[0]) == 0 {
		return "", fetchErr(errors.New("no data in range " + s.cfg.Range))
	}

	var cell string
	if err := json.Unmarshal(payload.Values[0][0], &cell); err != nil {
		// Non-string cells stringify rather than fail.
		cell = strings.Trim(string(payload.Values[0][0]), `"`)
	}
	s.log.Debug("fetched weekly boss text", logx.Int("len", len(cell)))
	return cell, nil
}
