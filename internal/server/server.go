// Package server is the HTTP boundary: the signed interactions webhook and
// the broadcast trigger.
package server

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"weeklybot/internal/broadcast"
	"weeklybot/internal/discord"
	logx "weeklybot/pkg/logx"
)

// maxInteractionBody bounds the webhook payload; interaction requests are
// small and anything larger is hostile.
const maxInteractionBody = 1 << 20

// Dispatcher routes a verified interaction.
type Dispatcher interface {
	Dispatch(ctx context.Context, in *discord.Interaction) discord.Response
}

// Broadcaster runs one fan-out.
type Broadcaster interface {
	Run(ctx context.Context) (broadcast.Outcome, error)
}

type Server struct {
	pub         ed25519.PublicKey
	dispatcher  Dispatcher
	broadcaster Broadcaster
	log         logx.Logger
}

func New(pub ed25519.PublicKey, d Dispatcher, b Broadcaster, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{pub: pub, dispatcher: d, broadcaster: b, log: log}
}

// Routes builds the router.
//
// /cron is intended for a trusted internal scheduler; it carries no end-user
// auth, so deployments must restrict its network reachability.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/", s.handleRoot)
	r.Post("/interactions", s.handleInteractions)
	r.Post("/cron", s.handleCron)
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "weeklybot is running.")
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	// The signature covers the exact wire bytes; read them before any
	// parsing and verify against that buffer, never a re-serialization.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	sig := r.Header.Get(discord.SignatureHeader)
	ts := r.Header.Get(discord.TimestampHeader)
	if !discord.VerifySignature(s.pub, sig, ts, body) {
		s.log.Warn("interaction rejected: bad signature", logx.String("remote", r.RemoteAddr))
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	in, err := discord.Parse(body)
	if err != nil {
		s.log.Warn("interaction rejected: bad payload", logx.Err(err))
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), in)
	if resp.Type == 0 {
		// Unhandled interaction kinds get a bare acknowledgment.
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	s.log.Info("broadcast trigger received", logx.String("remote", r.RemoteAddr))

	out, err := s.broadcaster.Run(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		// Only the bulk config read aborts a run; everything else is
		// contained per guild. Keep the reply a plain line, not a trace.
		http.Error(w, "broadcast failed: could not read guild configurations", http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "Notifications sent to %d of %d channels (%d failed).\n",
		out.Succeeded, out.Attempted, out.Failed())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
