// Package server is the inbound webhook HTTP server: it receives outgoing-robot
// deliveries from the platform, verifies their signature, feeds them through
// the relay and acknowledges with the empty message type.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dingrelay/dingrelay/internal/command"
	"github.com/dingrelay/dingrelay/internal/config"
	"github.com/dingrelay/dingrelay/internal/dingtalk"
	"github.com/dingrelay/dingrelay/internal/domain"
	"github.com/dingrelay/dingrelay/internal/logging"
	"github.com/dingrelay/dingrelay/internal/relay"
	"github.com/dingrelay/dingrelay/internal/version"
)

// maxPayloadBytes caps inbound request bodies. Robot deliveries are small;
// anything near this size is garbage.
const maxPayloadBytes = 1 << 20

// MessageHandler consumes inbound messages that are not operator commands.
type MessageHandler func(ctx context.Context, msg domain.Message)

// Server is the webhook HTTP server.
type Server struct {
	cfg       config.Config
	relay     *relay.Relay
	responder *command.Responder
	handler   MessageHandler
	log       *logging.Logger
	now       func() time.Time

	baseCtx    context.Context
	httpServer *http.Server
	startedAt  time.Time
}

// ServerOption configures the webhook server.
type ServerOption func(*Server)

// WithHandler sets the consumer for non-command inbound messages.
func WithHandler(h MessageHandler) ServerOption {
	return func(s *Server) { s.handler = h }
}

// New creates a webhook server.
func New(cfg config.Config, rl *relay.Relay, responder *command.Responder, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:       cfg,
		relay:     rl,
		responder: responder,
		log:       log.Sub("server"),
		now:       time.Now,
		baseCtx:   context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the server's HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Server.Path, s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start begins listening for webhook deliveries. It blocks until the context
// is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = ctx
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("path", s.cfg.Server.Path).
		Bool("signed", s.cfg.Server.Secret != "").
		Msg("webhook server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down webhook server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if secret := s.cfg.Server.Secret; secret != "" {
		err := VerifySignature(secret, r.Header.Get("timestamp"), r.Header.Get("sign"), s.now())
		if err != nil {
			s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejected unsigned delivery")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	msg, err := s.relay.HandleInbound(body)
	if err != nil {
		if errors.Is(err, dingtalk.ErrMalformedPayload) {
			s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("malformed delivery")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		s.log.Error().Err(err).Msg("inbound handling failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.log.Debug().
		Str("msgId", msg.ID).
		Str("conversation", msg.Conversation.ID).
		Str("sender", msg.From.Nick).
		Msg("delivery received")

	if reply, handled, err := s.responder.Respond(msg); handled {
		if err != nil {
			s.log.Error().Err(err).Msg("token command failed")
			s.ack(w)
			return
		}
		if err := s.relay.Send(r.Context(), domain.BuildReply(msg, reply)); err != nil {
			// No credential to deliver through yet; answer inline in the
			// webhook response so the operator still sees the reply.
			s.log.Warn().Err(err).Msg("delivering command reply inline")
			s.ackText(w, reply)
			return
		}
		s.ack(w)
		return
	}

	if s.handler != nil {
		// Consumers run detached from the request: the platform retries slow
		// acknowledgements, so the ack must not wait on downstream work.
		go s.handler(s.baseCtx, msg)
	}
	s.ack(w)
}

// ack acknowledges a delivery with the empty message type, telling the
// platform not to render any reply inline.
func (s *Server) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(dingtalk.AckEmpty())
}

// ackText acknowledges a delivery with a text reply rendered inline by the
// platform.
func (s *Server) ackText(w http.ResponseWriter, body string) {
	payload, err := dingtalk.EncodeMessage(domain.Message{Body: body}, dingtalk.VariantText)
	if err != nil {
		s.ack(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
