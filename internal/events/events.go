// Package events publishes generation lifecycle events to NATS JetStream
// for downstream consumers. Publishing is optional: a nil *Publisher is
// valid and drops every event, so callers never branch on whether events
// are configured.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// Generated is published after a finished generation is stored.
type Generated struct {
	JobID        string    `json:"job_id"`
	Repository   string    `json:"repository"`
	Pages        int       `json:"pages"`
	Placeholders int       `json:"placeholders"`
	DurationMS   float64   `json:"duration_ms"`
	GeneratedAt  time.Time `json:"generated_at"`
}

const generatedSuffix = ".generated"

// Publisher publishes events to a JetStream stream.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	log     *slog.Logger
}

// NewPublisher connects to NATS and ensures the configured stream exists.
// It returns (nil, nil) when events are disabled; the nil publisher is
// safe to use.
func NewPublisher(ctx context.Context, cfg config.EventsConfig, log *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("repowiki"))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "connect to NATS").
			WithContext("url", cfg.URL).
			Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "create JetStream context").Build()
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.SubjectPrefix + ".>"},
	}); err != nil {
		conn.Close()
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "ensure event stream").
			WithContext("stream", cfg.Stream).
			Build()
	}

	subject := cfg.SubjectPrefix + generatedSuffix
	log.Info("event publishing enabled",
		slog.String("url", cfg.URL),
		slog.String("stream", cfg.Stream),
		logfields.Subject(subject))
	return &Publisher{conn: conn, js: js, subject: subject, log: log}, nil
}

// DocumentationGenerated publishes one Generated event. A failure is
// returned for the caller to log; generation never fails over it.
func (p *Publisher) DocumentationGenerated(ctx context.Context, ev Generated) error {
	if p == nil {
		return nil
	}
	if ev.GeneratedAt.IsZero() {
		ev.GeneratedAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "encode generated event").Build()
	}
	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "publish generated event").
			WithContext("subject", p.subject).
			Build()
	}
	p.log.Debug("event published",
		logfields.Subject(p.subject),
		logfields.Repository(ev.Repository))
	return nil
}

// Close drains the connection so queued publishes flush. Safe on nil.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
