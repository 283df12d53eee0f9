package revalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/elstracker/elstracker/internal/config"
)

// Message is the payload published for every revalidation.
type Message struct {
	Paths []string `json:"paths"`
}

// NATSRevalidator publishes stale paths on a subject the presentation layer
// subscribes to.
type NATSRevalidator struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

func NewNATSRevalidator(conn *nats.Conn, subject string, logger *slog.Logger) *NATSRevalidator {
	return &NATSRevalidator{
		conn:    conn,
		subject: subject,
		log:     logger,
	}
}

func (r *NATSRevalidator) Revalidate(ctx context.Context, paths ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(Message{Paths: paths})
	if err != nil {
		return fmt.Errorf("failed to encode revalidation message: %w", err)
	}

	if err = r.conn.Publish(r.subject, payload); err != nil {
		return fmt.Errorf("failed to publish revalidation message: %w", err)
	}

	r.log.Debug("revalidation published", "subject", r.subject, "paths", paths)
	return nil
}

// Connect opens the NATS connection used for revalidation messages.
func Connect(cfg *config.Config, logger *slog.Logger) (*nats.Conn, error) {
	hostname, _ := os.Hostname()

	options := []nats.Option{
		nats.Name(fmt.Sprintf("%s%s", cfg.NATSClientPrefix, hostname)),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(cfg.NATSOutgoingBufferSize),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection permanently closed")
		}),
	}

	nc, err := nats.Connect(cfg.NATSURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// New returns a NATS backed revalidator when NATS is configured and a
// logging one otherwise. The returned close function is always safe to call.
func New(cfg *config.Config, logger *slog.Logger) (Revalidator, func(), error) {
	if cfg.NATSURL == "" {
		return LogRevalidator{Logger: logger}, func() {}, nil
	}

	nc, err := Connect(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			logger.Error("failed to drain NATS connection", "error", err)
		}
	}

	return NewNATSRevalidator(nc, cfg.NATSRevalidateSubject, logger), closeFn, nil
}
