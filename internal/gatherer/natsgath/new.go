package natsgath

import (
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// New creates a gatherer that streams events to <subject>.events.
// With compress set, payloads are snappy-encoded.
func New(pub Publisher, subject string, compress bool, logger *slog.Logger) *natsGatherer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &natsGatherer{
		pub:      pub,
		subject:  EventsSubject(subject),
		compress: compress,
		logger:   logger,
	}
}

func EventsSubject(base string) string {
	return base + ".events"
}
