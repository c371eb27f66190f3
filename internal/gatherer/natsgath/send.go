package natsgath

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/snappy"
	"github.com/nats-io/nats.go"
)

const (
	encodingHeader = "Content-Encoding"
	snappyEncoding = "snappy"
)

func (s *natsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to marshal message", "err", err)
		return
	}

	m := nats.NewMsg(s.subject)
	if s.compress {
		b = snappy.Encode(nil, b)
		m.Header.Set(encodingHeader, snappyEncoding)
	}
	m.Data = b

	if err := s.pub.PublishMsg(m); err != nil {
		s.logger.Error("failed to publish message to NATS", "subject", s.subject, "err", err)
	}
}

// Decode unmarshals an event published by this package into v.
func Decode(m *nats.Msg, v interface{}) error {
	data := m.Data
	if m.Header.Get(encodingHeader) == snappyEncoding {
		var err error
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return fmt.Errorf("failed to decompress message: %w", err)
		}
	}
	return json.Unmarshal(data, v)
}
