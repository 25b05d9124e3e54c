package ingest

import (
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/unrlsd/trackhound/app/video"
)

const (
	subjectPrefix   = "scrape.results."
	subjectWildcard = subjectPrefix + "*"
	durableName     = "trackhound-ingest"
)

// RecordHandler receives one decoded raw record from the stream.
type RecordHandler func(record video.Raw)

// Subscriber consumes scraper output from a JetStream subject per platform.
// Messages are acked once decoded and handed off; malformed payloads are
// acked too, redelivery cannot fix them.
type Subscriber struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	sub *nats.Subscription
}

func NewSubscriber(natsURL string) (*Subscriber, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe starts consuming scrape results and routing them to the handler.
func (s *Subscriber) Subscribe(handler RecordHandler) error {
	sub, err := s.js.Subscribe(subjectWildcard, func(msg *nats.Msg) {
		defer msg.Ack()

		name := strings.TrimPrefix(msg.Subject, subjectPrefix)
		platform, ok := video.ParsePlatform(name)
		if !ok {
			slog.Warn("Message on unknown platform subject", "subject", msg.Subject)
			return
		}

		record, err := DecodeRaw(platform, msg.Data)
		if err != nil {
			slog.Warn("Failed to decode stream record", "subject", msg.Subject, "error", err)
			return
		}

		handler(record)
	}, nats.Durable(durableName), nats.ManualAck())

	if err != nil {
		return err
	}

	s.sub = sub
	return nil
}

func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
