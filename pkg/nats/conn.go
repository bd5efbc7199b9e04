package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Stream layout for pipeline events. Every event goes to one stream
// under a subject derived from its event type code.
const (
	streamName    = "PIPELINE_EVENTS"
	subjectPrefix = "pipeline.events."

	// SubjectWildcard matches every pipeline event subject; subscribers
	// narrow it per consumer.
	SubjectWildcard = "pipeline.events.>"
)

func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return nc, js, nil
}
