// Package nats implements the relay transport on NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"strings"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config describes the JetStream publisher.
type Config struct {
	// URL is the NATS server address. Empty means the default URL.
	URL string
	// StreamName names the JetStream stream holding relayed events.
	StreamName string
	// SubjectPrefix scopes the stream's subject space.
	SubjectPrefix string
}

// Publisher publishes outbox entries to a JetStream stream. Message ids
// carry the event id, so JetStream's dedupe window absorbs redeliveries
// after a crash between publish and outbox acknowledgement.
type Publisher struct {
	nc     *natsgo.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewPublisher connects to NATS and ensures the stream exists.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	url := cfg.URL
	if url == "" {
		url = natsgo.DefaultURL
	}
	streamName := strings.ToUpper(cfg.StreamName)
	if streamName == "" {
		streamName = "TRACKER_EVENTS"
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "tracker.events"
	}

	nc, err := natsgo.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open jetstream: %w", err)
	}
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{prefix + ".>"},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", streamName, err)
	}
	return &Publisher{nc: nc, js: js, stream: stream}, nil
}

// Publish delivers one event body to its subject.
func (p *Publisher) Publish(ctx context.Context, subject, msgID string, body []byte) error {
	msg := natsgo.NewMsg(subject)
	msg.Header.Set("x-event-id", msgID)
	msg.Data = body
	if _, err := p.js.PublishMsg(ctx, msg, jetstream.WithMsgID(msgID)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection, flushing outgoing messages.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
