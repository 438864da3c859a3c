// Package pubsub announces newly catalogued recordings on Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"google.golang.org/api/option"

	"github.com/JakeFAU/lecture-indexer/internal/catalog"
)

// Message is the JSON payload published for each added recording.
type Message struct {
	RunID      string `json:"run_id"`
	LinkID     string `json:"link_id"`
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	PortalURL  string `json:"portal_url"`
	TermName   string `json:"term"`
}

// Publisher wraps a Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New connects to projectID and publishes to topicID.
func New(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*Publisher, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("pubsub project id and topic name are required")
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Publisher{client: client, topic: client.Topic(topicID)}, nil
}

// Name identifies the publisher in logs.
func (p *Publisher) Name() string { return "pubsub" }

// Notify publishes one message per entry and waits for every result.
func (p *Publisher) Notify(ctx context.Context, runID string, added []catalog.Entry) error {
	if p == nil || p.topic == nil {
		return fmt.Errorf("pubsub publisher is not configured")
	}
	results := make([]*pubsub.PublishResult, 0, len(added))
	for _, entry := range added {
		data, err := json.Marshal(Message{
			RunID:      runID,
			LinkID:     entry.LinkID,
			CourseID:   entry.Record.CourseID,
			CourseName: entry.Record.CourseName,
			PortalURL:  entry.Record.PortalURL,
			TermName:   entry.Record.TermName,
		})
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		msg := &pubsub.Message{
			Data: data,
			Attributes: map[string]string{
				"run_id":  runID,
				"link_id": entry.LinkID,
			},
		}
		otel.GetTextMapPropagator().Inject(ctx, &pubsubCarrier{attrs: msg.Attributes})
		results = append(results, p.topic.Publish(ctx, msg))
	}

	var errs []error
	for i, result := range results {
		if _, err := result.Get(ctx); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", added[i].LinkID, err))
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	p.topic.Stop()
	return p.client.Close()
}

// pubsubCarrier implements propagation.TextMapCarrier for Pub/Sub attributes.
type pubsubCarrier struct {
	attrs map[string]string
}

func (c *pubsubCarrier) Get(key string) string {
	return c.attrs[key]
}

func (c *pubsubCarrier) Set(key, value string) {
	c.attrs[key] = value
}

func (c *pubsubCarrier) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	return keys
}
