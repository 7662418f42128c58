// Package event publishes crawl lifecycle events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pricepulse/wbradar/internal/crawler"
	pkgkafka "github.com/pricepulse/wbradar/pkg/kafka"
	"github.com/pricepulse/wbradar/pkg/logger"
)

// Kafka topics for crawl lifecycle events.
var (
	TopicCrawlStarted   = pkgkafka.Topic("crawl", "started")
	TopicCrawlCompleted = pkgkafka.Topic("crawl", "completed")
	TopicCrawlFailed    = pkgkafka.Topic("crawl", "failed")
)

// Aggregate type constant.
const AggregateTypeCrawl = "crawl"

// Source identifier for events originating from the crawler.
const SourceCrawler = "wbradar"

// CrawlStartedData is the payload for a crawl.started event.
type CrawlStartedData struct {
	CrawlID    string    `json:"crawl_id"`
	Categories int       `json:"categories"`
	StartedAt  time.Time `json:"started_at"`
}

// CrawlCompletedData is the payload for a crawl.completed event.
type CrawlCompletedData struct {
	CrawlID    string    `json:"crawl_id"`
	Categories int       `json:"categories"`
	Persisted  int64     `json:"persisted"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// CrawlFailedData is the payload for a crawl.failed event.
type CrawlFailedData struct {
	CrawlID    string `json:"crawl_id"`
	Persisted  int64  `json:"persisted"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error"`
}

// Producer publishes crawl lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the crawler.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// publish wraps data in the standard envelope, keyed by crawl ID, and sends
// it to topic. A correlation ID in ctx rides along as an envelope field.
func (p *Producer) publish(ctx context.Context, topic, crawlID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, crawlID, AggregateTypeCrawl, SourceCrawler, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// PublishCrawlStarted publishes a crawl.started event.
func (p *Producer) PublishCrawlStarted(ctx context.Context, crawlID string, categories int, startedAt time.Time) error {
	data := CrawlStartedData{
		CrawlID:    crawlID,
		Categories: categories,
		StartedAt:  startedAt,
	}

	if err := p.publish(ctx, TopicCrawlStarted, crawlID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published crawl.started event",
		slog.String("crawl_id", crawlID),
		slog.Int("categories", categories),
	)

	return nil
}

// PublishCrawlCompleted publishes a crawl.completed event.
func (p *Producer) PublishCrawlCompleted(ctx context.Context, crawlID string, stats crawler.Stats) error {
	data := CrawlCompletedData{
		CrawlID:    crawlID,
		Categories: stats.Categories,
		Persisted:  stats.Persisted,
		StartedAt:  stats.Started,
		DurationMS: stats.Duration.Milliseconds(),
	}

	if err := p.publish(ctx, TopicCrawlCompleted, crawlID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published crawl.completed event",
		slog.String("crawl_id", crawlID),
		slog.Int64("persisted", stats.Persisted),
	)

	return nil
}

// PublishCrawlFailed publishes a crawl.failed event.
func (p *Producer) PublishCrawlFailed(ctx context.Context, crawlID string, stats crawler.Stats, crawlErr error) error {
	data := CrawlFailedData{
		CrawlID:    crawlID,
		Persisted:  stats.Persisted,
		DurationMS: stats.Duration.Milliseconds(),
		Error:      crawlErr.Error(),
	}

	if err := p.publish(ctx, TopicCrawlFailed, crawlID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published crawl.failed event",
		slog.String("crawl_id", crawlID),
		slog.String("error", crawlErr.Error()),
	)

	return nil
}
