package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"
)

// Config captures the Kafka wiring for the donation event stream.
type Config struct {
	Brokers []string
	Topic   string
	Group   string
	Workers int
}

// Consumer owns the Kafka poll loop. Each fetched batch is fanned out to a
// bounded worker group; offsets commit only after the whole batch handled
// cleanly. A persistence failure stops the loop with the batch uncommitted,
// so the next consumer in the group resumes at those records and redelivers
// them.
type Consumer struct {
	client  *kgo.Client
	intake  *Intake
	workers int
	logger  *slog.Logger
}

// New connects to the brokers, makes sure the topic exists, and returns a
// consumer ready to Run.
func New(cfg Config, intake *Intake, logger *slog.Logger) (*Consumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Consumer{
		client:  client,
		intake:  intake,
		workers: cfg.Workers,
		logger:  logger,
	}, nil
}

// ensureTopic creates the topic when the cluster does not have it yet, so a
// fresh compose environment works without manual setup.
func ensureTopic(client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(context.Background(), 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %q: %w", topic, t.Err)
		}
	}
	return nil
}

// Run polls until the context is canceled. It returns nil on cancellation
// and an error when the client is closed underneath it or a batch fails to
// persist. Polling past a failed batch would advance the client's position,
// and the next clean commit would cover the failed records too, losing them;
// returning instead keeps their offsets uncommitted for redelivery.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})

		records := fetches.Records()
		if len(records) == 0 {
			continue
		}

		g, groupCtx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for _, record := range records {
			g.Go(func() error {
				return c.intake.Handle(groupCtx, record.Value)
			})
		}
		if err := g.Wait(); err != nil {
			c.logger.Error("batch handling failed, offsets not committed", "error", err)
			return fmt.Errorf("handle batch: %w", err)
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error("offset commit failed", "error", err)
		}
	}
}

// Close tears down the Kafka client.
func (c *Consumer) Close() {
	c.client.Close()
}
