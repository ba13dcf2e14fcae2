package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/infrastructure/resilience"
)

// FeedBus fans feed-changed events out on <prefix>.<owner>. Every API
// replica subscribes without a queue group so each stream sees each event.
type FeedBus struct {
	conn     *nats.Conn
	prefix   string
	executor *resilience.Executor
	logger   *slog.Logger
}

func NewFeedBus(conn *nats.Conn, prefix string, options Options) *FeedBus {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "notifications.feed"
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedBus{
		conn:     conn,
		prefix:   prefix,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}
}

func (b *FeedBus) Subject(ownerID string) string {
	return b.prefix + "." + sanitizeToken(ownerID)
}

func (b *FeedBus) PublishFeedEvent(ctx context.Context, event domain.FeedEvent) error {
	if strings.TrimSpace(event.OwnerID) == "" {
		return errors.New("feed event: owner id is empty")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}
	return publish(ctx, b.conn, b.executor, &nats.Msg{Subject: b.Subject(event.OwnerID), Data: payload})
}

// SubscribeFeed blocks until ctx is done. Undecodable or foreign events are dropped.
func (b *FeedBus) SubscribeFeed(ctx context.Context, ownerID string, handler func(domain.FeedEvent)) error {
	sub, err := b.conn.Subscribe(b.Subject(ownerID), func(msg *nats.Msg) {
		var event domain.FeedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Warn("feed_event_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		if event.OwnerID != ownerID {
			return
		}
		handler(event)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe feed: %w", err)
	}
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats unsubscribe feed: %w", err)
	}
	return nil
}

// sanitizeToken keeps owner ids from introducing subject separators or wildcards.
func sanitizeToken(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		default:
			return r
		}
	}, value)
}
