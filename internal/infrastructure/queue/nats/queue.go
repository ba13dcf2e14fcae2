package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/paperbox/internal/infrastructure/resilience"
)

const (
	ingestQueueGroup  = "paperbox-workers"
	publishedAtHeader = "Paperbox-Published-At"
)

// Queue carries documents.ingested events from the API to the workers.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
	onLag    func(time.Duration)
	now      func() time.Time
}

func NewQueue(conn *nats.Conn, subject string, options Options) *Queue {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
		onLag:    options.OnDeliveryLag,
		now:      time.Now,
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return errors.New("nats publish: document id is empty")
	}
	msg := nats.NewMsg(q.subject)
	msg.Data = []byte(documentID)
	msg.Header.Set(publishedAtHeader, q.now().UTC().Format(time.RFC3339Nano))
	return publish(ctx, q.conn, q.executor, msg)
}

// SubscribeDocumentIngested blocks until ctx is done, then drains the
// subscription so in-flight handlers finish.
func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, ingestQueueGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		documentID := string(msg.Data)
		q.observeLag(msg)
		if err := handler(ctx, documentID); err != nil {
			q.logger.Error("ingest_handler_failed", "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) observeLag(msg *nats.Msg) {
	if q.onLag == nil || msg.Header == nil {
		return
	}
	publishedAt, err := time.Parse(time.RFC3339Nano, msg.Header.Get(publishedAtHeader))
	if err != nil {
		return
	}
	q.onLag(q.now().Sub(publishedAt))
}

func publish(ctx context.Context, conn *nats.Conn, executor *resilience.Executor, msg *nats.Msg) error {
	call := func(_ context.Context) error {
		if err := conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if executor != nil {
		err = executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}
