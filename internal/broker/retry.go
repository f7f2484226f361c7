package broker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Dead-letter headers describe where a parked message came from
const (
	DeadLetterErrorHeader  = "dlq-error"
	DeadLetterTopicHeader  = "dlq-source-topic"
	DeadLetterOffsetHeader = "dlq-source-offset"
)

// RetryPolicy bounds how often a failing message is handed back to its
// handler before it is dead-lettered.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy retries for roughly ten seconds
var DefaultRetryPolicy = RetryPolicy{
	Attempts:   6,
	Backoff:    250 * time.Millisecond,
	MaxBackoff: 4 * time.Second,
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Backoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return d
}

// DeadLetterWriter parks messages no handler could process
type DeadLetterWriter interface {
	DeadLetter(ctx context.Context, msg kafka.Message, cause error) error
}

// DeadLetter copies msg to the producer's topic with its origin and the
// final handler error in the headers.
func (p *Producer) DeadLetter(ctx context.Context, msg kafka.Message, cause error) error {
	headers := append([]kafka.Header{}, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: DeadLetterErrorHeader, Value: []byte(cause.Error())},
		kafka.Header{Key: DeadLetterTopicHeader, Value: []byte(msg.Topic)},
		kafka.Header{Key: DeadLetterOffsetHeader, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
	)

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Time:    time.Now(),
		Headers: headers,
	}); err != nil {
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}
	return nil
}

// WithRetry retries handler with exponential backoff and dead-letters the
// message once the attempts run out. An error is returned only when the
// message could not be parked either and so must not be committed.
func WithRetry(handler MessageHandler, policy RetryPolicy, deadLetter DeadLetterWriter, logger *zap.Logger) MessageHandler {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	return func(ctx context.Context, msg kafka.Message) error {
		var err error
		for attempt := 1; attempt <= attempts; attempt++ {
			if err = handler(ctx, msg); err == nil {
				return nil
			}
			if attempt == attempts {
				break
			}

			util.MessageRetriesTotal.WithLabelValues(msg.Topic).Inc()
			logger.Warn("Handler failed, retrying",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if serr := sleep(ctx, policy.delay(attempt)); serr != nil {
				return serr
			}
		}

		if deadLetter == nil {
			return err
		}
		if dlErr := deadLetter.DeadLetter(ctx, msg, err); dlErr != nil {
			logger.Error("Failed to dead-letter message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(dlErr))
			return fmt.Errorf("handler: %v; dead letter: %w", err, dlErr)
		}

		util.MessagesDeadLetteredTotal.WithLabelValues(msg.Topic).Inc()
		logger.Error("Message dead-lettered",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
