package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-capabilities/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const (
	JobIDAuditPublish = "capabilities.audit.publish"

	paramEventID       = "event_id"
	paramEventSequence = "event_sequence"
	paramEventKind     = "event_kind"
	paramAuthority     = "authority"
	paramEvent         = "event"
)

// RetryPolicy bounds redelivery of audit jobs a sink failed to accept.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NackFor returns the nack options for a failed delivery attempt.
func (p RetryPolicy) NackFor(reason string, delay time.Duration, attempt int) queue.NackOptions {
	out := queue.NackOptions{
		Reason:  strings.TrimSpace(reason),
		Delay:   delay,
		Requeue: true,
	}
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts && p.DeadLetterOnMax {
		out.Requeue = false
		out.DeadLetter = true
	}
	return out
}

// ToExecutionMessage wraps an audit event as a go-job message. The event ID
// is the idempotency key so redelivered publishes collapse downstream.
func ToExecutionMessage(event core.AuditEvent) (*job.ExecutionMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("gojob: encode audit event %s: %w", event.ID, err)
	}
	return &job.ExecutionMessage{
		JobID:      JobIDAuditPublish,
		ScriptPath: JobIDAuditPublish,
		Parameters: map[string]any{
			paramEventID:       event.ID,
			paramEventSequence: event.Sequence,
			paramEventKind:     string(event.Kind),
			paramAuthority:     event.Authority.Hex(),
			paramEvent:         string(payload),
		},
		IdempotencyKey: strings.TrimSpace(event.ID),
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}, nil
}

// FromExecutionMessage recovers the audit event carried by an audit job.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.AuditEvent, error) {
	if msg == nil {
		return core.AuditEvent{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDAuditPublish {
		return core.AuditEvent{}, fmt.Errorf("gojob: unexpected job %q", msg.JobID)
	}
	raw, ok := msg.Parameters[paramEvent].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return core.AuditEvent{}, fmt.Errorf("gojob: audit job %q has no event payload", msg.IdempotencyKey)
	}
	var event core.AuditEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return core.AuditEvent{}, fmt.Errorf("gojob: decode audit event: %w", err)
	}
	return event, nil
}

// AuditPublisher is a core.AuditLog that hands each committed event to a
// go-job queue.
type AuditPublisher struct {
	enqueuer queue.Enqueuer
}

func NewAuditPublisher(enqueuer queue.Enqueuer) *AuditPublisher {
	return &AuditPublisher{enqueuer: enqueuer}
}

func (p *AuditPublisher) Name() string { return "gojob" }

func (p *AuditPublisher) Append(ctx context.Context, event core.AuditEvent) error {
	if p == nil || p.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	msg, err := ToExecutionMessage(event)
	if err != nil {
		return err
	}
	return p.enqueuer.Enqueue(ctx, msg)
}

// AuditConsumer drains audit jobs into a downstream audit log, acking on
// success and nacking through its retry policy otherwise. It is not safe for
// concurrent use.
type AuditConsumer struct {
	dequeuer queue.Dequeuer
	sink     core.AuditLog
	policy   RetryPolicy
	attempts map[string]int
}

func NewAuditConsumer(dequeuer queue.Dequeuer, sink core.AuditLog, policy RetryPolicy) *AuditConsumer {
	return &AuditConsumer{
		dequeuer: dequeuer,
		sink:     sink,
		policy:   policy,
		attempts: map[string]int{},
	}
}

// ConsumeOne handles a single delivery. It reports whether the event reached
// the sink.
func (c *AuditConsumer) ConsumeOne(ctx context.Context) (bool, error) {
	if c == nil || c.dequeuer == nil || c.sink == nil {
		return false, fmt.Errorf("gojob: audit consumer is not configured")
	}
	delivery, err := c.dequeuer.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if delivery == nil {
		return false, nil
	}

	event, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		// undecodable payloads never succeed on retry
		return false, delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: err.Error()})
	}

	if appendErr := c.sink.Append(ctx, event); appendErr != nil {
		c.attempts[event.ID]++
		opts := c.policy.NackFor(appendErr.Error(), 0, c.attempts[event.ID])
		if opts.DeadLetter {
			delete(c.attempts, event.ID)
		}
		if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
			return false, nackErr
		}
		return false, appendErr
	}
	delete(c.attempts, event.ID)
	return true, delivery.Ack(ctx)
}

var _ core.AuditLog = (*AuditPublisher)(nil)
