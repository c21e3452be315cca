package usecase

import (
	"context"
	"fmt"

	pushdomain "push-relay/internal/push/domain"
	"push-relay/pkg/config"
	"push-relay/pkg/fcm"
	"push-relay/pkg/metrics"
)

// Sender is the push provider, implemented by *fcm.Client
type Sender interface {
	Send(ctx context.Context, token string, notification fcm.NotificationData) (string, error)
	SendMulticast(ctx context.Context, tokens []string, notification fcm.NotificationData) (*fcm.BatchResponse, error)
}

// Dispatcher delivers one payload to a token set in provider-sized chunks
type Dispatcher struct {
	sender    Sender
	batchSize int
	metrics   *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. batchSize is capped at the provider limit.
func NewDispatcher(sender Sender, batchSize int, m *metrics.Metrics) *Dispatcher {
	if batchSize <= 0 || batchSize > config.MaxBatchSize {
		batchSize = config.MaxBatchSize
	}
	return &Dispatcher{
		sender:    sender,
		batchSize: batchSize,
		metrics:   m,
	}
}

// Dispatch sends notification to tokens, one multicast call per chunk, in order.
// A failed provider call aborts the remaining chunks; chunks already sent stand.
func (d *Dispatcher) Dispatch(ctx context.Context, target string, tokens []string, notification fcm.NotificationData) (*pushdomain.DispatchResult, error) {
	result := &pushdomain.DispatchResult{}
	if len(tokens) == 0 {
		return result, nil
	}

	seen := make(map[string]struct{})
	for start := 0; start < len(tokens); start += d.batchSize {
		end := min(start+d.batchSize, len(tokens))
		chunk := tokens[start:end]

		resp, err := d.sender.SendMulticast(ctx, chunk, notification)
		d.metrics.Batch()
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}

		result.Sent += resp.SuccessCount
		result.Failed += resp.FailureCount
		d.metrics.Delivered(target, resp.SuccessCount, resp.FailureCount)

		for i, r := range resp.Responses {
			if r.Success || i >= len(chunk) || !fcm.IsPermanent(r.ErrorCode) {
				continue
			}
			token := chunk[i]
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			result.DeadTokens = append(result.DeadTokens, token)
		}
	}

	d.metrics.DeadTokens(len(result.DeadTokens))
	log.WithField("target", target).Debugf("Dispatched to %d tokens: %d sent, %d failed, %d dead",
		len(tokens), result.Sent, result.Failed, len(result.DeadTokens))
	return result, nil
}
