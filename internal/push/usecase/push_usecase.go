package usecase

import (
	"context"

	"push-relay/internal/device/repository"
	pushdomain "push-relay/internal/push/domain"
	"push-relay/pkg/config"
	"push-relay/pkg/fcm"
	"push-relay/pkg/logger"
	"push-relay/pkg/metrics"
)

var log = logger.For("Push")

// PushUsecase defines the interface for push delivery use cases
type PushUsecase interface {
	// SendToToken delivers to one token and returns the provider message ID
	SendToToken(ctx context.Context, token string, notification fcm.NotificationData) (string, error)
	// SendToUser delivers to every active device of userID
	SendToUser(ctx context.Context, userID int64, notification fcm.NotificationData) (*pushdomain.SendResult, error)
	// SendToAll delivers to every active device
	SendToAll(ctx context.Context, notification fcm.NotificationData) (*pushdomain.SendResult, error)
}

// pushUsecase implements PushUsecase interface
type pushUsecase struct {
	sender     Sender
	resolver   *Resolver
	dispatcher *Dispatcher
	pruner     *Pruner
	metrics    *metrics.Metrics
}

// NewPushUsecase creates a new instance of pushUsecase
func NewPushUsecase(deviceRepo repository.DeviceRepository, sender Sender, cfg *config.Config, m *metrics.Metrics) PushUsecase {
	return &pushUsecase{
		sender:     sender,
		resolver:   NewResolver(deviceRepo, cfg.BroadcastPageSize),
		dispatcher: NewDispatcher(sender, cfg.BatchSize, m),
		pruner:     NewPruner(deviceRepo, cfg.PruneConcurrency, m),
		metrics:    m,
	}
}

func (u *pushUsecase) SendToToken(ctx context.Context, token string, notification fcm.NotificationData) (string, error) {
	target := pushdomain.TokenTarget(token)
	tokens, err := u.resolver.Resolve(ctx, target)
	if err != nil {
		return "", err
	}

	msgID, err := u.sender.Send(ctx, tokens[0], notification)
	if err != nil {
		u.metrics.Delivered(target.Kind.String(), 0, 1)
		if code := fcm.CodeOf(err); fcm.IsPermanent(code) {
			u.metrics.DeadTokens(1)
			// the token is dead either way; a failed delete is only logged
			if _, pruneErr := u.pruner.Prune(ctx, []string{token}); pruneErr != nil {
				log.WithError(pruneErr).Warn("Failed to prune dead token after direct send")
			}
		}
		return "", err
	}
	u.metrics.Delivered(target.Kind.String(), 1, 0)
	return msgID, nil
}

func (u *pushUsecase) SendToUser(ctx context.Context, userID int64, notification fcm.NotificationData) (*pushdomain.SendResult, error) {
	return u.fanOut(ctx, pushdomain.UserTarget(userID), notification)
}

func (u *pushUsecase) SendToAll(ctx context.Context, notification fcm.NotificationData) (*pushdomain.SendResult, error) {
	return u.fanOut(ctx, pushdomain.BroadcastTarget(), notification)
}

// fanOut resolves target, dispatches in chunks and prunes dead tokens before returning
func (u *pushUsecase) fanOut(ctx context.Context, target pushdomain.Target, notification fcm.NotificationData) (*pushdomain.SendResult, error) {
	tokens, err := u.resolver.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		log.WithField("target", target.Kind.String()).Debug("No active tokens for target")
		return &pushdomain.SendResult{}, nil
	}

	dispatched, err := u.dispatcher.Dispatch(ctx, target.Kind.String(), tokens, notification)
	if err != nil {
		return nil, err
	}

	removed, err := u.pruner.Prune(ctx, dispatched.DeadTokens)
	if err != nil {
		// already logged per token; delivery counts are still valid
		log.WithError(err).Warnf("Pruned %d of %d dead tokens", removed, len(dispatched.DeadTokens))
	}

	return &pushdomain.SendResult{
		Sent:        dispatched.Sent,
		Failed:      dispatched.Failed,
		RemovedDead: removed,
	}, nil
}
