package notification

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"push-relay/internal/push/usecase"
	"push-relay/pkg/eventbus"
	"push-relay/pkg/fcm"
	"push-relay/pkg/logger"
	"push-relay/pkg/metrics"
)

var log = logger.For("PubSub")

// subscriber is the part of *eventbus.Bus the service consumes
type subscriber interface {
	Subscribe(ctx context.Context, topicID, groupID string, handler eventbus.Handler) error
}

// Service turns user_notification events from the bus into user pushes
type Service struct {
	bus         subscriber
	topicName   string
	groupID     string
	pushUsecase usecase.PushUsecase
	deduper     Deduper
	metrics     *metrics.Metrics
}

// NewService creates the event consumer. deduper may be nil to process every delivery.
func NewService(bus subscriber, topicName, groupID string, pushUsecase usecase.PushUsecase, deduper Deduper, m *metrics.Metrics) *Service {
	return &Service{
		bus:         bus,
		topicName:   topicName,
		groupID:     groupID,
		pushUsecase: pushUsecase,
		deduper:     deduper,
		metrics:     m,
	}
}

// Start consumes events until ctx is canceled
func (s *Service) Start(ctx context.Context) error {
	log.Infof("Starting notification service with topic: %s, subscription: %s", s.topicName, s.groupID)
	err := s.bus.Subscribe(ctx, s.topicName, s.groupID, s.handleMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("Notification service stopped")
	return nil
}

// handleMessage never lets a failure escape; the bus acks every message after it returns
func (s *Service) handleMessage(ctx context.Context, msg eventbus.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.Event("error")
			log.WithField("messageId", msg.ID).Errorf("Recovered from panic while handling event: %v\n%s", r, debug.Stack())
		}
	}()

	outcome, err := s.process(ctx, msg)
	s.metrics.Event(outcome)
	entry := log.WithField("messageId", msg.ID)
	switch outcome {
	case "ignored":
		entry.Debugf("Ignoring event: %v", err)
	case "invalid":
		entry.Warnf("Dropping event: %v", err)
	case "error":
		entry.WithError(err).Error("Failed to dispatch event")
	}
}

func (s *Service) process(ctx context.Context, msg eventbus.Message) (string, error) {
	event, err := ParseEvent(msg.Data)
	if err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			return "ignored", err
		}
		return "invalid", err
	}

	key := event.EventID
	if key == "" {
		key = msg.ID
	}
	if s.deduper != nil && key != "" {
		first, err := s.deduper.FirstSeen(ctx, key)
		if err != nil {
			// prefer a possible duplicate over a lost notification
			log.WithError(err).Warn("Dedup check failed, processing event anyway")
		} else if !first {
			log.WithField("eventId", key).Debug("Skipping duplicate event")
			return "duplicate", nil
		}
	}

	result, err := s.pushUsecase.SendToUser(ctx, event.UserID, fcm.NotificationData{
		Title:    event.Title,
		Body:     event.Body,
		ImageURL: event.Image,
		Data:     event.Data,
		DataOnly: true,
		Priority: "high",
	})
	if err != nil {
		return "error", fmt.Errorf("user %d: %w", event.UserID, err)
	}

	log.WithField("userId", event.UserID).Infof("Event delivered: %d sent, %d failed, %d dead removed",
		result.Sent, result.Failed, result.RemovedDead)
	return "dispatched", nil
}
