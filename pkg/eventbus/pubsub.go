package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"push-relay/pkg/logger"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var log = logger.For("PubSub")

// Message is one delivery received from a subscription
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes one message. The message is acked once the handler returns.
type Handler func(ctx context.Context, msg Message)

// Bus publishes to and consumes from Google Cloud Pub/Sub topics
type Bus struct {
	client      *pubsub.Client
	ackDeadline time.Duration

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// New creates a Pub/Sub client for projectID
func New(ctx context.Context, projectID, credentialsFile string, opts ...option.ClientOption) (*Bus, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *pubsub.Client) *Bus {
	return &Bus{
		client:      client,
		ackDeadline: 10 * time.Second,
		topics:      make(map[string]*pubsub.Topic),
	}
}

// EnsureTopic returns the topic, creating it if it does not exist yet
func (b *Bus) EnsureTopic(ctx context.Context, topicID string) (*pubsub.Topic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[topicID]; ok {
		return t, nil
	}

	topic := b.client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic %s: %w", topicID, err)
	}
	if !exists {
		created, err := b.client.CreateTopic(ctx, topicID)
		switch {
		case err == nil:
			topic = created
			log.Infof("Created topic: %s", topicID)
		case status.Code(err) == codes.AlreadyExists:
			// created concurrently by another instance
		default:
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
	}

	b.topics[topicID] = topic
	return topic, nil
}

// EnsureSubscription returns the subscription named groupID on topicID, creating both if needed
func (b *Bus) EnsureSubscription(ctx context.Context, topicID, groupID string) (*pubsub.Subscription, error) {
	topic, err := b.EnsureTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	sub := b.client.Subscription(groupID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription %s: %w", groupID, err)
	}
	if exists {
		return sub, nil
	}

	sub, err = b.client.CreateSubscription(ctx, groupID, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: b.ackDeadline,
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return b.client.Subscription(groupID), nil
		}
		return nil, fmt.Errorf("failed to create subscription %s: %w", groupID, err)
	}
	log.Infof("Created subscription: %s", groupID)
	return sub, nil
}

// Publish sends data to topicID and waits for the server-assigned message ID
func (b *Bus) Publish(ctx context.Context, topicID string, data []byte, attrs map[string]string) (string, error) {
	topic, err := b.EnsureTopic(ctx, topicID)
	if err != nil {
		return "", err
	}

	id, err := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message: %w", err)
	}
	return id, nil
}

// Subscribe receives messages for groupID one at a time until ctx is done.
// Every message is acked after handler returns.
func (b *Bus) Subscribe(ctx context.Context, topicID, groupID string, handler Handler) error {
	sub, err := b.EnsureSubscription(ctx, topicID, groupID)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	log.Infof("Listening for messages on subscription: %s", groupID)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		defer msg.Ack()
		handler(ctx, Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		})
	})
	if err != nil {
		return fmt.Errorf("error receiving messages: %w", err)
	}
	return nil
}

// Close stops cached topics and closes the client
func (b *Bus) Close() error {
	b.mu.Lock()
	for _, t := range b.topics {
		t.Stop()
	}
	b.topics = make(map[string]*pubsub.Topic)
	b.mu.Unlock()
	return b.client.Close()
}
