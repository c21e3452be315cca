package fcm

import (
	"context"
	"errors"
	"fmt"

	"push-relay/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var log = logger.For("FCM")

// messagingClient is the subset of *messaging.Client used by Client
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient messagingClient
}

// NewClient creates a new FCM client using the provided credentials file.
// An empty path falls back to application default credentials.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Info("Client initialized successfully")
	return &Client{messagingClient: mc}, nil
}

// NewClientWithMessaging builds a Client around an existing messaging client
func NewClientWithMessaging(mc messagingClient) *Client {
	return &Client{messagingClient: mc}
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title    string
	Body     string
	ImageURL string            // Optional notification image
	Data     map[string]string // Custom data payload
	// DataOnly moves title, body and image into Data and omits the display notification
	DataOnly bool
	// Priority is a delivery hint, "high" or "normal"
	Priority string
}

// SendResult is the outcome for one token of a multicast call
type SendResult struct {
	Success   bool
	MessageID string
	ErrorCode string
	Err       error
}

// BatchResponse mirrors messaging.BatchResponse with classified error codes
type BatchResponse struct {
	SuccessCount int
	FailureCount int
	Responses    []SendResult
}

// Send sends a push notification to a single device token and returns the provider message ID.
// Provider failures are returned as *SendError.
func (c *Client) Send(ctx context.Context, token string, notification NotificationData) (string, error) {
	p := buildPayload(notification)
	message := &messaging.Message{
		Token:        token,
		Notification: p.notification,
		Data:         p.data,
		Android:      p.android,
		APNS:         p.apns,
		Webpush:      p.webpush,
	}

	response, err := c.messagingClient.Send(ctx, message)
	if err != nil {
		return "", &SendError{Code: ErrorCode(err), Err: err}
	}

	log.Debugf("Message sent successfully: %s", response)
	return response, nil
}

// SendMulticast sends one notification to at most 500 tokens.
// The returned error is set only when the call as a whole failed.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, notification NotificationData) (*BatchResponse, error) {
	if len(tokens) == 0 {
		return &BatchResponse{}, nil
	}

	p := buildPayload(notification)
	message := &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: p.notification,
		Data:         p.data,
		Android:      p.android,
		APNS:         p.apns,
		Webpush:      p.webpush,
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	log.Debugf("Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)

	result := &BatchResponse{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
		Responses:    make([]SendResult, len(response.Responses)),
	}
	for i, resp := range response.Responses {
		r := SendResult{Success: resp.Success, MessageID: resp.MessageID}
		if !resp.Success {
			r.Err = resp.Error
			r.ErrorCode = ErrorCode(resp.Error)
		}
		result.Responses[i] = r
	}
	return result, nil
}

// payload holds the message parts shared by single and multicast sends
type payload struct {
	notification *messaging.Notification
	data         map[string]string
	android      *messaging.AndroidConfig
	apns         *messaging.APNSConfig
	webpush      *messaging.WebpushConfig
}

func buildPayload(n NotificationData) payload {
	var p payload
	if n.DataOnly {
		p.data = dataOnlyPayload(n)
		p.apns = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{ContentAvailable: true}},
		}
	} else {
		p.notification = &messaging.Notification{
			Title:    n.Title,
			Body:     n.Body,
			ImageURL: n.ImageURL,
		}
		p.data = n.Data
		p.webpush = &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Image: n.ImageURL,
			},
		}
	}

	if n.Priority == "high" {
		p.android = &messaging.AndroidConfig{Priority: "high"}
		if p.apns == nil {
			p.apns = &messaging.APNSConfig{}
		}
		p.apns.Headers = map[string]string{"apns-priority": "10"}
		if p.webpush == nil {
			p.webpush = &messaging.WebpushConfig{}
		}
		p.webpush.Headers = map[string]string{"Urgency": "high"}
	}
	return p
}

func dataOnlyPayload(n NotificationData) map[string]string {
	data := make(map[string]string, len(n.Data)+3)
	for k, v := range n.Data {
		data[k] = v
	}
	data["title"] = n.Title
	data["body"] = n.Body
	if n.ImageURL != "" {
		data["image"] = n.ImageURL
	}
	return data
}

// SendError carries the classified provider code of a failed single send
type SendError struct {
	Code string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send FCM message (%s): %v", e.Code, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// CodeOf returns the provider code carried by err, or "" when err is not a *SendError
func CodeOf(err error) string {
	var se *SendError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
