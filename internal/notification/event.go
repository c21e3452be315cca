package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	pushdto "push-relay/internal/push/dto"

	"github.com/google/uuid"
)

// EventTypeUserNotification is the only event kind the relay acts on
const EventTypeUserNotification = "user_notification"

var (
	ErrInvalidEvent  = errors.New("invalid event")
	ErrUnknownEvent  = errors.New("unknown event type")
	ErrInvalidUserID = errors.New("userId must be a positive integer")
)

// Envelope is the wire form of a bus event
type Envelope struct {
	Type    string          `json:"type"`
	UserID  json.RawMessage `json:"userId,omitempty"`
	Title   string          `json:"title,omitempty"`
	Body    string          `json:"body,omitempty"`
	Image   string          `json:"image,omitempty"`
	Data    map[string]any  `json:"data,omitempty"`
	Route   string          `json:"route,omitempty"`
	EventID string          `json:"eventId,omitempty"`
}

// UserNotification is a validated user_notification event
type UserNotification struct {
	EventID string
	UserID  int64
	Title   string
	Body    string
	Image   string
	Data    map[string]string
}

// ParseEvent decodes and validates raw. It returns ErrUnknownEvent for other event
// types and an error wrapping ErrInvalidEvent when the payload cannot be used.
func ParseEvent(raw []byte) (*UserNotification, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidEvent, err)
	}
	if env.Type != EventTypeUserNotification {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	userID, err := parseUserID(env.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	title := strings.TrimSpace(env.Title)
	body := strings.TrimSpace(env.Body)
	if title == "" || body == "" {
		return nil, fmt.Errorf("%w: title and body are required", ErrInvalidEvent)
	}

	data, err := pushdto.StringifyData(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if env.Route != "" {
		if data == nil {
			data = make(map[string]string, 1)
		}
		data["route"] = env.Route
	}

	return &UserNotification{
		EventID: env.EventID,
		UserID:  userID,
		Title:   title,
		Body:    body,
		Image:   sanitizeImageURL(env.Image),
		Data:    data,
	}, nil
}

// parseUserID accepts a JSON integer or a string holding one
func parseUserID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, ErrInvalidUserID
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, ErrInvalidUserID
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUserID
	}
	return id, nil
}

// sanitizeImageURL returns image if it is an absolute http(s) URL and "" otherwise
func sanitizeImageURL(image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	u, err := url.Parse(image)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return image
}

// NewUserNotificationEvent builds an outbound user_notification envelope with a fresh event ID
func NewUserNotificationEvent(userID int64, title, body, image, route string) ([]byte, string, error) {
	eventID := uuid.NewString()
	raw, err := json.Marshal(Envelope{
		Type:    EventTypeUserNotification,
		UserID:  json.RawMessage(strconv.FormatInt(userID, 10)),
		Title:   title,
		Body:    body,
		Image:   image,
		Route:   route,
		EventID: eventID,
	})
	if err != nil {
		return nil, "", err
	}
	return raw, eventID, nil
}
