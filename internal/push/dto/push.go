package dto

import (
	"encoding/json"
	"fmt"
)

type SendToTokenRequest struct {
	Token string         `json:"token" binding:"required"`
	Title string         `json:"title" binding:"required"`
	Body  string         `json:"body" binding:"required"`
	Image string         `json:"image"`
	Data  map[string]any `json:"data"`
}

type SendToUserRequest struct {
	UserID int64          `json:"userId" binding:"required,gt=0"`
	Title  string         `json:"title" binding:"required"`
	Body   string         `json:"body" binding:"required"`
	Image  string         `json:"image"`
	Data   map[string]any `json:"data"`
}

type BroadcastRequest struct {
	Title string         `json:"title" binding:"required"`
	Body  string         `json:"body" binding:"required"`
	Image string         `json:"image"`
	Data  map[string]any `json:"data"`
}

// StringifyData converts a JSON data object into the string map FCM accepts.
// Strings are kept as is, everything else is JSON-encoded.
func StringifyData(data map[string]any) (map[string]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("data.%s: %w", k, err)
		}
		out[k] = string(encoded)
	}
	return out, nil
}
