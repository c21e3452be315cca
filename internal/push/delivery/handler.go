package delivery

import (
	"net/http"

	pushdto "push-relay/internal/push/dto"
	"push-relay/internal/push/usecase"
	"push-relay/pkg/fcm"
	"push-relay/pkg/response"

	"github.com/gin-gonic/gin"
)

// PushHandler handles push delivery endpoints
type PushHandler struct {
	pushUsecase usecase.PushUsecase
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(pushUsecase usecase.PushUsecase) *PushHandler {
	return &PushHandler{
		pushUsecase: pushUsecase,
	}
}

// SendToToken sends a notification to a single device token
// POST /push/token
func (h *PushHandler) SendToToken(c *gin.Context) {
	var req pushdto.SendToTokenRequest
	if !response.BindJSON(c, &req) {
		return
	}

	notification, ok := buildNotification(c, req.Title, req.Body, req.Image, req.Data)
	if !ok {
		return
	}

	msgID, err := h.pushUsecase.SendToToken(c.Request.Context(), req.Token, notification)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.OK(c, gin.H{"msgId": msgID})
}

// SendToUser sends a notification to every active device of a user
// POST /push/user
func (h *PushHandler) SendToUser(c *gin.Context) {
	var req pushdto.SendToUserRequest
	if !response.BindJSON(c, &req) {
		return
	}

	notification, ok := buildNotification(c, req.Title, req.Body, req.Image, req.Data)
	if !ok {
		return
	}

	result, err := h.pushUsecase.SendToUser(c.Request.Context(), req.UserID, notification)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.OK(c, gin.H{
		"sent":        result.Sent,
		"failed":      result.Failed,
		"removedDead": result.RemovedDead,
	})
}

// SendToAll broadcasts a notification to every active device
// POST /push/all and POST /push/topic
func (h *PushHandler) SendToAll(c *gin.Context) {
	var req pushdto.BroadcastRequest
	if !response.BindJSON(c, &req) {
		return
	}

	notification, ok := buildNotification(c, req.Title, req.Body, req.Image, req.Data)
	if !ok {
		return
	}

	result, err := h.pushUsecase.SendToAll(c.Request.Context(), notification)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.OK(c, gin.H{
		"sent":   result.Sent,
		"failed": result.Failed,
	})
}

func buildNotification(c *gin.Context, title, body, image string, data map[string]any) (fcm.NotificationData, bool) {
	payload, err := pushdto.StringifyData(data)
	if err != nil {
		response.BadRequest(c, "invalid field(s): data")
		return fcm.NotificationData{}, false
	}
	return fcm.NotificationData{
		Title:    title,
		Body:     body,
		ImageURL: image,
		Data:     payload,
	}, true
}
