package delivery

import (
	"errors"
	"net/http"

	devicedto "push-relay/internal/device/dto"
	"push-relay/internal/device/usecase"
	"push-relay/pkg/response"

	"github.com/gin-gonic/gin"
)

// DeviceHandler handles device registration endpoints
type DeviceHandler struct {
	deviceUsecase usecase.DeviceUsecase
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceUsecase usecase.DeviceUsecase) *DeviceHandler {
	return &DeviceHandler{
		deviceUsecase: deviceUsecase,
	}
}

// Register registers or refreshes a device
// POST /devices/register
func (h *DeviceHandler) Register(c *gin.Context) {
	var req devicedto.RegisterDeviceRequest
	if !response.BindJSON(c, &req) {
		return
	}

	device, err := h.deviceUsecase.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidDevice) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.OK(c, gin.H{
		"deviceId": device.DeviceID,
		"userId":   device.UserID,
		"fcmToken": device.FCMToken,
	})
}

// Remove deletes the device matching deviceId, fcmToken, userId and gameId
// POST /devices/remove
func (h *DeviceHandler) Remove(c *gin.Context) {
	var req devicedto.RemoveDeviceRequest
	if !response.BindJSON(c, &req) {
		return
	}

	removed, err := h.deviceUsecase.Remove(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidDevice) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.OK(c, gin.H{"removed": removed})
}
