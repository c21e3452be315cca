package usecase

import (
	"context"
	"errors"
	"strings"

	devicedomain "push-relay/internal/device/domain"
	devicedto "push-relay/internal/device/dto"
	"push-relay/internal/device/repository"
	"push-relay/pkg/logger"
)

var log = logger.For("Devices")

// ErrInvalidDevice is returned for requests that fail validation
var ErrInvalidDevice = errors.New("invalid device")

// DeviceUsecase defines the interface for device registration use cases
type DeviceUsecase interface {
	Register(ctx context.Context, req *devicedto.RegisterDeviceRequest) (*devicedomain.Device, error)
	Remove(ctx context.Context, req *devicedto.RemoveDeviceRequest) (int64, error)
}

// deviceUsecase implements DeviceUsecase interface
type deviceUsecase struct {
	deviceRepo repository.DeviceRepository
}

// NewDeviceUsecase creates a new instance of deviceUsecase
func NewDeviceUsecase(deviceRepo repository.DeviceRepository) DeviceUsecase {
	return &deviceUsecase{
		deviceRepo: deviceRepo,
	}
}

func (u *deviceUsecase) Register(ctx context.Context, req *devicedto.RegisterDeviceRequest) (*devicedomain.Device, error) {
	deviceID := strings.TrimSpace(req.DeviceID)
	token := strings.TrimSpace(req.FCMToken)
	if deviceID == "" || token == "" {
		return nil, errors.Join(ErrInvalidDevice, errors.New("deviceId and fcmToken must not be blank"))
	}

	device, err := u.deviceRepo.Upsert(ctx, &devicedomain.Device{
		DeviceID:   deviceID,
		UserID:     req.UserID,
		GameID:     req.GameID,
		FCMToken:   token,
		Platform:   req.Platform,
		AppVersion: req.AppVersion,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("deviceId", device.DeviceID).Debug("Device registered")
	return device, nil
}

func (u *deviceUsecase) Remove(ctx context.Context, req *devicedto.RemoveDeviceRequest) (int64, error) {
	if req.UserID == nil || req.GameID == nil {
		return 0, errors.Join(ErrInvalidDevice, errors.New("userId and gameId are required"))
	}

	removed, err := u.deviceRepo.DeleteByIdentifiers(ctx, req.DeviceID, req.FCMToken, *req.UserID, *req.GameID)
	if err != nil {
		return 0, err
	}

	log.WithField("deviceId", req.DeviceID).Debugf("Removed %d device(s)", removed)
	return removed, nil
}
