package repository

import (
	"context"
	"fmt"
	"time"

	devicedomain "push-relay/internal/device/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository defines the interface for device registry operations
type DeviceRepository interface {
	// Upsert registers a device, releasing its token from any other device first
	Upsert(ctx context.Context, device *devicedomain.Device) (*devicedomain.Device, error)
	// TokensForUser returns the tokens of a user's active devices
	TokensForUser(ctx context.Context, userID int64) ([]string, error)
	// ActiveTokensPage returns one page of active tokens, most recently updated first
	ActiveTokensPage(ctx context.Context, limit, offset int) ([]string, error)
	// ActiveCount returns the number of active devices
	ActiveCount(ctx context.Context) (int64, error)
	// DeleteByToken removes the device holding token, if any
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByIdentifiers removes the device matching all four identifiers and returns rows affected
	DeleteByIdentifiers(ctx context.Context, deviceID, token string, userID, gameID int64) (int64, error)
}

// deviceRepository implements DeviceRepository interface
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new instance of deviceRepository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

// Upsert runs token release, soft reset and upsert in one transaction
func (r *deviceRepository) Upsert(ctx context.Context, device *devicedomain.Device) (*devicedomain.Device, error) {
	var stored devicedomain.Device
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// fcm_token is globally unique, so a reused token leaves its previous device
		err := tx.Where("fcm_token = ? AND device_id <> ?", device.FCMToken, device.DeviceID).
			Delete(&devicedomain.Device{}).Error
		if err != nil {
			return fmt.Errorf("failed to release token from other devices: %w", err)
		}

		err = tx.Model(&devicedomain.Device{}).
			Where("device_id = ?", device.DeviceID).
			Update("active", false).Error
		if err != nil {
			return fmt.Errorf("failed to deactivate device: %w", err)
		}

		row := *device
		row.Active = true
		row.UpdatedAt = time.Now()
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "game_id", "fcm_token", "platform", "app_version", "active", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to upsert device: %w", err)
		}

		return tx.Where("device_id = ?", device.DeviceID).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *deviceRepository) TokensForUser(ctx context.Context, userID int64) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&devicedomain.Device{}).
		Where("user_id = ? AND active = ?", userID, true).
		Order("updated_at DESC, device_id ASC").
		Pluck("fcm_token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// ActiveTokensPage orders by updated_at DESC with device_id as tie-breaker so pages are stable
func (r *deviceRepository) ActiveTokensPage(ctx context.Context, limit, offset int) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&devicedomain.Device{}).
		Where("active = ?", true).
		Order("updated_at DESC, device_id ASC").
		Limit(limit).Offset(offset).
		Pluck("fcm_token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *deviceRepository) ActiveCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&devicedomain.Device{}).
		Where("active = ?", true).
		Count(&total).Error
	return total, err
}

func (r *deviceRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("fcm_token = ?", token).Delete(&devicedomain.Device{}).Error
}

func (r *deviceRepository) DeleteByIdentifiers(ctx context.Context, deviceID, token string, userID, gameID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("device_id = ? AND fcm_token = ? AND user_id = ? AND game_id = ?", deviceID, token, userID, gameID).
		Delete(&devicedomain.Device{})
	return res.RowsAffected, res.Error
}
