package domain

import "time"

// Device is one registered client installation
type Device struct {
	DeviceID   string    `json:"deviceId" gorm:"column:device_id;primaryKey"`
	UserID     *int64    `json:"userId" gorm:"column:user_id;index:idx_devices_user_game_active"`
	GameID     *int64    `json:"gameId,omitempty" gorm:"column:game_id;index:idx_devices_user_game_active"`
	FCMToken   string    `json:"fcmToken" gorm:"column:fcm_token;uniqueIndex:idx_devices_fcm_token;not null"`
	Platform   *string   `json:"platform,omitempty" gorm:"column:platform"`
	AppVersion *string   `json:"appVersion,omitempty" gorm:"column:app_version"`
	Active     bool      `json:"active" gorm:"column:active;not null;default:true;index:idx_devices_user_game_active"`
	CreatedAt  time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Device) TableName() string {
	return "devices"
}
