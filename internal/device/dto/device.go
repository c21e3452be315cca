package dto

type RegisterDeviceRequest struct {
	DeviceID   string  `json:"deviceId" binding:"required"`
	UserID     *int64  `json:"userId"`
	GameID     *int64  `json:"gameId"`
	FCMToken   string  `json:"fcmToken" binding:"required"`
	Platform   *string `json:"platform"`
	AppVersion *string `json:"appVersion"`
}

type RemoveDeviceRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
	FCMToken string `json:"fcmToken" binding:"required"`
	UserID   *int64 `json:"userId" binding:"required"`
	GameID   *int64 `json:"gameId" binding:"required"`
}
