package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	devicedomain "push-relay/internal/device/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&devicedomain.Device{}))
	return db
}

func int64Ptr(v int64) *int64 { return &v }

func countRows(t *testing.T, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&devicedomain.Device{}).Where(query, args...).Count(&n).Error)
	return n
}

// findDevice returns nil when deviceID has no row
func findDevice(t *testing.T, db *gorm.DB, deviceID string) *devicedomain.Device {
	t.Helper()
	var devices []devicedomain.Device
	require.NoError(t, db.Where("device_id = ?", deviceID).Limit(1).Find(&devices).Error)
	if len(devices) == 0 {
		return nil
	}
	return &devices[0]
}

func seedDevice(t *testing.T, db *gorm.DB, d devicedomain.Device) {
	t.Helper()
	active := d.Active
	require.NoError(t, db.Create(&d).Error)
	// the column default would turn a zero-valued Active into true
	if !active {
		require.NoError(t, db.Model(&devicedomain.Device{}).Where("device_id = ?", d.DeviceID).Update("active", false).Error)
	}
}

func TestUpsertReplacesTokenInPlace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)

	_, err := repo.Upsert(ctx, &devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(7), GameID: int64Ptr(3), FCMToken: "tok-a"})
	require.NoError(t, err)
	saved, err := repo.Upsert(ctx, &devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(7), GameID: int64Ptr(3), FCMToken: "tok-b"})
	require.NoError(t, err)

	assert.Equal(t, "d1", saved.DeviceID)
	assert.Equal(t, "tok-b", saved.FCMToken)
	assert.True(t, saved.Active)
	require.NotNil(t, saved.UserID)
	assert.Equal(t, int64(7), *saved.UserID)

	assert.Equal(t, int64(1), countRows(t, db, "device_id = ?", "d1"))
	assert.Equal(t, int64(0), countRows(t, db, "fcm_token = ?", "tok-a"))

	tokens, err := repo.TokensForUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-b"}, tokens)
}

func TestUpsertReassignsTokenToNewDevice(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)

	_, err := repo.Upsert(ctx, &devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(1), FCMToken: "tok-t"})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &devicedomain.Device{DeviceID: "d2", UserID: int64Ptr(2), FCMToken: "tok-t"})
	require.NoError(t, err)

	assert.Nil(t, findDevice(t, db, "d1"))

	tokens, err := repo.TokensForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	tokens, err = repo.TokensForUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-t"}, tokens)
}

func TestUpsertReactivatesDevice(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	seedDevice(t, db, devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(5), FCMToken: "tok-old", Active: false})

	saved, err := repo.Upsert(ctx, &devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(5), FCMToken: "tok-new"})

	require.NoError(t, err)
	assert.True(t, saved.Active)
	assert.Equal(t, int64(1), countRows(t, db, "device_id = ? AND active = ?", "d1", true))
}

func TestUpsertRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saved, err := repo.Upsert(ctx, &devicedomain.Device{DeviceID: "d1", FCMToken: "tok-a"})

	require.Error(t, err)
	assert.Nil(t, saved)
	assert.Equal(t, int64(0), countRows(t, db, "device_id = ?", "d1"))
}

func TestUpsertRestoresReleasedTokenWhenInsertFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	seedDevice(t, db, devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(1), FCMToken: "tok-t", Active: true})

	// the token release and deactivation run, then the insert fails
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_create", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("boom"))
	})
	require.NoError(t, err)

	saved, err := repo.Upsert(ctx, &devicedomain.Device{DeviceID: "d2", UserID: int64Ptr(2), FCMToken: "tok-t"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Nil(t, saved)

	d1 := findDevice(t, db, "d1")
	require.NotNil(t, d1)
	assert.Equal(t, "tok-t", d1.FCMToken)
	assert.True(t, d1.Active)
	assert.Equal(t, int64(0), countRows(t, db, "device_id = ?", "d2"))
}

func TestTokensForUserSkipsInactiveDevices(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	seedDevice(t, db, devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(9), FCMToken: "tok-active", Active: true})
	seedDevice(t, db, devicedomain.Device{DeviceID: "d2", UserID: int64Ptr(9), FCMToken: "tok-inactive", Active: false})
	seedDevice(t, db, devicedomain.Device{DeviceID: "d3", UserID: int64Ptr(10), FCMToken: "tok-other", Active: true})
	seedDevice(t, db, devicedomain.Device{DeviceID: "d4", FCMToken: "tok-anonymous", Active: true})

	tokens, err := repo.TokensForUser(ctx, 9)

	require.NoError(t, err)
	assert.Equal(t, []string{"tok-active"}, tokens)
}

func TestActiveTokensPageOrdering(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedDevice(t, db, devicedomain.Device{DeviceID: "a", FCMToken: "tok-a", Active: true, UpdatedAt: base})
	seedDevice(t, db, devicedomain.Device{DeviceID: "b", FCMToken: "tok-b", Active: true, UpdatedAt: base.Add(time.Hour)})
	seedDevice(t, db, devicedomain.Device{DeviceID: "c", FCMToken: "tok-c", Active: true, UpdatedAt: base.Add(time.Hour)})
	seedDevice(t, db, devicedomain.Device{DeviceID: "d", FCMToken: "tok-d", Active: false, UpdatedAt: base.Add(2 * time.Hour)})
	seedDevice(t, db, devicedomain.Device{DeviceID: "e", FCMToken: "tok-e", Active: true, UpdatedAt: base.Add(-time.Hour)})

	first, err := repo.ActiveTokensPage(ctx, 2, 0)
	require.NoError(t, err)
	second, err := repo.ActiveTokensPage(ctx, 2, 2)
	require.NoError(t, err)
	third, err := repo.ActiveTokensPage(ctx, 2, 4)
	require.NoError(t, err)

	// b and c tie on updated_at and are ordered by device_id
	assert.Equal(t, []string{"tok-b", "tok-c"}, first)
	assert.Equal(t, []string{"tok-a", "tok-e"}, second)
	assert.Empty(t, third)

	count, err := repo.ActiveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestActiveTokensPagesCoverAllDevices(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		seedDevice(t, db, devicedomain.Device{
			DeviceID:  fmt.Sprintf("dev-%02d", i),
			FCMToken:  fmt.Sprintf("tok-%02d", i),
			Active:    true,
			UpdatedAt: base.Add(time.Duration(i%7) * time.Minute),
		})
	}

	seen := make(map[string]bool)
	for offset := 0; offset < 45; offset += 20 {
		page, err := repo.ActiveTokensPage(ctx, 20, offset)
		require.NoError(t, err)
		for _, tok := range page {
			assert.False(t, seen[tok], "token %s returned twice", tok)
			seen[tok] = true
		}
	}
	assert.Len(t, seen, 45)
}

func TestDeleteByToken(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	seedDevice(t, db, devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(1), FCMToken: "tok-dead", Active: true})

	require.NoError(t, repo.DeleteByToken(ctx, "tok-dead"))
	require.NoError(t, repo.DeleteByToken(ctx, "tok-never-registered"))

	assert.Equal(t, int64(0), countRows(t, db, "fcm_token = ?", "tok-dead"))
	tokens, err := repo.TokensForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestDeleteByIdentifiers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	seedDevice(t, db, devicedomain.Device{DeviceID: "d1", UserID: int64Ptr(7), GameID: int64Ptr(3), FCMToken: "tok-a", Active: false})

	t.Run("non-matching tuple removes nothing", func(t *testing.T) {
		removed, err := repo.DeleteByIdentifiers(ctx, "d1", "tok-a", 7, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(0), removed)
		assert.Equal(t, int64(1), countRows(t, db, "device_id = ?", "d1"))
	})

	t.Run("exact match removes inactive device", func(t *testing.T) {
		removed, err := repo.DeleteByIdentifiers(ctx, "d1", "tok-a", 7, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assert.Equal(t, int64(0), countRows(t, db, "device_id = ?", "d1"))
	})
}
