package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	devicedomain "push-relay/internal/device/domain"
	devicedto "push-relay/internal/device/dto"
	"push-relay/internal/device/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeviceUsecase struct {
	register func(req *devicedto.RegisterDeviceRequest) (*devicedomain.Device, error)
	remove   func(req *devicedto.RemoveDeviceRequest) (int64, error)
}

func (f *fakeDeviceUsecase) Register(_ context.Context, req *devicedto.RegisterDeviceRequest) (*devicedomain.Device, error) {
	return f.register(req)
}

func (f *fakeDeviceUsecase) Remove(_ context.Context, req *devicedto.RemoveDeviceRequest) (int64, error) {
	return f.remove(req)
}

func newTestRouter(uc usecase.DeviceUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDeviceHandler(uc)
	r := gin.New()
	r.POST("/devices/register", h.Register)
	r.POST("/devices/remove", h.Remove)
	return r
}

func doJSON(r http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRegisterHandler(t *testing.T) {
	uc := &fakeDeviceUsecase{
		register: func(req *devicedto.RegisterDeviceRequest) (*devicedomain.Device, error) {
			if req.DeviceID == "broken" {
				return nil, errors.New("database is closed")
			}
			if req.DeviceID == "blank" {
				return nil, errors.Join(usecase.ErrInvalidDevice, errors.New("deviceId and fcmToken must not be blank"))
			}
			return &devicedomain.Device{DeviceID: req.DeviceID, UserID: req.UserID, FCMToken: req.FCMToken, Active: true}, nil
		},
	}
	r := newTestRouter(uc)

	t.Run("registers device", func(t *testing.T) {
		w, body := doJSON(r, "/devices/register", `{"deviceId":"d1","userId":7,"fcmToken":"tok-a"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "d1", body["deviceId"])
		assert.Equal(t, float64(7), body["userId"])
		assert.Equal(t, "tok-a", body["fcmToken"])
	})

	t.Run("missing fields are named", func(t *testing.T) {
		w, body := doJSON(r, "/devices/register", `{"userId":7}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "missing required field(s): deviceId, fcmToken", body["message"])
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/devices/register", strings.NewReader(""))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing required field(s)")
	})

	t.Run("usecase validation error", func(t *testing.T) {
		w, body := doJSON(r, "/devices/register", `{"deviceId":"blank","fcmToken":"tok"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, body["message"], "must not be blank")
	})

	t.Run("storage failure", func(t *testing.T) {
		w, body := doJSON(r, "/devices/register", `{"deviceId":"broken","fcmToken":"tok"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "database is closed", body["error"])
	})
}

func TestRemoveHandler(t *testing.T) {
	var got *devicedto.RemoveDeviceRequest
	uc := &fakeDeviceUsecase{
		remove: func(req *devicedto.RemoveDeviceRequest) (int64, error) {
			got = req
			if req.DeviceID == "d1" && *req.GameID == 3 {
				return 1, nil
			}
			return 0, nil
		},
	}
	r := newTestRouter(uc)

	w, body := doJSON(r, "/devices/remove", `{"deviceId":"d1","fcmToken":"tok-a","userId":7,"gameId":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["removed"])
	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got.UserID)

	w, body = doJSON(r, "/devices/remove", `{"deviceId":"d1","fcmToken":"tok-a","userId":7,"gameId":4}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["removed"])

	w, body = doJSON(r, "/devices/remove", `{"deviceId":"d1","fcmToken":"tok-a"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing required field(s): userId, gameId", body["message"])
}
