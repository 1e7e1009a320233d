package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/api/middleware"
	"github.com/taoyao-code/thingpark-broker/internal/codec"
	"github.com/taoyao-code/thingpark-broker/internal/datalogger"
	"github.com/taoyao-code/thingpark-broker/internal/decoder"
	"github.com/taoyao-code/thingpark-broker/internal/ingest"
	pgstorage "github.com/taoyao-code/thingpark-broker/internal/storage/pg"
)

type fakeUplinkService struct {
	got ingest.Uplink
	out *ingest.Outcome
	err error
}

func (f *fakeUplinkService) Handle(_ context.Context, up ingest.Uplink) (*ingest.Outcome, error) {
	f.got = up
	return f.out, f.err
}

type fakeWriter struct{ saved *datalogger.Datalogger }

func (f *fakeWriter) Save(_ context.Context, d *datalogger.Datalogger) error {
	f.saved = d
	return nil
}

type fakeUplinks struct{ list []pgstorage.Uplink }

func (f *fakeUplinks) LatestUplinks(_ context.Context, _ string, limit int) ([]pgstorage.Uplink, error) {
	if limit < len(f.list) {
		return f.list[:limit], nil
	}
	return f.list, nil
}

func setupRouter(t *testing.T, svc UplinkService, writer DataloggerWriter, uplinks UplinkQuery) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := datalogger.ParseFile([]byte("dataloggers:\n  - devid: 70B3D57BA0000001\n    name: probe\n"))
	require.NoError(t, err)

	logger := zap.NewNop()
	r := gin.New()
	RegisterRoutes(r, Handlers{
		Uplinks:     NewUplinkHandler(svc, logger),
		Decoders:    NewDecoderHandler(decoder.NewRegistry(decoder.NewDecentlab())),
		Dataloggers: NewDataloggerHandler(store, writer, uplinks, logger),
	}, middleware.AuthConfig{}, middleware.NewRateLimiter(1000, 1000), logger)
	return r
}

func request(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUplink_Receive(t *testing.T) {
	svc := &fakeUplinkService{out: &ingest.Outcome{Decoder: "decentlab", Data: map[string]any{"batt": 3.037}}}
	r := setupRouter(t, svc, nil, nil)

	w := request(r, http.MethodPost, "/api/v1/uplinks", gin.H{"DevEUI_uplink": gin.H{
		"Time":        "2019-03-19T04:52:52.652+00:00",
		"DevEUI":      "70b3d57ba0000001",
		"FPort":       1,
		"FCntUp":      42,
		"payload_hex": "0212E600020BDD",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "70B3D57BA0000001", svc.got.DevEUI)
	assert.Equal(t, int64(42), svc.got.FCnt)
	assert.Equal(t, time.Date(2019, 3, 19, 4, 52, 52, 652000000, time.UTC), svc.got.Time.UTC())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "decentlab", resp["decoder"])
}

func TestUplink_ReceiveErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   any
		status int
	}{
		{"缺少字段", nil, gin.H{"DevEUI_uplink": gin.H{"DevEUI": "A"}}, http.StatusBadRequest},
		{"时间格式错误", nil, gin.H{"DevEUI_uplink": gin.H{"DevEUI": "A", "payload_hex": "00", "Time": "yesterday"}}, http.StatusBadRequest},
		{"设备未登记", datalogger.ErrNotFound, gin.H{"DevEUI_uplink": gin.H{"DevEUI": "A", "payload_hex": "00"}}, http.StatusNotFound},
		{"解码失败", ingest.ErrDecode, gin.H{"DevEUI_uplink": gin.H{"DevEUI": "A", "payload_hex": "00"}}, http.StatusUnprocessableEntity},
		{"内部错误", errors.New("boom"), gin.H{"DevEUI_uplink": gin.H{"DevEUI": "A", "payload_hex": "00"}}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(t, &fakeUplinkService{err: tt.err}, nil, nil)
			w := request(r, http.MethodPost, "/api/v1/uplinks", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestDecoders_ListAndDecode(t *testing.T) {
	r := setupRouter(t, &fakeUplinkService{}, nil, nil)

	w := request(r, http.MethodGet, "/api/v1/decoders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"decentlab"`)

	w = request(r, http.MethodPost, "/api/v1/decoders/decentlab/decode", gin.H{"payload_hex": "0212E60003465080CE00000BDD"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Result struct {
			DeviceID     int                        `json:"device_id"`
			Measurements map[string]json.RawMessage `json:"measurements"`
		} `json:"result"`
		Data map[string]float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4838, resp.Result.DeviceID)
	assert.Len(t, resp.Result.Measurements, 5)
	assert.Len(t, resp.Data, 4)
	assert.InDelta(t, 3.037, resp.Data["batt"], 1e-9)

	w = request(r, http.MethodPost, "/api/v1/decoders/decentlab/decode", gin.H{"payload_hex": "0112E60003465080CE00000BDD"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "doesn't match v2")

	w = request(r, http.MethodPost, "/api/v1/decoders/nope/decode", gin.H{"payload_hex": "00"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(r, http.MethodPost, "/api/v1/decoders/decentlab/decode", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecoders_DecodeCBOR(t *testing.T) {
	r := setupRouter(t, &fakeUplinkService{}, nil, nil)

	body, _ := json.Marshal(gin.H{"payload_hex": "0212E600020BDD"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decoders/decentlab/decode", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", codec.ContentTypeCBOR)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, codec.ContentTypeCBOR, w.Header().Get("Content-Type"))
	var doc map[string]any
	require.NoError(t, codec.UnmarshalCBOR(w.Body.Bytes(), &doc))
	assert.Equal(t, "decentlab", doc["decoder"])
	data := doc["data"].(map[string]any)
	assert.InDelta(t, 3.037, data["batt"], 1e-9)
}

func TestDataloggers_GetPut(t *testing.T) {
	writer := &fakeWriter{}
	r := setupRouter(t, &fakeUplinkService{}, writer, nil)

	w := request(r, http.MethodGet, "/api/v1/dataloggers/70b3d57ba0000001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"probe"`)

	w = request(r, http.MethodGet, "/api/v1/dataloggers/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(r, http.MethodPut, "/api/v1/dataloggers/abc123", gin.H{"name": "new", "lat": 60.1, "forwards": []gin.H{{"url": "http://x"}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, writer.saved)
	assert.Equal(t, "ABC123", writer.saved.DevID)
	assert.Equal(t, "http://x", writer.saved.Forwards[0].URL)

	// 只读模式
	r = setupRouter(t, &fakeUplinkService{}, nil, nil)
	w = request(r, http.MethodPut, "/api/v1/dataloggers/abc123", gin.H{"name": "new"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestDataloggers_Uplinks(t *testing.T) {
	id := uuid.New()
	q := &fakeUplinks{list: []pgstorage.Uplink{
		{ID: id, DevEUI: "D1", FCnt: 2, PayloadHex: "0212E600020BDD", Decoded: []byte(`{"x":1}`)},
		{ID: uuid.New(), DevEUI: "D1", FCnt: 1, DecodeError: "truncated header"},
	}}
	r := setupRouter(t, &fakeUplinkService{}, nil, q)

	w := request(r, http.MethodGet, "/api/v1/dataloggers/d1/uplinks?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), id.String())
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = request(r, http.MethodGet, "/api/v1/dataloggers/d1/uplinks?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = setupRouter(t, &fakeUplinkService{}, nil, nil)
	w = request(r, http.MethodGet, "/api/v1/dataloggers/d1/uplinks", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

// 未认证请求被拒绝时不消耗限流令牌
func TestRoutes_AuthBeforeRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := datalogger.ParseFile([]byte("dataloggers:\n  - devid: 70B3D57BA0000001\n"))
	require.NoError(t, err)
	limiter := middleware.NewRateLimiter(1, 1)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Uplinks:     NewUplinkHandler(&fakeUplinkService{}, zap.NewNop()),
		Decoders:    NewDecoderHandler(decoder.NewRegistry(decoder.NewDecentlab())),
		Dataloggers: NewDataloggerHandler(store, nil, nil, zap.NewNop()),
	}, middleware.AuthConfig{Enabled: true, APIKeys: []string{"secret"}}, limiter, zap.NewNop())

	for i := 0; i < 5; i++ {
		w := request(r, http.MethodGet, "/api/v1/decoders", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	assert.Zero(t, limiter.RejectedCount())

	w := request(r, http.MethodGet, "/api/v1/decoders?apikey=secret", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
