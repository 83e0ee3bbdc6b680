package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"sharedstreets/pkg/ssid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func formatEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(IDFormat(ssid.FormatHex))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetFormat(c).String())
	})
	return engine
}

func TestIDFormat(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		header string
		status int
		want   string
	}{
		{"default", "", "", http.StatusOK, "hex"},
		{"query", "?format=base58", "", http.StatusOK, "base58"},
		{"header", "", "base58", http.StatusOK, "base58"},
		{"query wins", "?format=hex", "base58", http.StatusOK, "hex"},
		{"unknown", "?format=base64", "", http.StatusBadRequest, ""},
	}

	engine := formatEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(FormatHeader, tt.header)
			}
			w := serve(engine, req)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.want, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"code":"INVALID_INPUT"`)
			}
		})
	}
}

func TestGetFormatWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, ssid.Format(""), GetFormat(c))
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, supplied)
	w = serve(engine, req)
	assert.Equal(t, supplied, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w = serve(engine, req)
	assert.NotEqual(t, "not a uuid", w.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	rl, err := NewRateLimiter(0.001, 1)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(rl.Middleware())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, http.StatusOK, serve(engine, first).Code)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.RemoteAddr = "10.0.0.1:1235"
	w := serve(engine, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(engine, other).Code, "limits are per client")
}

func TestNewRateLimiterRejectsNonPositive(t *testing.T) {
	_, err := NewRateLimiter(0, 1)
	assert.Error(t, err)
	_, err = NewRateLimiter(1, 0)
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	engine := gin.New()
	engine.Use(RequestID(), Logger(zap.New(core)), IDFormat(ssid.FormatBase58))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, "base58", entries[0].ContextMap()["format"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}
