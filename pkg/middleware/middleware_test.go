package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/authenticating"
	"github.com/vfg2006/metrics-api/internal/usecases/authenticating/mocks"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
	"github.com/vfg2006/metrics-api/pkg/log"
	"go.uber.org/mock/gomock"
)

func init() {
	log.SetupTestLogger()
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		header     string
		setup      func(m *mocks.MockAuthenticator)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "healthcheck é público",
			path:       "/healthcheck",
			wantStatus: http.StatusOK,
		},
		{
			name:       "sem header",
			path:       "/v1/metrics/orders/headline",
			wantStatus: http.StatusUnauthorized,
			wantCode:   apiErrors.ErrInvalidToken,
		},
		{
			name:       "sem Bearer",
			path:       "/v1/metrics/orders/headline",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
			wantCode:   apiErrors.ErrInvalidToken,
		},
		{
			name:   "token expirado",
			path:   "/v1/metrics/orders/headline",
			header: "Bearer velho",
			setup: func(m *mocks.MockAuthenticator) {
				m.EXPECT().ValidateToken("velho").Return(nil,
					authenticating.NewAuthError(authenticating.ErrExpiredToken, apiErrors.ErrExpiredToken, ""))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   apiErrors.ErrExpiredToken,
		},
		{
			name:   "token válido",
			path:   "/v1/metrics/orders/headline",
			header: "Bearer bom",
			setup: func(m *mocks.MockAuthenticator) {
				m.EXPECT().ValidateToken("bom").Return(&domain.Claims{Name: "dashboard"}, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			auth := mocks.NewMockAuthenticator(ctrl)
			if tt.setup != nil {
				tt.setup(auth)
			}

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(auth)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Contains(t, rec.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_StoresClaims(t *testing.T) {
	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthenticator(ctrl)
	auth.EXPECT().ValidateToken("bom").Return(&domain.Claims{Name: "dashboard"}, nil)

	var got *domain.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshots", nil)
	req.Header.Set("Authorization", "Bearer bom")
	AuthMiddleware(auth)(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "dashboard", got.Name)
}

func TestCors(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"origem liberada", []string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000"},
		{"origem bloqueada", []string{"http://localhost:3000"}, "http://evil.test", ""},
		{"curinga", []string{"*"}, "http://qualquer.test", "http://qualquer.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/snapshots", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			Cors(tt.allowed)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCors_Preflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/v1/snapshots", nil)
	rec := httptest.NewRecorder()
	Cors([]string{"*"})(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
}

func TestLoggingMiddleware_CorrelationID(t *testing.T) {
	incoming := uuid.New().String()

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshots", nil)
	req.Header.Set("X-Request-ID", incoming)
	rec := httptest.NewRecorder()
	LoggingMiddleware()(next).ServeHTTP(rec, req)

	assert.Equal(t, incoming, seen)
	assert.Equal(t, incoming, rec.Header().Get("X-Correlation-ID"))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLogPanicMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	LogPanicMiddleware()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apiErrors.ErrInternalServer)
}

func TestRequestFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/metrics/orders,payments/aggregate", nil)
	fields := requestFields(r, "id")
	assert.Equal(t, "orders,payments", fields["dataset"])
	assert.Equal(t, "id", fields["correlation_id"])

	r = httptest.NewRequest(http.MethodGet, "/v1/snapshots", nil)
	_, ok := requestFields(r, "id")["dataset"]
	assert.False(t, ok)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, levelFor(http.StatusOK))
	assert.Equal(t, logrus.WarnLevel, levelFor(http.StatusNotFound))
	assert.Equal(t, logrus.ErrorLevel, levelFor(http.StatusGatewayTimeout))
}

func TestLoggingResponseWriterCountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	lrw := newLoggingResponseWriter(rec)

	_, _ = lrw.Write([]byte("hello"))
	_, _ = lrw.Write([]byte("!"))

	assert.Equal(t, 6, lrw.written)
	assert.Equal(t, http.StatusOK, lrw.statusCode)
}
