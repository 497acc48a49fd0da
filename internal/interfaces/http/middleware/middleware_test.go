package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_KeepsValidHeaderAndReplacesBadOnes(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestIDFromGin(c))
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"upstream id", "req-123_abc", true},
		{"missing", "", false},
		{"contains space", "bad id", false},
		{"contains newline", "bad\nid", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			assert.Equal(t, got, w.Body.String())
			if tt.keep {
				assert.Equal(t, tt.header, got)
			} else {
				assert.NotEqual(t, tt.header, got)
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestRecovery_WritesErrorEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusInternalServerError), body["code"])
	assert.Equal(t, "1007", body["error"].(map[string]any)["error_code"])
}

func TestHasAnyPrefix(t *testing.T) {
	assert.True(t, hasAnyPrefix("/metrics", untracedPaths))
	assert.True(t, hasAnyPrefix("/health", untracedPaths))
	assert.False(t, hasAnyPrefix("/v1/novels", untracedPaths))
	assert.False(t, hasAnyPrefix("/v1/novels", []string{""}))
}
