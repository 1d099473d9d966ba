package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/donations", NewRateLimiter(perMinute).Limit(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	return router
}

func TestRateLimiter_AllowsBurstThenThrottles(t *testing.T) {
	router := newLimitedRouter(3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/donations", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donations", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, w.Body.String())
}

func TestRateLimiter_TracksClientsSeparately(t *testing.T) {
	router := newLimitedRouter(1)

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest(http.MethodPost, "/donations", nil)
	reqA.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(first, reqA)
	assert.Equal(t, http.StatusOK, first.Code)

	blocked := httptest.NewRecorder()
	reqA2 := httptest.NewRequest(http.MethodPost, "/donations", nil)
	reqA2.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(blocked, reqA2)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	other := httptest.NewRecorder()
	reqB := httptest.NewRequest(http.MethodPost, "/donations", nil)
	reqB.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(other, reqB)
	assert.Equal(t, http.StatusOK, other.Code)
}
