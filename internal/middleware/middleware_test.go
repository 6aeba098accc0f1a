package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/campus-market/internal/session"
	"github.com/javajoker/campus-market/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(sessions SessionChecker) *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware("en"))
	r.GET("/me", AuthRequired(sessions), func(c *gin.Context) {
		id, _ := utils.GetUserIDFromContext(c)
		c.String(http.StatusOK, id.String())
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	sessions := session.NewManager(time.Hour)
	r := protectedRouter(sessions)

	userID := uuid.New()
	s := sessions.Start(userID)
	token, err := utils.GenerateJWT(userID, s.ID, "ana@campus.edu", "Ana", s.ExpiresAt)
	require.NoError(t, err)

	w := get(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)

	sessions.End(s.ID)
	w = get(r, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHENTICATION_FAILED")
}

func TestAuthRequiredRejectsSessionOfAnotherUser(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	sessions := session.NewManager(time.Hour)
	s := sessions.Start(uuid.New())

	forged, err := utils.GenerateJWT(uuid.New(), s.ID, "eve@campus.edu", "Eve", s.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(protectedRouter(sessions), forged).Code)
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, "zh_TW", parseLanguage("zh-TW,zh;q=0.9,en;q=0.8", "en"))
	assert.Equal(t, "en", parseLanguage("en-IN", "zh_TW"))
	assert.Equal(t, "en", parseLanguage("fr-FR", "en"))
	assert.Equal(t, "en", parseLanguage("", "en"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterForgetsIdleVisitors(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(rate.Every(time.Hour), 1)
	rl.now = func() time.Time { return now }

	rl.getVisitor("10.0.0.1")
	now = now.Add(5 * time.Minute)
	rl.getVisitor("10.0.0.2")

	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestExtractResource(t *testing.T) {
	id := uuid.New().String()
	assert.Equal(t, "listings", extractResourceType("/v1/listings/"+id+"/contact"))
	assert.Equal(t, id, extractResourceID("/v1/listings/"+id+"/contact"))
	assert.Equal(t, "", extractResourceID("/v1/feed"))
}
