package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/matlog/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenRoundTrip(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "utils-secret"})

	tok, err := GenerateToken("user-1", "a@example.com", false, time.Hour)
	require.NoError(t, err)
	claims, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.False(t, claims.IsAnonymous)
}

func TestParseTokenRejects(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "utils-secret"})

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"})
	forged, err := other.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)
	_, err = ParseToken(forged)
	assert.Error(t, err)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	signed, err := noSub.SignedString([]byte("utils-secret"))
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(unsigned)
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "hi there", PlainText("  <b>hi</b> there "))
	assert.Equal(t, "", PlainText("<script>alert(1)</script>"))
	assert.Equal(t, "Tom & Jerry", PlainText("Tom & Jerry"))
	assert.Equal(t, "x", PlainText(`<a href="https://x.example" onclick="evil()">x</a>`))
}

func TestCacheWithoutRedisIsNoop(t *testing.T) {
	SetRedis(nil)
	CacheSetJSON("k", map[string]int{"a": 1}, time.Minute)
	var v map[string]int
	assert.False(t, CacheGetJSON("k", &v))
	assert.NotPanics(t, func() {
		CacheDelete("k")
		InvalidateByPrefix("k")
	})
}

func TestRecoveryWithZap(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithZap(zap.NewNop(), true))
	r.GET("/boom", func(c *gin.Context) { panic(errors.New("boom")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":50000,"message":"internal server error"}`, w.Body.String())
}

func TestGinzapWritesAccessLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gin.log")
	logger, err := NewRollingFileLogger(path, "info", 1, 1, 1, false)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Ginzap(logger, time.RFC3339, true))
	r.GET("/ok", func(c *gin.Context) { Success(c, gin.H{"ok": true}) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, logger.Sync())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, path)

	_, err = NewRollingFileLogger("", "info", 0, 0, 0, false)
	assert.Error(t, err)
}

func TestAccepted(t *testing.T) {
	r := gin.New()
	r.POST("/a", Accepted)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/a", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"accepted"}`, w.Body.String())
}
