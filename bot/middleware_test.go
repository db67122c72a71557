package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func sign(secret string, timestamp string, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func newVerifiedRouter() *gin.Engine {
	router := gin.New()
	router.Use(VerifySlackRequest(testSigningSecret))
	router.POST("/bot/cmd", func(c *gin.Context) {
		// the body is still readable after verification
		body, _ := ioutil.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return router
}

func signedRequest(body string, timestamp string, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/bot/cmd", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if timestamp != "" {
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	}
	if signature != "" {
		req.Header.Set("X-Slack-Signature", signature)
	}
	return req
}

func TestVerifySlackRequest(t *testing.T) {
	router := newVerifiedRouter()
	body := "command=%2Fchannel&text=hi"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(body, timestamp, sign(testSigningSecret, timestamp, body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.String())
}

func TestVerifySlackRequestRejectsBadSignature(t *testing.T) {
	router := newVerifiedRouter()
	body := "command=%2Fchannel&text=hi"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(body, timestamp, sign("another secret", timestamp, body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a body changed after signing
	w = httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(body+"&x=1", timestamp, sign(testSigningSecret, timestamp, body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifySlackRequestRejectsMissingHeaders(t *testing.T) {
	router := newVerifiedRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest("text=hi", "", ""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifySlackRequestRejectsStaleTimestamp(t *testing.T) {
	router := newVerifiedRouter()
	body := "text=hi"
	timestamp := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(body, timestamp, sign(testSigningSecret, timestamp, body)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
