package bot

import (
	"bytes"
	"io/ioutil"
	"net/http"

	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

// VerifySlackRequest rejects requests not signed with the app's signing secret
// https://api.slack.com/authentication/verifying-requests-from-slack
func VerifySlackRequest(signingSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		verifier, err := slack.NewSecretsVerifier(c.Request.Header, signingSecret)
		if err != nil {
			Logger.Log.Warnln("reject unsigned slack request", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		body, err := ioutil.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		// handlers read the body again
		c.Request.Body = ioutil.NopCloser(bytes.NewReader(body))

		if _, err := verifier.Write(body); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "fail to verify signature"})
			return
		}
		if err := verifier.Ensure(); err != nil {
			Logger.Log.Warnln("reject slack request with bad signature", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
