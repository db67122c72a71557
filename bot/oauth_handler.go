package bot

// This handler is to handle oauth requests when a user installs the app with
// an incoming webhook, the webhook becomes theirs for the picked channel
// https://api.slack.com/authentication/oauth-v2

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Luismorlan/pingbot/model"
	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultOAuthAccessURL = "https://slack.com/api/oauth.v2.access"
	oauthTimeout          = 10 * time.Second
)

type OAuthSetting struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Optional, defaults to slack's oauth.v2.access.
	AccessURL string
	// Optional, defaults to 10s.
	Timeout time.Duration
}

type SlackAuthedUser struct {
	ID string `json:"id"`
}

type SlackIncomingWebhook struct {
	Channel   string `json:"channel"`
	ChannelId string `json:"channel_id"`
	Url       string `json:"url"`
}

type SlackOAuthResponse struct {
	Ok              bool                 `json:"ok"`
	Error           string               `json:"error"`
	AppId           string               `json:"app_id"`
	AuthedUser      SlackAuthedUser      `json:"authed_user"`
	IncomingWebhook SlackIncomingWebhook `json:"incoming_webhook"`
}

func AuthHandler(b *Bot) gin.HandlerFunc {
	accessURL := b.oauth.AccessURL
	if accessURL == "" {
		accessURL = defaultOAuthAccessURL
	}
	timeout := b.oauth.Timeout
	if timeout == 0 {
		timeout = oauthTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	return func(c *gin.Context) {
		code, ok := c.GetQuery("code")
		if !ok {
			Logger.Log.Error("got an oauth request without code")
			c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
			return
		}
		data := url.Values{
			"client_id":     {b.oauth.ClientID},
			"client_secret": {b.oauth.ClientSecret},
			"code":          {code},
			"redirect_uri":  {b.oauth.RedirectURL},
		}

		resp, err := httpClient.PostForm(accessURL, data)
		if err != nil {
			Logger.Log.Error("got invalid oauth code", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "code is invalid"})
			return
		}
		defer resp.Body.Close()

		slackResp := SlackOAuthResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil || !slackResp.Ok {
			Logger.Log.Errorln("failed to exchange oauth code with slack", slackResp.Error, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to install the app, please contact a workspace admin"})
			return
		}

		hook := slackResp.IncomingWebhook
		if hook.Url == "" || slackResp.AuthedUser.ID == "" {
			c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("App is installed. Use a ping command in any channel to get started."))
			return
		}

		if err := b.webhooks.UpsertWebhook(c.Request.Context(), model.Webhook{
			SlackId:   slackResp.AuthedUser.ID,
			ChannelId: hook.ChannelId,
			Url:       hook.Url,
		}); err != nil {
			Logger.Log.WithFields(logrus.Fields{"user": slackResp.AuthedUser.ID, "channel": hook.ChannelId}).
				Errorln("failed to save the webhook", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save the webhook, please contact a workspace admin"})
			return
		}

		Logger.Log.Infoln("webhook registered through oauth for", slackResp.AuthedUser.ID, hook.Channel)
		b.track("webhook.registered", map[string]string{"source": "oauth"})
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("Webhook is added. Pings you send in "+hook.Channel+" will go through it."))
	}
}
