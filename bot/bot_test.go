package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/Luismorlan/pingbot/app_setting"
	"github.com/Luismorlan/pingbot/claim"
	"github.com/Luismorlan/pingbot/directory"
	"github.com/Luismorlan/pingbot/permission"
	"github.com/Luismorlan/pingbot/store"
	"github.com/Luismorlan/pingbot/telemetry"
	"github.com/Luismorlan/pingbot/utils"
	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
)

const (
	testChannel = "C0001"
	manager     = "U0MANAGER"
	stranger    = "U0STRANGER"
	admin       = "U0ADMIN"
	botUser     = "U0BOT"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// sentMessage is a message call the fake client received, with the form
// values slack-go would have sent.
type sentMessage struct {
	channel string
	ts      string
	values  url.Values
}

func (m sentMessage) text() string {
	return m.values.Get("text")
}

type fakeSlackClient struct {
	t          *testing.T
	mu         sync.Mutex
	nextTs     int
	posted     []sentMessage
	updated    []sentMessage
	deleted    []sentMessage
	ephemerals []sentMessage
	views      []slack.ModalViewRequest

	postErr   error
	updateErr error
	deleteErr error
}

func applyOptions(t *testing.T, channel string, options []slack.MsgOption) url.Values {
	_, values, err := slack.UnsafeApplyMsgOptions("token", channel, "https://slack.com/api/", options...)
	require.NoError(t, err)
	return values
}

func (c *fakeSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.postErr != nil {
		return "", "", c.postErr
	}
	c.nextTs++
	ts := fmt.Sprintf("1700000000.%06d", c.nextTs)
	c.posted = append(c.posted, sentMessage{channel: channelID, ts: ts, values: applyOptions(c.t, channelID, options)})
	return channelID, ts, nil
}

func (c *fakeSlackClient) UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updateErr != nil {
		return "", "", "", c.updateErr
	}
	values := applyOptions(c.t, channelID, options)
	c.updated = append(c.updated, sentMessage{channel: channelID, ts: timestamp, values: values})
	return channelID, timestamp, values.Get("text"), nil
}

func (c *fakeSlackClient) DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return "", "", c.deleteErr
	}
	c.deleted = append(c.deleted, sentMessage{channel: channel, ts: messageTimestamp})
	return channel, messageTimestamp, nil
}

func (c *fakeSlackClient) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := applyOptions(c.t, channelID, options)
	values.Set("user", userID)
	c.ephemerals = append(c.ephemerals, sentMessage{channel: channelID, values: values})
	return "1700000000.999999", nil
}

func (c *fakeSlackClient) OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = append(c.views, view)
	return &slack.ViewResponse{}, nil
}

type fakeDirectory struct {
	managers map[string][]string
	creators map[string]string
	profiles map[string]directory.Profile
}

func (d *fakeDirectory) ChannelManagers(ctx context.Context, channelId string) []string {
	return d.managers[channelId]
}

func (d *fakeDirectory) ChannelCreator(ctx context.Context, channelId string) string {
	return d.creators[channelId]
}

func (d *fakeDirectory) UserProfile(ctx context.Context, userId string) directory.Profile {
	if profile, ok := d.profiles[userId]; ok {
		return profile
	}
	return directory.Profile{DisplayName: "<unknown>"}
}

type webhookPost struct {
	url string
	msg *slack.WebhookMessage
}

type fakeDeduplicator struct {
	seen map[string]bool
}

func (d *fakeDeduplicator) IsDuplicate(ctx context.Context, requestId string) (bool, error) {
	if requestId == "" {
		return false, nil
	}
	dup := d.seen[requestId]
	d.seen[requestId] = true
	return dup, nil
}

func (d *fakeDeduplicator) Forget(ctx context.Context, requestId string) error {
	delete(d.seen, requestId)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event telemetry.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.Name)
	return nil
}

type testBot struct {
	bot       *Bot
	client    *fakeSlackClient
	store     *store.Store
	dir       *fakeDirectory
	webhooks  []webhookPost
	telemetry *recordingPublisher
	router    *gin.Engine
}

func newTestBot(t *testing.T, setting app_setting.PingBotAppSetting) *testBot {
	db, _ := utils.CreateTempDB(t)
	s := store.New(db)
	require.NoError(t, s.AddAdmin(context.Background(), admin))

	client := &fakeSlackClient{t: t}
	dir := &fakeDirectory{
		managers: map[string][]string{testChannel: {manager}},
		creators: map[string]string{},
		profiles: map[string]directory.Profile{
			manager: {DisplayName: "Maggie", AvatarURL: "https://avatars.example.com/maggie.png"},
		},
	}
	tb := &testBot{client: client, store: s, dir: dir, telemetry: &recordingPublisher{}}

	tb.bot = NewBot(Config{
		Client:    client,
		Resolver:  permission.NewResolver(s, dir, NewSlackNotifier(client)),
		Tracker:   claim.NewTracker(s),
		Webhooks:  s,
		Directory: dir,
		Telemetry: tb.telemetry,
		Dedup:     &fakeDeduplicator{seen: map[string]bool{}},
		PostWebhook: func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
			tb.webhooks = append(tb.webhooks, webhookPost{url: url, msg: msg})
			return nil
		},
		Setting:   setting,
		BotUserId: botUser,
	})

	tb.router = gin.New()
	tb.router.POST("/bot/cmd", SlashCommandHandler(tb.bot))
	tb.router.POST("/bot/interaction", InteractionHandler(tb.bot))
	tb.router.GET("/bot/auth", AuthHandler(tb.bot))
	return tb
}

func (tb *testBot) slashCommand(t *testing.T, command string, userId string, text string, triggerId string) *httptest.ResponseRecorder {
	form := url.Values{
		"command":      {command},
		"channel_id":   {testChannel},
		"user_id":      {userId},
		"text":         {text},
		"trigger_id":   {triggerId},
		"response_url": {"https://hooks.slack.com/commands/T1/1/abc"},
	}
	req := httptest.NewRequest(http.MethodPost, "/bot/cmd", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	tb.router.ServeHTTP(w, req)
	return w
}

func (tb *testBot) interaction(t *testing.T, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/bot/interaction", strings.NewReader("payload="+url.QueryEscape(string(body))))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	tb.router.ServeHTTP(w, req)
	return w
}

// ephemeralText decodes the text of a slash command reply.
func ephemeralText(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		ResponseType string `json:"response_type"`
		Text         string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ephemeral", body.ResponseType)
	return body.Text
}
