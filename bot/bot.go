package bot

import (
	"context"

	"github.com/Luismorlan/pingbot/app_setting"
	"github.com/Luismorlan/pingbot/claim"
	"github.com/Luismorlan/pingbot/directory"
	"github.com/Luismorlan/pingbot/model"
	"github.com/Luismorlan/pingbot/permission"
	"github.com/Luismorlan/pingbot/telemetry"
	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

// SlackClient is the part of slack.Client the bot writes through.
type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
}

type Directory interface {
	permission.Directory
	UserProfile(ctx context.Context, userId string) directory.Profile
}

type WebhookStore interface {
	GetWebhook(ctx context.Context, userId string, channelId string) (*model.Webhook, error)
	UpsertWebhook(ctx context.Context, webhook model.Webhook) error
}

// Deduplicator reports whether a Slack request id was already handled.
type Deduplicator interface {
	IsDuplicate(ctx context.Context, requestId string) (bool, error)
	// Forget lets requestId be handled again.
	Forget(ctx context.Context, requestId string) error
}

type WebhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

type Bot struct {
	client      SlackClient
	resolver    *permission.Resolver
	tracker     *claim.Tracker
	webhooks    WebhookStore
	directory   Directory
	telemetry   telemetry.Publisher
	dedup       Deduplicator
	postWebhook WebhookPoster
	setting     app_setting.PingBotAppSetting
	botUserId   string
	oauth       OAuthSetting
}

type Config struct {
	Client    SlackClient
	Resolver  *permission.Resolver
	Tracker   *claim.Tracker
	Webhooks  WebhookStore
	Directory Directory
	// Optional, events are dropped when nil.
	Telemetry telemetry.Publisher
	// Optional, every request is handled when nil.
	Dedup Deduplicator
	// Optional, defaults to slack.PostWebhookContext.
	PostWebhook WebhookPoster
	Setting     app_setting.PingBotAppSetting
	// The bot's own user id, mentioned when it has to be added to a channel.
	BotUserId string
	OAuth     OAuthSetting
}

func NewBot(config Config) *Bot {
	b := &Bot{
		client:      config.Client,
		resolver:    config.Resolver,
		tracker:     config.Tracker,
		webhooks:    config.Webhooks,
		directory:   config.Directory,
		telemetry:   config.Telemetry,
		dedup:       config.Dedup,
		postWebhook: config.PostWebhook,
		setting:     config.Setting,
		botUserId:   config.BotUserId,
		oauth:       config.OAuth,
	}
	if b.telemetry == nil {
		b.telemetry = telemetry.NoopPublisher{}
	}
	if b.postWebhook == nil {
		b.postWebhook = slack.PostWebhookContext
	}
	return b
}

// newRayId returns the id users quote when reporting a failure, it is logged
// next to the error.
func newRayId() string {
	return uuid.New().String()
}

func (b *Bot) isDuplicate(ctx context.Context, requestId string) bool {
	if b.dedup == nil {
		return false
	}
	dup, err := b.dedup.IsDuplicate(ctx, requestId)
	if err != nil {
		Logger.Log.Warnln("fail to check duplicated request", requestId, err)
		return false
	}
	return dup
}

func (b *Bot) forget(ctx context.Context, requestId string) {
	if b.dedup == nil {
		return
	}
	if err := b.dedup.Forget(ctx, requestId); err != nil {
		Logger.Log.Warnln("fail to forget request", requestId, err)
	}
}

// track publishes a product event, failures are ignored on purpose.
func (b *Bot) track(name string, tags map[string]string) {
	_ = b.telemetry.Publish(telemetry.Event{Name: name, Tags: tags})
}

// respondEphemeral tells userId something only they can see.
func (b *Bot) respondEphemeral(ctx context.Context, channelId string, userId string, text string) {
	if _, err := b.client.PostEphemeralContext(ctx, channelId, userId, slack.MsgOptionText(text, false)); err != nil {
		Logger.Log.Errorln("fail to post ephemeral message to", userId, err)
	}
}
