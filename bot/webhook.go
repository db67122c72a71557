package bot

import (
	"context"

	"github.com/Luismorlan/pingbot/broadcast"
	"github.com/Luismorlan/pingbot/model"
	"github.com/slack-go/slack"
)

// sendPingViaWebhook posts message through the incoming webhook url the sender
// registered for the channel. Webhook posts return no message ts, so these
// pings are never claimed.
func (b *Bot) sendPingViaWebhook(ctx context.Context, webhookUrl string, message string, pingType model.PingType) error {
	text := broadcast.Compose(message, pingType)
	webhookMsg := &slack.WebhookMessage{
		Text:   text,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{pingBlock(text)}},
	}
	if err := b.postWebhook(ctx, webhookUrl, webhookMsg); err != nil {
		return err
	}
	b.track("ping.sent", map[string]string{"type": string(pingType), "delivery": "webhook"})
	return nil
}
