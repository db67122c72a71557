package bot

import (
	"context"

	"github.com/Luismorlan/pingbot/broadcast"
	"github.com/Luismorlan/pingbot/model"
	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

func pingBlock(text string) slack.Block {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

// pingMessageOptions renders text as the sender, with their name and avatar.
func (b *Bot) pingMessageOptions(ctx context.Context, userId string, text string) []slack.MsgOption {
	profile := b.directory.UserProfile(ctx, userId)
	options := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionUsername(profile.DisplayName),
		slack.MsgOptionBlocks(pingBlock(text)),
	}
	if profile.AvatarURL != "" {
		options = append(options, slack.MsgOptionIconURL(profile.AvatarURL))
	}
	return options
}

// sendPing posts message to channelId on behalf of userId and claims the
// posted message for them.
func (b *Bot) sendPing(ctx context.Context, userId string, channelId string, message string, pingType model.PingType) error {
	text := broadcast.Compose(message, pingType)

	_, ts, err := b.client.PostMessageContext(ctx, channelId, b.pingMessageOptions(ctx, userId, text)...)
	if err != nil {
		return err
	}

	if err := b.tracker.Record(ctx, userId, channelId, ts, pingType); err != nil {
		// the ping is out, only edit and delete are lost
		Logger.Log.WithFields(logrus.Fields{"user": userId, "channel": channelId, "ts": ts}).
			Errorln("fail to record ping", err)
	}

	b.track("ping.sent", map[string]string{"type": string(pingType), "delivery": "direct"})
	return nil
}

// editPing replaces the text of the ping, chat.update keeps the sender's name
// and avatar.
func (b *Bot) editPing(ctx context.Context, ping *model.Ping, text string) error {
	_, _, _, err := b.client.UpdateMessageContext(ctx, ping.ChannelId, ping.Ts,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(pingBlock(text)),
	)
	if err != nil {
		return err
	}
	b.track("ping.edited", map[string]string{"type": string(ping.Type)})
	return nil
}

// deletePing removes the message first and its claim only once the message is
// gone, a claim never outlives a message it could still act on.
func (b *Bot) deletePing(ctx context.Context, channelId string, ts string) error {
	if _, _, err := b.client.DeleteMessageContext(ctx, channelId, ts); err != nil {
		return err
	}
	if err := b.tracker.Delete(ctx, ts); err != nil {
		Logger.Log.WithFields(logrus.Fields{"channel": channelId, "ts": ts}).Errorln("fail to delete ping record", err)
	}
	b.track("ping.deleted", nil)
	return nil
}
