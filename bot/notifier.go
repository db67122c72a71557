package bot

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackNotifier DMs users through the bot, posting to a user id opens the
// conversation with the bot.
type SlackNotifier struct {
	client SlackClient
}

func NewSlackNotifier(client SlackClient) *SlackNotifier {
	return &SlackNotifier{client: client}
}

func (n *SlackNotifier) Notify(ctx context.Context, userId string, text string) error {
	_, _, err := n.client.PostMessageContext(ctx, userId, slack.MsgOptionText(text, false))
	return err
}
