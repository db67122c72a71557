package bot

import (
	"fmt"
	"strings"

	"github.com/Luismorlan/pingbot/model"
	"github.com/pkg/errors"
)

const (
	warningEmoji      = ":warning:"
	channelNotFound   = "channel_not_found"
	noPingersText     = "Nobody has explicit access to ping in this channel yet. Channel managers get it the first time they ping."
	unknownCommandMsg = "Sorry, slash commando, that's an unknown command"
)

// contactLine tells people who to reach out to, with rayId when one exists.
func (b *Bot) contactLine(rayId string) string {
	who := "a workspace admin"
	if b.setting.SUPPORT_USER_ID != "" {
		who = fmt.Sprintf("<@%s>", b.setting.SUPPORT_USER_ID)
	}
	return fmt.Sprintf("Please DM %s with your Ray ID (`%s`) and the error message below.", who, rayId)
}

func errorBlock(err error) string {
	return fmt.Sprintf("```\n%s\n```", err)
}

// inlineCode keeps user text from closing the surrounding code span.
func inlineCode(text string) string {
	return "`" + strings.ReplaceAll(text, "`", "'") + "`"
}

func (b *Bot) unauthorizedPingMessage() string {
	return fmt.Sprintf("%s *You need to be a channel manager to use this command.*\n"+
		"If this is a private channel, you'll need to add <@%s> to the channel.", warningEmoji, b.botUserId)
}

func (b *Bot) pingErrorMessage(rayId string, pingType model.PingType, message string, userId string, err error) string {
	if strings.Contains(err.Error(), channelNotFound) {
		return fmt.Sprintf("%s *Hey <@%s>!* Looks like this is a private channel, so you'll need to add me (<@%s>) to the channel and try the command again.\n"+
			"For reference, your message was %s.", warningEmoji, userId, b.botUserId, inlineCode(message))
	}
	return fmt.Sprintf("%s *Hey <@%s>!* Unfortunately, I wasn't able to send your @%s ping with message %s.\n%s\n%s",
		warningEmoji, userId, pingType, inlineCode(message), b.contactLine(rayId), errorBlock(err))
}

func (b *Bot) editPingErrorMessage(rayId string, err error) string {
	return fmt.Sprintf("%s Unfortunately, I wasn't able to edit your ping.\n%s\n%s", warningEmoji, b.contactLine(rayId), errorBlock(err))
}

func (b *Bot) deletePingErrorMessage(rayId string, err error) string {
	return fmt.Sprintf("%s Unfortunately, I wasn't able to delete your ping.\n%s\n%s", warningEmoji, b.contactLine(rayId), errorBlock(err))
}

func (b *Bot) permissionChangeErrorMessage(rayId string, err error) string {
	return fmt.Sprintf("%s Unfortunately, I wasn't able to change the permissions of this channel.\n%s\n%s", warningEmoji, b.contactLine(rayId), errorBlock(err))
}

// userFacingError returns the text of errors users can act on, "" for
// everything else.
func userFacingError(err error, sentinels ...error) string {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return fmt.Sprintf("%s %s.", warningEmoji, capitalize(sentinel.Error()))
		}
	}
	return ""
}

func capitalize(text string) string {
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

func pingersMessage(userIds []string) string {
	if len(userIds) == 0 {
		return noPingersText
	}
	var sb strings.Builder
	sb.WriteString("These people can ping in this channel:\n")
	for _, id := range userIds {
		sb.WriteString(fmt.Sprintf(" • <@%s>\n", id))
	}
	return sb.String()
}
