// Package broadcast builds the final text of a ping.
package broadcast

import (
	"fmt"
	"strings"

	"github.com/Luismorlan/pingbot/model"
)

// mrkdwn escapes of broadcast mentions, as produced from rich text.
var humanReadableReplacer = strings.NewReplacer(
	"<!channel>", "@channel",
	"<!here>", "@here",
)

// HumanReadable replaces <!channel> and <!here> with @channel and @here.
func HumanReadable(text string) string {
	return humanReadableReplacer.Replace(text)
}

// Compose puts "@type " in front of message unless message already mentions
// @type somewhere, so users may place the ping mid-sentence.
func Compose(message string, pingType model.PingType) string {
	mention := fmt.Sprintf("@%s", pingType)
	if strings.Contains(message, mention) {
		return message
	}
	return fmt.Sprintf("%s %s", mention, message)
}

// ComposeMrkdwn is Compose for text rendered from rich text, where a
// broadcast mention arrives as <!channel> or <!here>.
func ComposeMrkdwn(mrkdwn string, pingType model.PingType) string {
	return Compose(HumanReadable(mrkdwn), pingType)
}
