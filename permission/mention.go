package permission

import (
	"regexp"
	"strings"
)

var (
	mentionRegex = regexp.MustCompile(`^<@([UW][A-Z0-9]+)(\|[^>]*)?>$`)
	userIdRegex  = regexp.MustCompile(`^[UW][A-Z0-9]+$`)
)

// ParseMention extracts the user id out of an escaped Slack mention such as
// <@U024BE7LH> or <@U024BE7LH|bob>.
func ParseMention(text string) (string, bool) {
	match := mentionRegex.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// IsUserId reports whether id looks like a Slack user id.
func IsUserId(id string) bool {
	return userIdRegex.MatchString(id)
}
