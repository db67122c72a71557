package richtext

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const listIndent = "    "

// QuoteMrkdwn prefixes every line of text with "> ".
func QuoteMrkdwn(text string) string {
	return "> " + strings.Join(strings.Split(text, "\n"), "\n> ")
}

func startsOrEndsWithSpace(text string) bool {
	first, _ := utf8.DecodeRuneInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}

// applyStyle wraps text in mrkdwn markers, code innermost and bold outermost.
// Slack does not render markers next to whitespace, so such text is left as is.
func applyStyle(text string, style *Style) string {
	if style == nil || startsOrEndsWithSpace(text) {
		return text
	}

	if style.Code {
		text = "`" + text + "`"
	}
	if style.Strike {
		text = "~" + text + "~"
	}
	if style.Italic {
		text = "_" + text + "_"
	}
	if style.Bold {
		text = "*" + text + "*"
	}
	return text
}

// ElementToMrkdwn renders one inline element, unknown types render to "".
func ElementToMrkdwn(element Element) string {
	switch e := element.(type) {
	case Broadcast:
		return applyStyle(fmt.Sprintf("<!%s>", e.Range), e.Style)
	case Channel:
		return applyStyle(fmt.Sprintf("<#%s>", e.ChannelID), e.Style)
	case Color:
		return applyStyle(e.Value, e.Style)
	case Date:
		text := fmt.Sprintf("<!date^%d^%s", e.Timestamp, e.Format)
		if e.URL != "" {
			text += "^" + e.URL
		}
		if e.Fallback != "" {
			text += "|" + e.Fallback
		}
		return applyStyle(text+">", e.Style)
	case Emoji:
		return fmt.Sprintf(":%s:", e.Name)
	case Link:
		text := e.URL
		if e.Text != "" {
			text = fmt.Sprintf("<%s|%s>", e.URL, e.Text)
		}
		return applyStyle(text, e.Style)
	case Team:
		// mrkdwn has no team mention, the id is the best we can do
		return applyStyle(e.TeamID, e.Style)
	case Text:
		return applyStyle(e.Text, e.Style)
	case User:
		return applyStyle(fmt.Sprintf("<@%s>", e.UserID), e.Style)
	case Usergroup:
		return applyStyle(fmt.Sprintf("<!subteam^%s>", e.UsergroupID), e.Style)
	default:
		return ""
	}
}

func elementsToMrkdwn(elements []Element) string {
	var sb strings.Builder
	for _, element := range elements {
		sb.WriteString(ElementToMrkdwn(element))
	}
	return sb.String()
}

func listToMrkdwn(list List) string {
	indent := ""
	if list.Indent > 0 {
		indent = strings.Repeat(listIndent, list.Indent)
	}

	var sb strings.Builder
	for _, section := range list.Elements {
		sb.WriteString(indent)
		sb.WriteString(" • ")
		sb.WriteString(elementsToMrkdwn(section.Elements))
		sb.WriteString("\n")
	}
	return sb.String()
}

// BlockElementToMrkdwn renders one block element, unknown types render to "".
func BlockElementToMrkdwn(element BlockElement) string {
	switch e := element.(type) {
	case List:
		return listToMrkdwn(e)
	case Preformatted:
		return "```" + elementsToMrkdwn(e.Elements) + "```"
	case Quote:
		return QuoteMrkdwn(elementsToMrkdwn(e.Elements))
	case Section:
		return elementsToMrkdwn(e.Elements)
	default:
		return ""
	}
}

// ToMrkdwn renders a whole rich_text block.
func ToMrkdwn(block Block) string {
	var sb strings.Builder
	for _, element := range block.Elements {
		sb.WriteString(BlockElementToMrkdwn(element))
	}
	return sb.String()
}
