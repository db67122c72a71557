package broadcast

import (
	"testing"

	"github.com/Luismorlan/pingbot/model"
	"github.com/Luismorlan/pingbot/richtext"
	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	assert.Equal(t, "@channel already here", Compose("@channel already here", model.PingTypeChannel))
	assert.Equal(t, "@here hello", Compose("hello", model.PingTypeHere))
	assert.Equal(t, "lunch @here now", Compose("lunch @here now", model.PingTypeHere))
	// the other broadcast does not count
	assert.Equal(t, "@channel @here hi", Compose("@here hi", model.PingTypeChannel))
	assert.Equal(t, "@here ", Compose("", model.PingTypeHere))
}

func TestHumanReadable(t *testing.T) {
	assert.Equal(t, "@channel and @here", HumanReadable("<!channel> and <!here>"))
	assert.Equal(t, "<!everyone>", HumanReadable("<!everyone>"))
}

func TestComposeMrkdwnSubstitutesBeforePrefixCheck(t *testing.T) {
	assert.Equal(t, "standup @here now", ComposeMrkdwn("standup <!here> now", model.PingTypeHere))
	assert.Equal(t, "@channel hi", ComposeMrkdwn("<!channel> hi", model.PingTypeChannel))
	assert.Equal(t, "@here *hi*", ComposeMrkdwn("*hi*", model.PingTypeHere))
}

func TestComposeRenderedRichText(t *testing.T) {
	block := richtext.Block{Elements: []richtext.BlockElement{
		richtext.Section{Elements: []richtext.Element{
			richtext.Text{Text: "deploy in 5 "},
			richtext.Broadcast{Range: "channel"},
		}},
	}}
	text := ComposeMrkdwn(richtext.ToMrkdwn(block), model.PingTypeChannel)
	assert.Equal(t, "deploy in 5 @channel", text)
}
