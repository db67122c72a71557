// Package richtext converts Slack rich_text blocks into mrkdwn.
//
// Slack has no API to turn a rich_text block (what a rich_text_input returns)
// back into the mrkdwn that chat.postMessage understands, so the conversion
// follows https://api.slack.com/reference/surfaces/formatting#advanced.
package richtext

// Style is the optional text style of an inline element.
type Style struct {
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
	Strike bool `json:"strike,omitempty"`
	Code   bool `json:"code,omitempty"`
}

// Element is an inline element of a section, one of the types below.
type Element interface {
	elementType() string
}

type Text struct {
	Text  string
	Style *Style
}

type User struct {
	UserID string
	Style  *Style
}

type Channel struct {
	ChannelID string
	Style     *Style
}

type Usergroup struct {
	UsergroupID string
	Style       *Style
}

// Broadcast is an @here, @channel or @everyone mention, Range names which.
type Broadcast struct {
	Range string
	Style *Style
}

type Link struct {
	URL   string
	Text  string
	Style *Style
}

type Emoji struct {
	Name string
}

type Date struct {
	Timestamp int64
	Format    string
	URL       string
	Fallback  string
	Style     *Style
}

type Color struct {
	Value string
	Style *Style
}

type Team struct {
	TeamID string
	Style  *Style
}

// UnknownElement is an inline element of a type this package does not know.
type UnknownElement struct {
	Type string
}

func (Text) elementType() string             { return "text" }
func (User) elementType() string             { return "user" }
func (Channel) elementType() string          { return "channel" }
func (Usergroup) elementType() string        { return "usergroup" }
func (Broadcast) elementType() string        { return "broadcast" }
func (Link) elementType() string             { return "link" }
func (Emoji) elementType() string            { return "emoji" }
func (Date) elementType() string             { return "date" }
func (Color) elementType() string            { return "color" }
func (Team) elementType() string             { return "team" }
func (e UnknownElement) elementType() string { return e.Type }

// BlockElement is a top level element of a rich_text block.
type BlockElement interface {
	blockElementType() string
}

type Section struct {
	Elements []Element
}

type List struct {
	Style    string
	Indent   int
	Elements []Section
}

type Preformatted struct {
	Elements []Element
}

type Quote struct {
	Elements []Element
}

// UnknownBlockElement is a block element of a type this package does not know.
type UnknownBlockElement struct {
	Type string
}

func (Section) blockElementType() string               { return "rich_text_section" }
func (List) blockElementType() string                  { return "rich_text_list" }
func (Preformatted) blockElementType() string          { return "rich_text_preformatted" }
func (Quote) blockElementType() string                 { return "rich_text_quote" }
func (e UnknownBlockElement) blockElementType() string { return e.Type }

// Block is a rich_text block.
type Block struct {
	BlockID  string
	Elements []BlockElement
}
