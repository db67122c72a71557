package richtext

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// rawElement is the union of every field an inline element may carry on the
// wire, https://api.slack.com/reference/block-kit/blocks#rich_text
type rawElement struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	UserID      string `json:"user_id"`
	ChannelID   string `json:"channel_id"`
	UsergroupID string `json:"usergroup_id"`
	Range       string `json:"range"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Timestamp   int64  `json:"timestamp"`
	Format      string `json:"format"`
	Fallback    string `json:"fallback"`
	Value       string `json:"value"`
	TeamID      string `json:"team_id"`
	Style       *Style `json:"style"`
}

func (r rawElement) toElement() Element {
	switch r.Type {
	case "text":
		return Text{Text: r.Text, Style: r.Style}
	case "user":
		return User{UserID: r.UserID, Style: r.Style}
	case "channel":
		return Channel{ChannelID: r.ChannelID, Style: r.Style}
	case "usergroup":
		return Usergroup{UsergroupID: r.UsergroupID, Style: r.Style}
	case "broadcast":
		return Broadcast{Range: r.Range, Style: r.Style}
	case "link":
		return Link{URL: r.URL, Text: r.Text, Style: r.Style}
	case "emoji":
		return Emoji{Name: r.Name}
	case "date":
		return Date{Timestamp: r.Timestamp, Format: r.Format, URL: r.URL, Fallback: r.Fallback, Style: r.Style}
	case "color":
		return Color{Value: r.Value, Style: r.Style}
	case "team":
		return Team{TeamID: r.TeamID, Style: r.Style}
	default:
		return UnknownElement{Type: r.Type}
	}
}

func toElements(raws []rawElement) []Element {
	elements := make([]Element, 0, len(raws))
	for _, raw := range raws {
		elements = append(elements, raw.toElement())
	}
	return elements
}

type rawSection struct {
	Elements []rawElement `json:"elements"`
}

type rawBlockElement struct {
	Type     string          `json:"type"`
	Style    string          `json:"style"`
	Indent   int             `json:"indent"`
	Elements json.RawMessage `json:"elements"`
}

func (r rawBlockElement) toBlockElement() (BlockElement, error) {
	switch r.Type {
	case "rich_text_section", "rich_text_preformatted", "rich_text_quote":
		var raws []rawElement
		if err := unmarshalElements(r.Elements, &raws); err != nil {
			return nil, errors.Wrapf(err, "invalid %s", r.Type)
		}
		elements := toElements(raws)
		switch r.Type {
		case "rich_text_preformatted":
			return Preformatted{Elements: elements}, nil
		case "rich_text_quote":
			return Quote{Elements: elements}, nil
		default:
			return Section{Elements: elements}, nil
		}
	case "rich_text_list":
		var raws []rawSection
		if err := unmarshalElements(r.Elements, &raws); err != nil {
			return nil, errors.Wrapf(err, "invalid %s", r.Type)
		}
		sections := make([]Section, 0, len(raws))
		for _, raw := range raws {
			sections = append(sections, Section{Elements: toElements(raw.Elements)})
		}
		return List{Style: r.Style, Indent: r.Indent, Elements: sections}, nil
	default:
		return UnknownBlockElement{Type: r.Type}, nil
	}
}

func unmarshalElements(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

type rawBlock struct {
	Type     string            `json:"type"`
	BlockID  string            `json:"block_id"`
	Elements []rawBlockElement `json:"elements"`
}

// ParseBlock decodes a rich_text block from its Slack JSON. Unknown element
// types are kept as Unknown* values, which render to nothing.
func ParseBlock(data []byte) (Block, error) {
	var raw rawBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return Block{}, errors.Wrap(err, "invalid rich_text block")
	}
	if raw.Type != "" && raw.Type != "rich_text" {
		return Block{}, errors.Errorf("expect a rich_text block, got %s", raw.Type)
	}

	block := Block{BlockID: raw.BlockID, Elements: make([]BlockElement, 0, len(raw.Elements))}
	for _, rawElement := range raw.Elements {
		element, err := rawElement.toBlockElement()
		if err != nil {
			return Block{}, err
		}
		block.Elements = append(block.Elements, element)
	}
	return block, nil
}
