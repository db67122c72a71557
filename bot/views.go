package bot

// Modals opened by the bot
// https://api.slack.com/surfaces/modals

import (
	"encoding/json"
	"fmt"

	"github.com/Luismorlan/pingbot/model"
	"github.com/slack-go/slack"
)

const (
	EditPingCallbackID        = "edit_ping"
	DeletePingCallbackID      = "delete_ping"
	EditPingModalCallbackID   = "edit_ping_modal_submit"
	AddWebhookModalCallbackID = "add-webhook-modal"

	editMessageBlockID  = "message"
	editMessageActionID = "message_input"
	webhookURLBlockID   = "webhook_url_input"
	webhookURLActionID  = "webhook_url"

	addWebhookModalText = ":wave: *Hey! Please enter a URL to a webhook.* We'll post to this whenever you ping in this channel."
)

// slack go package does not know the rich_text_input and url_text_input
// elements yet, so we define them here.
// https://api.slack.com/reference/block-kit/block-elements#rich_text_input
type RichTextInputElement struct {
	Type     slack.MessageElementType `json:"type"`
	ActionID string                   `json:"action_id"`
}

func (e RichTextInputElement) ElementType() slack.MessageElementType {
	return e.Type
}

type URLTextInputElement struct {
	Type        slack.MessageElementType `json:"type"`
	ActionID    string                   `json:"action_id"`
	Placeholder *slack.TextBlockObject   `json:"placeholder,omitempty"`
}

func (e URLTextInputElement) ElementType() slack.MessageElementType {
	return e.Type
}

// editPingMetadata travels through the edit modal's private_metadata.
type editPingMetadata struct {
	ChannelId string         `json:"channelId"`
	UserId    string         `json:"userId"`
	RayId     string         `json:"rayId"`
	Ts        string         `json:"ts"`
	Type      model.PingType `json:"type"`
}

// addWebhookMetadata keeps the ping that triggered the webhook modal, it is
// sent once the webhook is saved.
type addWebhookMetadata struct {
	UserId    string         `json:"userId"`
	ChannelId string         `json:"channelId"`
	Message   string         `json:"message"`
	Type      model.PingType `json:"type"`
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func buildEditPingModal(metadata editPingMetadata) (slack.ModalViewRequest, error) {
	privateMetadata, err := json.Marshal(metadata)
	if err != nil {
		return slack.ModalViewRequest{}, err
	}

	input := &slack.InputBlock{
		Type:    slack.MBTInput,
		BlockID: editMessageBlockID,
		Label:   plainText("Message"),
		Hint: slack.NewTextBlockObject(slack.PlainTextType,
			fmt.Sprintf("Tip: to not have the ping at the start of your message, add @%s where you want the ping to be.", metadata.Type), false, false),
		Element: RichTextInputElement{Type: "rich_text_input", ActionID: editMessageActionID},
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      EditPingModalCallbackID,
		Title:           plainText(fmt.Sprintf("Edit @%s ping", metadata.Type)),
		Submit:          plainText("Submit"),
		PrivateMetadata: string(privateMetadata),
		Blocks:          slack.Blocks{BlockSet: []slack.Block{input}},
	}, nil
}

func buildAddWebhookModal(metadata addWebhookMetadata) (slack.ModalViewRequest, error) {
	privateMetadata, err := json.Marshal(metadata)
	if err != nil {
		return slack.ModalViewRequest{}, err
	}

	intro := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, addWebhookModalText, false, false), nil, nil)
	input := &slack.InputBlock{
		Type:    slack.MBTInput,
		BlockID: webhookURLBlockID,
		Label:   plainText("Webhook URL"),
		Element: URLTextInputElement{
			Type:        "url_text_input",
			ActionID:    webhookURLActionID,
			Placeholder: slack.NewTextBlockObject(slack.PlainTextType, "https://hooks.slack.com/...", false, false),
		},
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      AddWebhookModalCallbackID,
		Title:           plainText("Add a webhook"),
		Submit:          plainText("Add Webhook"),
		Close:           plainText("Cancel"),
		PrivateMetadata: string(privateMetadata),
		Blocks:          slack.Blocks{BlockSet: []slack.Block{intro, input}},
	}, nil
}
