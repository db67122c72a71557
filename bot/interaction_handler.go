package bot

// This handler is to handle all user interactions from slack client(message shortcuts and modal submissions)
// https://api.slack.com/interactivity/handling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/Luismorlan/pingbot/broadcast"
	"github.com/Luismorlan/pingbot/claim"
	"github.com/Luismorlan/pingbot/model"
	"github.com/Luismorlan/pingbot/richtext"
	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

const webhookURLPrefix = "https://hooks.slack.com/"

// slack go package does not decode rich_text_input values, so we redefine the
// parts of the payload we read.
// real slack payload: https://api.slack.com/reference/interaction-payloads
type InteractionMessage struct {
	Ts string `json:"ts"`
}

type ViewState struct {
	// block id -> action id -> element state
	Values map[string]map[string]json.RawMessage `json:"values"`
}

type InteractionView struct {
	ID              string `json:"id"`
	CallbackID      string `json:"callback_id"`
	PrivateMetadata string `json:"private_metadata"`
	// changes whenever the view is updated
	Hash  string    `json:"hash"`
	State ViewState `json:"state"`
}

type SlackInteractionPayload struct {
	Type       slack.InteractionType `json:"type"`
	CallbackID string                `json:"callback_id"`
	TriggerID  string                `json:"trigger_id"`
	User       slack.User            `json:"user"`
	Channel    slack.Channel         `json:"channel"`
	Message    InteractionMessage    `json:"message"`
	View       InteractionView       `json:"view"`
}

type richTextInputState struct {
	RichTextValue json.RawMessage `json:"rich_text_value"`
}

type urlTextInputState struct {
	Value string `json:"value"`
}

func parseRequestToInteractionPayload(body io.ReadCloser) (*SlackInteractionPayload, error) {
	bodybytes, err := ioutil.ReadAll(body)
	if err != nil {
		return nil, err
	}

	payload := SlackInteractionPayload{}
	const prefix = "payload="
	// https://api.slack.com/interactivity/handling#payloads
	// Slack sent this interaction post request in a weird format
	// Instead of a normal json body, they put "payload" param in request body
	// and encode the json with url escape characters
	if !strings.HasPrefix(string(bodybytes), prefix) {
		return nil, fmt.Errorf("unsupported request")
	}

	unescaped, err := url.QueryUnescape(string(bodybytes[len(prefix):]))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal([]byte(unescaped), &payload)
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// requestId identifies an interaction across Slack's retries. A modal keeps
// its view id across submissions, so the view hash is part of the id.
func (p *SlackInteractionPayload) requestId() string {
	if p.Type == slack.InteractionTypeViewSubmission {
		return p.View.ID + ":" + p.View.Hash
	}
	return p.TriggerID
}

// inputState decodes the state of the element blockId/actionId into state.
func (v InteractionView) inputState(blockId string, actionId string, state interface{}) error {
	raw, ok := v.State.Values[blockId][actionId]
	if !ok {
		return fmt.Errorf("no input %s/%s in view", blockId, actionId)
	}
	return json.Unmarshal(raw, state)
}

func InteractionHandler(b *Bot) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := parseRequestToInteractionPayload(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format"})
			return
		}

		ctx := c.Request.Context()
		if b.isDuplicate(ctx, payload.requestId()) {
			Logger.Log.Infoln("skip duplicated interaction", payload.Type, payload.requestId())
			c.Status(http.StatusOK)
			return
		}

		switch payload.Type {
		case slack.InteractionTypeMessageAction:
			switch payload.CallbackID {
			case EditPingCallbackID:
				b.handleEditShortcut(ctx, payload)
			case DeletePingCallbackID:
				b.handleDeleteShortcut(ctx, payload)
			default:
				Logger.Log.Errorln("unknown message shortcut", payload.CallbackID)
			}
		case slack.InteractionTypeViewSubmission:
			switch payload.View.CallbackID {
			case EditPingModalCallbackID:
				b.handleEditSubmission(ctx, payload)
			case AddWebhookModalCallbackID:
				if errs := b.handleAddWebhookSubmission(ctx, payload); len(errs) > 0 {
					// the modal stays open, its next submission must be handled
					b.forget(ctx, payload.requestId())
					// https://api.slack.com/surfaces/modals/using#displaying_errors
					c.JSON(http.StatusOK, gin.H{"response_action": "errors", "errors": errs})
					return
				}
			default:
				Logger.Log.Errorln("unknown view submission", payload.View.CallbackID)
			}
		default:
			Logger.Log.Warnln("ignore interaction type", payload.Type)
		}

		// https://api.slack.com/interactivity/handling#acknowledgment_response
		// Slack ask the bot to acknowledge a valid interaction payload, an
		// empty body also closes a submitted modal
		c.Status(http.StatusOK)
	}
}

// mutationRefusal returns the message shown when err denies an edit or a
// delete, "" when err is not a refusal.
func mutationRefusal(err error) string {
	return userFacingError(err, claim.ErrNotOriginalSender, claim.ErrNotAPing)
}

func (b *Bot) handleEditShortcut(ctx context.Context, payload *SlackInteractionPayload) {
	rayId := newRayId()
	userId, channelId, ts := payload.User.ID, payload.Channel.ID, payload.Message.Ts
	log := Logger.Log.WithFields(logrus.Fields{"ray_id": rayId, "user": userId, "channel": channelId, "ts": ts})

	ping, err := b.tracker.Authorize(ctx, userId, ts)
	if err != nil {
		if text := mutationRefusal(err); text != "" {
			b.respondEphemeral(ctx, channelId, userId, text)
			return
		}
		log.Errorln("fail to authorize ping edit", err)
		b.respondEphemeral(ctx, channelId, userId, b.editPingErrorMessage(rayId, err))
		return
	}

	view, err := buildEditPingModal(editPingMetadata{
		ChannelId: ping.ChannelId,
		UserId:    userId,
		RayId:     rayId,
		Ts:        ping.Ts,
		Type:      ping.Type,
	})
	if err == nil {
		_, err = b.client.OpenViewContext(ctx, payload.TriggerID, view)
	}
	if err != nil {
		log.Errorln("fail to open edit ping modal", err)
		b.respondEphemeral(ctx, channelId, userId, b.editPingErrorMessage(rayId, err))
	}
}

func (b *Bot) handleEditSubmission(ctx context.Context, payload *SlackInteractionPayload) {
	var metadata editPingMetadata
	if err := json.Unmarshal([]byte(payload.View.PrivateMetadata), &metadata); err != nil {
		Logger.Log.Errorln("invalid edit ping modal metadata", payload.View.PrivateMetadata, err)
		return
	}
	userId := payload.User.ID
	log := Logger.Log.WithFields(logrus.Fields{"ray_id": metadata.RayId, "user": userId, "channel": metadata.ChannelId, "ts": metadata.Ts})

	// the claim may have changed while the modal was open
	ping, err := b.tracker.Authorize(ctx, userId, metadata.Ts)
	if err != nil {
		if text := mutationRefusal(err); text != "" {
			b.respondEphemeral(ctx, metadata.ChannelId, userId, text)
			return
		}
		log.Errorln("fail to authorize ping edit", err)
		b.respondEphemeral(ctx, metadata.ChannelId, userId, b.editPingErrorMessage(metadata.RayId, err))
		return
	}

	text, err := editedPingText(payload.View, ping.Type)
	if err == nil {
		err = b.editPing(ctx, ping, text)
	}
	if err != nil {
		log.Errorln("fail to edit ping", err)
		b.respondEphemeral(ctx, metadata.ChannelId, userId, b.editPingErrorMessage(metadata.RayId, err))
	}
}

// editedPingText renders the rich text typed in the edit modal into the new
// text of the ping.
func editedPingText(view InteractionView, pingType model.PingType) (string, error) {
	var state richTextInputState
	if err := view.inputState(editMessageBlockID, editMessageActionID, &state); err != nil {
		return "", err
	}
	block, err := richtext.ParseBlock(state.RichTextValue)
	if err != nil {
		return "", errors.Wrap(err, "invalid rich text")
	}
	return broadcast.ComposeMrkdwn(richtext.ToMrkdwn(block), pingType), nil
}

func (b *Bot) handleDeleteShortcut(ctx context.Context, payload *SlackInteractionPayload) {
	rayId := newRayId()
	userId, channelId, ts := payload.User.ID, payload.Channel.ID, payload.Message.Ts
	log := Logger.Log.WithFields(logrus.Fields{"ray_id": rayId, "user": userId, "channel": channelId, "ts": ts})

	ping, err := b.tracker.Authorize(ctx, userId, ts)
	if err == nil {
		err = b.deletePing(ctx, ping.ChannelId, ping.Ts)
	}
	if err != nil {
		if text := mutationRefusal(err); text != "" {
			b.respondEphemeral(ctx, channelId, userId, text)
			return
		}
		log.Errorln("fail to delete ping", err)
		b.respondEphemeral(ctx, channelId, userId, b.deletePingErrorMessage(rayId, err))
	}
}

// handleAddWebhookSubmission saves the webhook typed in the modal and sends the
// ping that asked for it. It returns the errors to show on the modal inputs.
func (b *Bot) handleAddWebhookSubmission(ctx context.Context, payload *SlackInteractionPayload) map[string]string {
	var metadata addWebhookMetadata
	if err := json.Unmarshal([]byte(payload.View.PrivateMetadata), &metadata); err != nil {
		Logger.Log.Errorln("invalid add webhook modal metadata", payload.View.PrivateMetadata, err)
		return nil
	}

	var state urlTextInputState
	if err := payload.View.inputState(webhookURLBlockID, webhookURLActionID, &state); err != nil || !strings.HasPrefix(state.Value, webhookURLPrefix) {
		return map[string]string{webhookURLBlockID: fmt.Sprintf("Please enter a Slack webhook URL, it starts with %s", webhookURLPrefix)}
	}

	rayId := newRayId()
	log := Logger.Log.WithFields(logrus.Fields{"ray_id": rayId, "user": metadata.UserId, "channel": metadata.ChannelId})

	err := b.webhooks.UpsertWebhook(ctx, model.Webhook{
		SlackId:   metadata.UserId,
		ChannelId: metadata.ChannelId,
		Url:       state.Value,
	})
	if err == nil {
		b.track("webhook.registered", nil)
		err = b.sendPingViaWebhook(ctx, state.Value, metadata.Message, metadata.Type)
	}
	if err != nil {
		log.Errorln("fail to ping through new webhook", err)
		b.track("ping.failed", map[string]string{"type": string(metadata.Type)})
		b.respondEphemeral(ctx, metadata.ChannelId, metadata.UserId,
			b.pingErrorMessage(rayId, metadata.Type, metadata.Message, metadata.UserId, err))
	}
	return nil
}
