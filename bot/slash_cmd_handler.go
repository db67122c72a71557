package bot

// This handler is for slack slash commands
// https://api.slack.com/interactivity/slash-commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Luismorlan/pingbot/app_setting"
	"github.com/Luismorlan/pingbot/model"
	"github.com/Luismorlan/pingbot/permission"
	"github.com/Luismorlan/pingbot/store"
	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type CommandForm struct {
	Command     string `form:"command" binding:"required"`
	ChannelId   string `form:"channel_id" binding:"required"`
	UserId      string `form:"user_id" binding:"required"`
	Text        string `form:"text"`
	TriggerId   string `form:"trigger_id"`
	ResponseUrl string `form:"response_url"`
}

// ephemeral replies to the slash command, only the invoker sees the text.
func ephemeral(c *gin.Context, text string) {
	c.JSON(http.StatusOK, gin.H{
		"response_type": "ephemeral",
		"text":          text,
	})
}

func SlashCommandHandler(b *Bot) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form CommandForm
		if err := c.ShouldBind(&form); err != nil {
			Logger.Log.Errorln("invalid slash command request", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slash command"})
			return
		}

		ctx := c.Request.Context()
		if b.isDuplicate(ctx, form.TriggerId) {
			Logger.Log.Infoln("skip duplicated slash command", form.Command, form.TriggerId)
			c.Status(http.StatusOK)
			return
		}

		switch form.Command {
		case b.setting.CHANNEL_COMMAND_NAME:
			b.handlePingCommand(c, form, model.PingTypeChannel)
		case b.setting.HERE_COMMAND_NAME:
			b.handlePingCommand(c, form, model.PingTypeHere)
		case b.setting.ADD_PERMS_COMMAND_NAME:
			b.handlePermissionCommand(c, form, b.resolver.Grant, "permission.granted",
				"<@%s> can now use @channel and @here pings in this channel.")
		case b.setting.REMOVE_PERMS_COMMAND_NAME:
			b.handlePermissionCommand(c, form, b.resolver.Revoke, "permission.revoked",
				"<@%s> can no longer use @channel and @here pings in this channel.")
		case b.setting.LIST_PINGERS_COMMAND_NAME:
			b.handleListCommand(c, form)
		default:
			c.JSON(http.StatusNotFound, gin.H{
				"response_type": "ephemeral",
				"text":          unknownCommandMsg,
			})
		}
	}
}

func (b *Bot) handlePingCommand(c *gin.Context, form CommandForm, pingType model.PingType) {
	ctx := c.Request.Context()
	rayId := newRayId()
	log := Logger.Log.WithFields(logrus.Fields{
		"ray_id":  rayId,
		"user":    form.UserId,
		"channel": form.ChannelId,
		"type":    pingType,
	})
	log.Debugln("ping command invoked:", form.Text)

	if !b.resolver.Resolve(ctx, form.UserId, form.ChannelId) {
		b.track("ping.unauthorized", map[string]string{"type": string(pingType)})
		ephemeral(c, b.unauthorizedPingMessage())
		return
	}

	var err error
	switch b.setting.DELIVERY_MODE {
	case app_setting.DeliveryModeWebhook:
		var opened bool
		opened, err = b.pingOrAskForWebhook(ctx, form, pingType)
		if err == nil && opened {
			c.Status(http.StatusOK)
			return
		}
	default:
		err = b.sendPing(ctx, form.UserId, form.ChannelId, form.Text, pingType)
	}

	if err != nil {
		log.Errorln("fail to send ping", err)
		b.track("ping.failed", map[string]string{"type": string(pingType)})
		ephemeral(c, b.pingErrorMessage(rayId, pingType, form.Text, form.UserId, err))
		return
	}
	c.Status(http.StatusOK)
}

// pingOrAskForWebhook pings through the sender's webhook for the channel. When
// there is none yet it opens the modal asking for one and reports true, the
// ping is sent after the modal is submitted.
func (b *Bot) pingOrAskForWebhook(ctx context.Context, form CommandForm, pingType model.PingType) (bool, error) {
	webhook, err := b.webhooks.GetWebhook(ctx, form.UserId, form.ChannelId)
	if err == nil {
		return false, b.sendPingViaWebhook(ctx, webhook.Url, form.Text, pingType)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	view, err := buildAddWebhookModal(addWebhookMetadata{
		UserId:    form.UserId,
		ChannelId: form.ChannelId,
		Message:   form.Text,
		Type:      pingType,
	})
	if err != nil {
		return false, err
	}
	if _, err := b.client.OpenViewContext(ctx, form.TriggerId, view); err != nil {
		return false, errors.Wrap(err, "fail to open webhook modal")
	}
	return true, nil
}

type permissionChange func(ctx context.Context, granterId string, target string, channelId string) (string, error)

func (b *Bot) handlePermissionCommand(c *gin.Context, form CommandForm, change permissionChange, event string, successFormat string) {
	ctx := c.Request.Context()
	targetId, err := change(ctx, form.UserId, form.Text, form.ChannelId)
	if err != nil {
		if text := userFacingError(err,
			permission.ErrUnauthorized,
			permission.ErrInvalidTarget,
			permission.ErrAlreadyGranted,
			permission.ErrNotGranted,
		); text != "" {
			ephemeral(c, text)
			return
		}
		rayId := newRayId()
		Logger.Log.WithFields(logrus.Fields{
			"ray_id":  rayId,
			"user":    form.UserId,
			"channel": form.ChannelId,
		}).Errorln("fail to change ping permission", err)
		ephemeral(c, b.permissionChangeErrorMessage(rayId, err))
		return
	}

	b.track(event, nil)
	ephemeral(c, fmt.Sprintf(successFormat, targetId))
}

func (b *Bot) handleListCommand(c *gin.Context, form CommandForm) {
	userIds, err := b.resolver.List(c.Request.Context(), form.ChannelId)
	if err != nil {
		rayId := newRayId()
		Logger.Log.WithFields(logrus.Fields{"ray_id": rayId, "channel": form.ChannelId}).
			Errorln("fail to list pingers", err)
		ephemeral(c, fmt.Sprintf("%s Unfortunately, I wasn't able to list who can ping here.\n%s\n%s",
			warningEmoji, b.contactLine(rayId), errorBlock(err)))
		return
	}
	ephemeral(c, pingersMessage(userIds))
}
