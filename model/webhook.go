package model

import "time"

/*
Webhook is an incoming webhook a user registered for a channel. It is only
used when the bot delivers pings through webhooks instead of posting them as
the sender.

SlackId, ChannelId: owner and target channel, composite primary key
Url: the incoming webhook url, https://hooks.slack.com/...
*/
type Webhook struct {
	SlackId   string `gorm:"primaryKey"`
	ChannelId string `gorm:"primaryKey"`
	Url       string
	CreatedAt time.Time `gorm:"<-:create"`
	UpdatedAt time.Time
}
