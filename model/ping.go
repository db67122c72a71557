package model

import "time"

type PingType string

const (
	PingTypeChannel PingType = "channel"
	PingTypeHere    PingType = "here"
)

func (t PingType) IsValid() bool {
	return t == PingTypeChannel || t == PingTypeHere
}

/*
Ping is the claim of a delivered ping message

Ts: the Slack message timestamp, which is the message id within a channel
SlackId: the Slack user id of the sender
Type: which broadcast the ping used
ChannelId: the channel the message lives in

The row is deleted together with the message.
*/
type Ping struct {
	Ts        string `gorm:"primaryKey"`
	SlackId   string `gorm:"primaryKey"`
	Type      PingType
	ChannelId string
	CreatedAt time.Time `gorm:"<-:create"`
}
