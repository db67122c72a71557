package model

import "time"

/*
PingPermission is a "many-to-many" relation granting a user the right to use
/channel and /here in a channel

SlackId: the Slack user id of the grantee
ChannelId: the Slack channel id
CreatedAt: time when the grant is created, either by an explicit
/add-channel-perms or when a channel manager or creator first pings

Rows are only removed by /remove-channel-perms.
*/
type PingPermission struct {
	SlackId   string `gorm:"primaryKey"`
	ChannelId string `gorm:"primaryKey;index"`
	CreatedAt time.Time
}
