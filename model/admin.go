package model

/*
Admin is a workspace wide administrator of the ping bot

UserId: the Slack user id, primary key. Having a row is the whole flag.

Admins may ping in every channel and may edit or delete any ping.
*/
type Admin struct {
	UserId string `gorm:"primaryKey"`
}
