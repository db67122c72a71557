// Package claim remembers who sent which ping so only the sender, or an
// admin, can edit or delete it later.
package claim

import (
	"context"

	"github.com/Luismorlan/pingbot/model"
	"github.com/Luismorlan/pingbot/store"
	"github.com/pkg/errors"
)

var (
	ErrNotOriginalSender = errors.New("you must be the original sender of this ping to change it")
	ErrNotAPing          = errors.New("this message is not a ping sent by the bot")
)

type Store interface {
	IsAdmin(ctx context.Context, userId string) (bool, error)
	InsertPing(ctx context.Context, ping model.Ping) error
	FindPing(ctx context.Context, ts string, userId string) (*model.Ping, error)
	FindPingByTs(ctx context.Context, ts string) (*model.Ping, error)
	DeletePing(ctx context.Context, ts string) error
}

type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Record claims message ts in channelId for senderId.
func (t *Tracker) Record(ctx context.Context, senderId string, channelId string, ts string, pingType model.PingType) error {
	return t.store.InsertPing(ctx, model.Ping{
		Ts:        ts,
		SlackId:   senderId,
		Type:      pingType,
		ChannelId: channelId,
	})
}

// AuthorizeMutation reports whether userId may edit or delete message ts:
// userId sent it, or userId is an admin. Ping permissions in the channel do
// not matter here.
func (t *Tracker) AuthorizeMutation(ctx context.Context, userId string, ts string) (bool, error) {
	_, err := t.store.FindPing(ctx, ts, userId)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	return t.store.IsAdmin(ctx, userId)
}

// Authorize returns the claim on ts when userId may edit or delete it.
func (t *Tracker) Authorize(ctx context.Context, userId string, ts string) (*model.Ping, error) {
	ok, err := t.AuthorizeMutation(ctx, userId, ts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotOriginalSender
	}

	// admins may act on pings sent by someone else
	ping, err := t.store.FindPingByTs(ctx, ts)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAPing
	}
	return ping, err
}

func (t *Tracker) Delete(ctx context.Context, ts string) error {
	return t.store.DeletePing(ctx, ts)
}
