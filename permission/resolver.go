// Package permission decides who may send @channel and @here pings in a
// channel and manages the per-channel allowlist.
//
// A user may ping if they are a global admin, a channel manager, the channel
// creator, or hold a ping permission row for the channel. The first time a
// channel manager or creator pings, a row is written for them, so their access
// survives losing the role later.
package permission

import (
	"context"
	"fmt"
	"sort"

	"github.com/Luismorlan/pingbot/utils"
	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/sirupsen/logrus"
)

// Directory answers role questions about a channel. Lookup failures are
// reported as empty results.
type Directory interface {
	ChannelManagers(ctx context.Context, channelId string) []string
	ChannelCreator(ctx context.Context, channelId string) string
}

type Store interface {
	IsAdmin(ctx context.Context, userId string) (bool, error)
	ListAdmins(ctx context.Context) ([]string, error)
	HasPermission(ctx context.Context, userId string, channelId string) (bool, error)
	InsertPermission(ctx context.Context, userId string, channelId string) error
	DeletePermission(ctx context.Context, userId string, channelId string) (bool, error)
	ListPermissions(ctx context.Context, channelId string) ([]string, error)
}

// Notifier tells a user out-of-band about a change to their access.
type Notifier interface {
	Notify(ctx context.Context, userId string, text string) error
}

type Resolver struct {
	store     Store
	directory Directory
	notifier  Notifier
}

func NewResolver(store Store, directory Directory, notifier Notifier) *Resolver {
	return &Resolver{store: store, directory: directory, notifier: notifier}
}

type decision struct {
	isAdmin       bool
	isManager     bool
	isCreator     bool
	hasPermission bool
}

// evaluate runs every lookup unconditionally, a failed lookup counts as false.
func (r *Resolver) evaluate(ctx context.Context, userId string, channelId string) decision {
	log := Logger.Log.WithFields(logrus.Fields{"user": userId, "channel": channelId})

	isAdmin, err := r.store.IsAdmin(ctx, userId)
	if err != nil {
		log.Errorln("fail to look up admin", err)
		isAdmin = false
	}

	isManager := utils.ContainsString(r.directory.ChannelManagers(ctx, channelId), userId)

	hasPermission, err := r.store.HasPermission(ctx, userId, channelId)
	if err != nil {
		log.Errorln("fail to look up ping permission", err)
		hasPermission = false
	}

	isCreator := r.directory.ChannelCreator(ctx, channelId) == userId

	return decision{
		isAdmin:       isAdmin,
		isManager:     isManager,
		isCreator:     isCreator,
		hasPermission: hasPermission,
	}
}

// Resolve reports whether userId may ping in channelId. A channel manager or
// creator without a ping permission row gets one written.
func (r *Resolver) Resolve(ctx context.Context, userId string, channelId string) bool {
	if userId == "" || channelId == "" {
		return false
	}
	d := r.evaluate(ctx, userId, channelId)

	if d.isAdmin {
		// admin access is global and never cached per channel
		return true
	}

	if (d.isManager || d.isCreator) && !d.hasPermission {
		if err := r.store.InsertPermission(ctx, userId, channelId); err != nil {
			// the role check already passed, failing to cache it must not deny
			Logger.Log.WithFields(logrus.Fields{"user": userId, "channel": channelId}).
				Errorln("fail to cache ping permission", err)
		}
		return true
	}

	return d.hasPermission
}

// Grant gives the user mentioned in target the right to ping in channelId.
// It returns the granted user id.
func (r *Resolver) Grant(ctx context.Context, granterId string, target string, channelId string) (string, error) {
	if !r.Resolve(ctx, granterId, channelId) {
		return "", ErrUnauthorized
	}
	targetId, ok := ParseMention(target)
	if !ok {
		return "", ErrInvalidTarget
	}

	has, err := r.store.HasPermission(ctx, targetId, channelId)
	if err != nil {
		return "", err
	}
	if has {
		return "", ErrAlreadyGranted
	}
	if err := r.store.InsertPermission(ctx, targetId, channelId); err != nil {
		return "", err
	}

	r.notify(ctx, targetId, fmt.Sprintf("<@%s> gave you permission to use @channel and @here pings in <#%s>.", granterId, channelId))
	return targetId, nil
}

// Revoke removes the ping permission of the user mentioned in target. It
// returns the revoked user id.
func (r *Resolver) Revoke(ctx context.Context, granterId string, target string, channelId string) (string, error) {
	if !r.Resolve(ctx, granterId, channelId) {
		return "", ErrUnauthorized
	}
	targetId, ok := ParseMention(target)
	if !ok {
		return "", ErrInvalidTarget
	}

	deleted, err := r.store.DeletePermission(ctx, targetId, channelId)
	if err != nil {
		return "", err
	}
	if !deleted {
		return "", ErrNotGranted
	}

	r.notify(ctx, targetId, fmt.Sprintf("<@%s> removed your permission to use @channel and @here pings in <#%s>.", granterId, channelId))
	return targetId, nil
}

// List returns every user able to ping in channelId: permission holders,
// admins, channel managers and the creator. An empty list is not an error.
func (r *Resolver) List(ctx context.Context, channelId string) ([]string, error) {
	permitted, err := r.store.ListPermissions(ctx, channelId)
	if err != nil {
		return nil, err
	}
	admins, err := r.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}

	all := append([]string{}, permitted...)
	all = append(all, admins...)
	all = append(all, r.directory.ChannelManagers(ctx, channelId)...)
	all = append(all, r.directory.ChannelCreator(ctx, channelId))

	res := []string{}
	for _, id := range utils.DedupStrings(all) {
		if IsUserId(id) {
			res = append(res, id)
		}
	}
	sort.Strings(res)
	return res, nil
}

func (r *Resolver) notify(ctx context.Context, userId string, text string) {
	if r.notifier == nil {
		return
	}
	// notification is best effort, the grant already happened
	_ = r.notifier.Notify(ctx, userId, text)
}
