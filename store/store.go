// Package store persists admins, ping permissions, ping claims and webhooks
// with gorm. Every method takes the caller's context; timeouts are the
// caller's business.
package store

import (
	"context"

	"github.com/Luismorlan/pingbot/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("entity not found")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) IsAdmin(ctx context.Context, userId string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Admin{}).Where("user_id = ?", userId).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "error during querying admin")
	}
	return count > 0, nil
}

func (s *Store) AddAdmin(ctx context.Context, userId string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Admin{UserId: userId}).Error
	return errors.Wrap(err, "error during adding admin")
}

func (s *Store) ListAdmins(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Admin{}).Order("user_id").Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "error during listing admins")
	}
	return ids, nil
}

func (s *Store) HasPermission(ctx context.Context, userId string, channelId string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PingPermission{}).
		Where("slack_id = ? AND channel_id = ?", userId, channelId).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "error during querying ping permission")
	}
	return count > 0, nil
}

// InsertPermission is idempotent, a concurrent insert of the same row is a
// no-op instead of a duplicate key error.
func (s *Store) InsertPermission(ctx context.Context, userId string, channelId string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.PingPermission{SlackId: userId, ChannelId: channelId}).Error
	return errors.Wrap(err, "error during adding ping permission")
}

// DeletePermission reports whether a row was removed.
func (s *Store) DeletePermission(ctx context.Context, userId string, channelId string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("slack_id = ? AND channel_id = ?", userId, channelId).
		Delete(&model.PingPermission{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "error during deleting ping permission")
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListPermissions(ctx context.Context, channelId string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.PingPermission{}).
		Where("channel_id = ?", channelId).
		Order("slack_id").
		Pluck("slack_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "error during listing ping permissions")
	}
	return ids, nil
}

func (s *Store) InsertPing(ctx context.Context, ping model.Ping) error {
	err := s.db.WithContext(ctx).Create(&ping).Error
	return errors.Wrap(err, "error during adding ping")
}

// FindPing returns the claim of userId on message ts, ErrNotFound if userId
// did not send it.
func (s *Store) FindPing(ctx context.Context, ts string, userId string) (*model.Ping, error) {
	return s.findPing(ctx, s.db.Where("ts = ? AND slack_id = ?", ts, userId))
}

// FindPingByTs returns the claim on message ts regardless of the sender.
func (s *Store) FindPingByTs(ctx context.Context, ts string) (*model.Ping, error) {
	return s.findPing(ctx, s.db.Where("ts = ?", ts))
}

func (s *Store) findPing(ctx context.Context, query *gorm.DB) (*model.Ping, error) {
	var ping model.Ping
	err := query.WithContext(ctx).First(&ping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "error during querying ping")
	}
	return &ping, nil
}

func (s *Store) DeletePing(ctx context.Context, ts string) error {
	err := s.db.WithContext(ctx).Where("ts = ?", ts).Delete(&model.Ping{}).Error
	return errors.Wrap(err, "error during deleting ping")
}

func (s *Store) GetWebhook(ctx context.Context, userId string, channelId string) (*model.Webhook, error) {
	var webhook model.Webhook
	err := s.db.WithContext(ctx).
		Where("slack_id = ? AND channel_id = ?", userId, channelId).
		First(&webhook).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "error during querying webhook")
	}
	return &webhook, nil
}

// UpsertWebhook replaces the url of an existing registration.
func (s *Store) UpsertWebhook(ctx context.Context, webhook model.Webhook) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slack_id"}, {Name: "channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "updated_at"}),
	}).Create(&webhook).Error
	return errors.Wrap(err, "error during saving webhook")
}
