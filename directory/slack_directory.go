// Package directory looks up channel roles and user profiles in Slack.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	Logger "github.com/Luismorlan/pingbot/utils/log"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

const (
	defaultAPIURL  = "https://slack.com/api/"
	defaultTimeout = 10 * time.Second

	unknownDisplayName = "<unknown>"
)

// Profile is what a ping shows as its sender.
type Profile struct {
	DisplayName string
	AvatarURL   string
}

// SlackClient is the part of slack.Client the directory reads from.
type SlackClient interface {
	GetConversationInfoContext(ctx context.Context, channelID string, includeLocale bool) (*slack.Channel, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// roleAssignmentsResponse is the body of admin.roles.entity.listAssignments.
// slack-go does not cover this endpoint.
type roleAssignmentsResponse struct {
	Ok              bool   `json:"ok"`
	Error           string `json:"error"`
	RoleAssignments []struct {
		RoleID string   `json:"role_id"`
		Users  []string `json:"users"`
	} `json:"role_assignments"`
}

type SlackDirectory struct {
	client     SlackClient
	httpClient *http.Client
	apiURL     string
	// Channel managers are only exposed to a signed in user session, so the
	// lookup authenticates with a browser token (xoxc) and its "d" cookie (xoxd).
	xoxc string
	xoxd string
}

type Option func(*SlackDirectory)

func OptionAPIURL(apiURL string) Option {
	return func(d *SlackDirectory) { d.apiURL = apiURL }
}

func OptionHTTPClient(client *http.Client) Option {
	return func(d *SlackDirectory) { d.httpClient = client }
}

func NewSlackDirectory(client SlackClient, xoxc string, xoxd string, options ...Option) *SlackDirectory {
	d := &SlackDirectory{
		client:     client,
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiURL:     defaultAPIURL,
		xoxc:       xoxc,
		xoxd:       xoxd,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// ChannelManagers returns the channel managers of channelId, or an empty list
// on any failure.
func (d *SlackDirectory) ChannelManagers(ctx context.Context, channelId string) []string {
	managers, err := d.listChannelManagers(ctx, channelId)
	if err != nil {
		Logger.Log.WithField("channel", channelId).Warnln("fail to list channel managers", err)
		return []string{}
	}
	return managers
}

func (d *SlackDirectory) listChannelManagers(ctx context.Context, channelId string) ([]string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	if err := form.WriteField("token", d.xoxc); err != nil {
		return nil, err
	}
	if err := form.WriteField("entity_id", channelId); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"admin.roles.entity.listAssignments", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Cookie", fmt.Sprintf("d=%s", url.QueryEscape(d.xoxd)))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fail to request role assignments")
	}
	defer resp.Body.Close()

	var res roleAssignmentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "fail to decode role assignments")
	}
	if !res.Ok {
		return nil, errors.Errorf("role assignments not ok: %s", res.Error)
	}
	if len(res.RoleAssignments) == 0 {
		return []string{}, nil
	}
	return res.RoleAssignments[0].Users, nil
}

// ChannelCreator returns the user id that created channelId, "" when unknown.
func (d *SlackDirectory) ChannelCreator(ctx context.Context, channelId string) string {
	channel, err := d.client.GetConversationInfoContext(ctx, channelId, false)
	if err != nil {
		Logger.Log.WithField("channel", channelId).Warnln("fail to get channel info", err)
		return ""
	}
	if channel == nil {
		return ""
	}
	return channel.Creator
}

// UserProfile returns how userId should appear as a ping sender. Display name
// falls back to the user name, the avatar to the 512px image.
func (d *SlackDirectory) UserProfile(ctx context.Context, userId string) Profile {
	profile := Profile{DisplayName: unknownDisplayName}
	user, err := d.client.GetUserInfoContext(ctx, userId)
	if err != nil || user == nil {
		Logger.Log.WithField("user", userId).Warnln("fail to get user info", err)
		return profile
	}

	if user.Profile.DisplayName != "" {
		profile.DisplayName = user.Profile.DisplayName
	} else if user.Name != "" {
		profile.DisplayName = user.Name
	}

	profile.AvatarURL = user.Profile.ImageOriginal
	if profile.AvatarURL == "" {
		profile.AvatarURL = user.Profile.Image512
	}
	return profile
}
