package app_setting

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DeliveryModeDirect  = "direct"
	DeliveryModeWebhook = "webhook"

	devCommandPrefix = "/dev-"
	commandPrefix    = "/"
)

// This is the ping bot setting, the bot works with defaults alone.
type PingBotAppSetting struct {
	// Slash command names. In development every command is prefixed with
	// "/dev-" so a dev app can live in the same workspace as production.
	CHANNEL_COMMAND_NAME      string `yaml:"CHANNEL_COMMAND_NAME"`
	HERE_COMMAND_NAME         string `yaml:"HERE_COMMAND_NAME"`
	ADD_PERMS_COMMAND_NAME    string `yaml:"ADD_PERMS_COMMAND_NAME"`
	REMOVE_PERMS_COMMAND_NAME string `yaml:"REMOVE_PERMS_COMMAND_NAME"`
	LIST_PINGERS_COMMAND_NAME string `yaml:"LIST_PINGERS_COMMAND_NAME"`
	// "direct" posts pings as the sender through chat.postMessage, "webhook"
	// posts through an incoming webhook each user registers per channel.
	DELIVERY_MODE string `yaml:"DELIVERY_MODE"`
	// The user people should DM when a ping fails, mentioned in error messages.
	SUPPORT_USER_ID string `yaml:"SUPPORT_USER_ID"`
}

func commandName(isDevelopment bool, name string) string {
	if isDevelopment {
		return devCommandPrefix + name
	}
	return commandPrefix + name
}

func DefaultPingBotAppSetting(isDevelopment bool) PingBotAppSetting {
	return PingBotAppSetting{
		CHANNEL_COMMAND_NAME:      commandName(isDevelopment, "channel"),
		HERE_COMMAND_NAME:         commandName(isDevelopment, "here"),
		ADD_PERMS_COMMAND_NAME:    commandName(isDevelopment, "add-channel-perms"),
		REMOVE_PERMS_COMMAND_NAME: commandName(isDevelopment, "remove-channel-perms"),
		LIST_PINGERS_COMMAND_NAME: commandName(isDevelopment, "list-channel-pingers"),
		DELIVERY_MODE:             DeliveryModeDirect,
	}
}

// ParsePingBotAppSetting reads the yaml at path over the defaults. An empty
// path returns the defaults.
func ParsePingBotAppSetting(path string, isDevelopment bool) (PingBotAppSetting, error) {
	s := DefaultPingBotAppSetting(isDevelopment)
	if path == "" {
		return s, nil
	}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return s, errors.Wrap(err, "fail to read ping bot setting")
	}
	if err := yaml.Unmarshal(yamlFile, &s); err != nil {
		return s, errors.Wrap(err, "fail to parse ping bot setting")
	}
	if s.DELIVERY_MODE != DeliveryModeDirect && s.DELIVERY_MODE != DeliveryModeWebhook {
		return s, errors.Errorf("unknown DELIVERY_MODE %q", s.DELIVERY_MODE)
	}
	return s, nil
}
