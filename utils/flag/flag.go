/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are service-agnostic and parsed once in main.
	Package level defaults are usable without parsing, which keeps tests working.
*/

package flag

import (
	"flag"
)

const (
	PingBot = "ping_bot"
)

var (
	ServiceName = flag.String("service", PingBot, "service name reported to logs and traces")
	Port        = flag.String("port", "9090", "port the bot http server listens on")
	SettingPath = flag.String("setting", "", "path to the ping bot yaml setting, defaults are used if empty")
)

func ParseFlags() {
	flag.Parse()
}
