package main

import (
	"context"
	"os"
	"strings"

	"github.com/Luismorlan/pingbot/app_setting"
	"github.com/Luismorlan/pingbot/bot"
	"github.com/Luismorlan/pingbot/claim"
	"github.com/Luismorlan/pingbot/directory"
	"github.com/Luismorlan/pingbot/permission"
	"github.com/Luismorlan/pingbot/store"
	"github.com/Luismorlan/pingbot/telemetry"
	. "github.com/Luismorlan/pingbot/utils"
	"github.com/Luismorlan/pingbot/utils/dotenv"
	. "github.com/Luismorlan/pingbot/utils/flag"
	. "github.com/Luismorlan/pingbot/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func cleanup() {
	if dotenv.IsProdEnv() {
		CloseProfiler()
		CloseTracer()
	}
	Log.Info("ping bot shutdown")
}

// adminIds splits a comma separated list of user ids, trimmed and deduplicated.
func adminIds(raw string) []string {
	ids := strings.Split(raw, ",")
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	return DedupStrings(ids)
}

// seedAdmins makes the users in PINGBOT_ADMINS (comma separated) global
// admins. Admins are never removed here.
func seedAdmins(ctx context.Context, s *store.Store) {
	for _, id := range adminIds(os.Getenv("PINGBOT_ADMINS")) {
		if !permission.IsUserId(id) {
			Log.Warnln("skip invalid admin id", id)
			continue
		}
		if err := s.AddAdmin(ctx, id); err != nil {
			Log.Errorln("fail to add admin", id, err)
		}
	}
}

func newTelemetry() telemetry.Publisher {
	addr := os.Getenv("DD_AGENT_HOST")
	if addr == "" {
		return telemetry.NoopPublisher{}
	}
	publisher, err := telemetry.NewStatsdPublisher(addr + ":8125")
	if err != nil {
		Log.Errorln("fail to create statsd client, telemetry is disabled", err)
		return telemetry.NoopPublisher{}
	}
	return publisher
}

func main() {
	defer cleanup()
	ParseFlags()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	// env is loaded now, pick up the log level and datadog key
	InitLogger()

	if dotenv.IsProdEnv() {
		StartTracer(*ServiceName)
		if err := StartProfiler(*ServiceName); err != nil {
			Log.Errorln("fail to start profiler", err)
		}
	}

	setting, err := app_setting.ParsePingBotAppSetting(*SettingPath, !dotenv.IsProdEnv())
	if err != nil {
		panic(err)
	}

	db, err := GetDBConnection()
	if err != nil {
		panic("failed to connect to database")
	}
	if err := PingBotDBSetupAndMigration(db); err != nil {
		panic(err)
	}

	ctx := context.Background()
	s := store.New(db)
	seedAdmins(ctx, s)

	client := slack.New(os.Getenv("SLACK_BOT_TOKEN"))
	auth, err := client.AuthTestContext(ctx)
	if err != nil {
		panic(err)
	}

	dir := directory.NewSlackDirectory(client, os.Getenv("SLACK_XOXC"), os.Getenv("SLACK_XOXD"))

	config := bot.Config{
		Client:    client,
		Resolver:  permission.NewResolver(s, dir, bot.NewSlackNotifier(client)),
		Tracker:   claim.NewTracker(s),
		Webhooks:  s,
		Directory: dir,
		Telemetry: newTelemetry(),
		Setting:   setting,
		BotUserId: auth.UserID,
		OAuth: bot.OAuthSetting{
			ClientID:     os.Getenv("BOT_CLIENT_ID"),
			ClientSecret: os.Getenv("BOT_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("BOT_REDIRECT_URL"),
		},
	}
	dedup, err := GetRedisDeduplicator(ctx)
	if err != nil {
		Log.Errorln("fail to connect to redis, requests are not deduplicated", err)
	} else if dedup != nil {
		config.Dedup = dedup
	}
	b := bot.NewBot(config)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(gintrace.Middleware(*ServiceName))

	// requests from slack are signed, the oauth redirect comes from a browser
	slackRoutes := router.Group("/bot", bot.VerifySlackRequest(os.Getenv("SLACK_SIGNING_SECRET")))
	slackRoutes.POST("/cmd", bot.SlashCommandHandler(b))
	slackRoutes.POST("/interaction", bot.InteractionHandler(b))

	router.GET("/bot/auth", bot.AuthHandler(b))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"message": "Ping bot - API not found"})
	})

	Log.Info("ping bot starts up as ", auth.User)
	router.Run(":" + *Port)
}
