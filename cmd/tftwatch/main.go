package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"example.com/tftwatch/internal/riotapi"
	"example.com/tftwatch/internal/tracker"
)

type config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	AppID        string `env:"DISCORD_APP_ID,required"`
	RiotKey      string `env:"RIOT_API_KEY,required"`

	// EUNE: платформа eun1, но регион маршрутизации — europe
	Platform string `env:"PLATFORM" envDefault:"eun1"`
	Region   string `env:"REGION" envDefault:"europe"`

	AlertChannel string `env:"TARGET_CHANNEL_ID,required"`
	TopChannel   string `env:"TOP_CHANNEL_ID,required"`

	Interval time.Duration `env:"POLL_INTERVAL" envDefault:"60s"`
	DataFile string        `env:"DATA_FILE" envDefault:"database.json"`
}

func main() {
	_ = godotenv.Load() // .env опционален

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	b := tracker.New()
	b.SetDiscord(cfg.DiscordToken, cfg.AppID)
	b.SetRiot(riotapi.New(riotapi.Config{
		APIKey:   cfg.RiotKey,
		Region:   cfg.Region,
		Platform: cfg.Platform,
	}))
	b.SetChannels(cfg.AlertChannel, cfg.TopChannel)
	b.SetPollInterval(cfg.Interval)

	if err := b.UseStore(cfg.DataFile); err != nil {
		log.Fatal(err)
	}

	if err := b.Start(); err != nil {
		log.Fatal(err)
	}
	defer b.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("running… press Ctrl+C to stop")

	<-ctx.Done()
}
