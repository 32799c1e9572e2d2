package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"PerfumeBot/config"
	"PerfumeBot/handler"
	"PerfumeBot/logger"
	"PerfumeBot/metrics"
	"PerfumeBot/quiz"
	"PerfumeBot/repo"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and poll Telegram for updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return run(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	if cfg.BotToken == "" {
		return errors.New("BOT_TOKEN environment variable not set")
	}

	var fc *repo.FirebaseConnector
	if cfg.FirebaseEnabled() {
		var err error
		fc, err = repo.NewFirebaseConnector(ctx, cfg.FirebaseKeyPath, cfg.FirebaseDatabaseURL)
		if err != nil {
			return fmt.Errorf("error creating Firebase connector: %w", err)
		}
	}

	survey, err := loadSurvey(ctx, cfg, fc)
	if err != nil {
		return err
	}

	sessionOpts := []quiz.SessionsOption{quiz.WithSessionsLogger(log)}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("error connecting to redis: %w", err)
		}
		locker := repo.NewRedisLocker(client, "")
		defer locker.Close()
		sessionOpts = append(sessionOpts, quiz.WithLocker(locker, 0))
		log.Info().Str("addr", cfg.RedisAddr).Msg("distributed conversation locking enabled")
	}

	engineOpts := []quiz.Option{
		quiz.WithLogger(log),
		quiz.WithSessions(quiz.NewSessions(sessionOpts...)),
		quiz.WithIntentTimeout(cfg.RenderTimeout),
	}
	if fc != nil {
		engineOpts = append(engineOpts, quiz.WithIntentSink(fc))
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		engineOpts = append(engineOpts, quiz.WithRecorder(metrics.NewCollector(reg)))
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	engine := quiz.NewEngine(survey, handler.NewRenderer(cfg.RenderTimeout), engineOpts...)
	h := handler.NewPerfumeBotHandler(engine, log)

	b, err := bot.New(cfg.BotToken, h.Options()...)
	if err != nil {
		return fmt.Errorf("error creating bot: %w", err)
	}

	log.Info().Int("questions", len(survey.Questions)).Int("items", len(survey.Catalog)).Msg("bot started")
	b.Start(ctx)
	log.Info().Msg("bot stopped")
	return nil
}
