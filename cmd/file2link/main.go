// file2link relays Telegram files into S3-compatible storage and answers
// with shareable, retention-bounded download links.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hamid0740/File2Link-Bot/internal/config"
	"github.com/hamid0740/File2Link-Bot/internal/relay"
	"github.com/hamid0740/File2Link-Bot/internal/s3store"
	"github.com/hamid0740/File2Link-Bot/internal/telegram"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	cfgFile  string
	msgsFile string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "file2link",
		Short: "Telegram file-to-link relay bot",
		Long:  "file2link receives files over Telegram, stores them in an S3-compatible bucket, and replies with a time-limited shareable link.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&msgsFile, "messages", "m", "messages.yml", "message templates file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("file2link %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("configuration error")
		return err
	}

	msgs, err := loadMessages()
	if err != nil {
		log.Error().Err(err).Msg("messages error")
		return err
	}

	store, err := s3store.New(cfg.S3EndpointURL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3BucketName)
	if err != nil {
		log.Error().Err(err).Msg("couldn't create store client")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.EnsureBucket(ctx); err != nil {
		log.Error().Err(err).Msg("couldn't ensure bucket")
		return err
	}

	metrics := relay.InitMetrics(nil)
	quota := relay.NewQuotaPolicy(cfg.GeneralLimitBytes(), cfg.PrivilegedLimitBytes())
	links := relay.NewLinkIssuer(store, cfg.S3DLBaseURL, cfg.UsePresignedURL,
		cfg.RetentionWindow(), cfg.Location(), cfg.UseJalaliDate)
	pipeline := relay.NewPipeline(store, quota, links, cfg.IsAdmin, metrics)
	sweeper := relay.NewSweeper(store, cfg.RetentionWindow(), metrics)

	if cfg.MetricsListen != "" {
		go serveMetrics(cfg.MetricsListen)
	}

	bot, err := telegram.New(cfg, msgs, pipeline, sweeper)
	if err != nil {
		log.Error().Err(err).Msg("couldn't start telegram bot")
		return err
	}

	log.Info().Str("bucket", cfg.S3BucketName).Int("keep_hours", cfg.MaxKeepHours).Msg("file2link running")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}

func loadConfig() (*config.Config, error) {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	merged, err := loaded.WithEnvOverrides(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func loadMessages() (config.Messages, error) {
	path := msgsFile
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Built-in templates when no messages file is present
		path = ""
	}
	return config.LoadMessages(path)
}

func serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("listen", listen).Msg("serving prometheus metrics")
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
