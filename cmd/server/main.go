package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/cvparse/internal/api"
	"github.com/dgallion1/cvparse/internal/config"
	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/dgallion1/cvparse/internal/fetch"
	"github.com/dgallion1/cvparse/internal/followup"
	"github.com/dgallion1/cvparse/internal/notify"
	"github.com/dgallion1/cvparse/internal/parser"
	"github.com/dgallion1/cvparse/internal/pipeline"
	"github.com/dgallion1/cvparse/internal/sink"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boundary, err := extract.ParseBoundary(cfg.SectionBoundary)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		log.Error("init fetcher", "error", err)
		os.Exit(1)
	}

	recordSink, err := newSink(ctx, cfg, log)
	if err != nil {
		log.Error("init record sink", "error", err)
		os.Exit(1)
	}

	mailer, err := newMailer(ctx, cfg)
	if err != nil {
		log.Error("init mailer", "error", err)
		os.Exit(1)
	}

	sender := notify.NewFollowUpSender(notify.NewFollowUpComposer(), mailer, cfg.MailFrom)
	scheduler := followup.NewScheduler(sender, cfg.FollowUpSendTimeout, cfg.FollowUpTTL, log)
	scheduler.Start(ctx)

	proc := pipeline.NewProcessor(pipeline.Options{
		Parsers:   parser.DefaultRegistry(cfg.PDFFallbackPdftotext),
		Extractor: extract.New(boundary),
		Fetcher:   fetcher,
		Sink:      recordSink,
		Webhook:   notify.NewWebhookClient(cfg.WebhookURL, cfg.CandidateEmail, cfg.WebhookTimeout),
		FollowUps: scheduler,
		Candidate: pipeline.Candidate{
			Name:          cfg.CandidateName,
			Email:         cfg.CandidateEmail,
			DefaultStatus: cfg.WebhookStatus,
		},
		FollowUpHour: cfg.FollowUpHour,
	}, log)

	srv := api.NewServer(proc, scheduler, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		scheduler.Stop()
	}()

	log.Info("starting cvparse",
		"port", cfg.Port,
		"sink", cfg.SinkBackend,
		"mail", cfg.MailBackend,
		"section_boundary", boundary.String(),
		"s3", cfg.S3Enabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

func newFetcher(ctx context.Context, cfg config.Config) (*fetch.Fetcher, error) {
	opts := fetch.Options{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.MaxDocumentBytes,
	}
	if cfg.S3Enabled() {
		client, err := fetch.NewS3Client(ctx, cfg.S3Region, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			return nil, err
		}
		opts.S3 = client
	}
	return fetch.New(opts), nil
}

func newSink(ctx context.Context, cfg config.Config, log *slog.Logger) (sink.Sink, error) {
	switch cfg.SinkBackend {
	case config.SinkSheets:
		svc, err := sink.NewSheetsService(ctx, cfg.GoogleClientEmail, cfg.GooglePrivateKey)
		if err != nil {
			return nil, err
		}
		return sink.NewSheetsSink(svc, cfg.GoogleSheetID, cfg.SheetsRatePerSec, log), nil
	case config.SinkXLSX:
		return sink.NewXLSXSink(cfg.XLSXPath, log), nil
	}
	return nil, fmt.Errorf("unknown sink backend %q", cfg.SinkBackend)
}

func newMailer(ctx context.Context, cfg config.Config) (notify.Mailer, error) {
	switch cfg.MailBackend {
	case config.MailSMTP:
		return notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUsername, cfg.MailPassword), nil
	case config.MailGmail:
		svc, err := notify.NewGmailService(ctx, cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRefreshToken)
		if err != nil {
			return nil, err
		}
		return notify.NewGmailMailer(svc), nil
	}
	return nil, fmt.Errorf("unknown mail backend %q", cfg.MailBackend)
}
