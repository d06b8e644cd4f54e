// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/podsight"
	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/digest"
	"github.com/poiesic/podsight/discovery"
	"github.com/poiesic/podsight/qa"
	"github.com/poiesic/podsight/reindex"
	"github.com/poiesic/podsight/server"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "podsight",
		Usage: "Insight pipeline and question answering for AI podcasts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "sync",
				Usage:     "Discover new episodes from feeds and run them through the pipeline",
				ArgsUsage: "FEED_URL [FEED_URL...]",
				Action:    syncCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"PODSIGHT_DB"},
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of episodes to process (0 = no limit)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Reprocess episodes that are already done",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent episode workers (0 = auto)",
					},
				),
			},
			{
				Name:   "ask",
				Usage:  "Answer a question grounded in the indexed episodes",
				Action: askCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"PODSIGHT_DB"},
					},
					&cli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Usage:    "Question to ask",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of passages to retrieve",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum similarity score for retrieved passages",
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP question-answering API",
				Action: serveCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"PODSIGHT_DB"},
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the vector index from the summary store",
				Action: reindexCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"PODSIGHT_DB"},
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N episodes",
						Value: 10,
					},
				),
			},
			{
				Name:   "digest",
				Usage:  "Build a digest of recent episodes and print or email it",
				Action: digestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"PODSIGHT_DB"},
					},
					&cli.DurationFlag{
						Name:  "since",
						Usage: "How far back to include episodes",
						Value: 7 * 24 * time.Hour,
					},
					&cli.StringSliceFlag{
						Name:  "to",
						Usage: "Recipient email address (repeatable); omit to print to stdout",
					},
					&cli.StringFlag{
						Name:    "smtp-host",
						Usage:   "SMTP server hostname",
						EnvVars: []string{"PODSIGHT_SMTP_HOST"},
					},
					&cli.IntFlag{
						Name:    "smtp-port",
						Usage:   "SMTP server port",
						Value:   587,
						EnvVars: []string{"PODSIGHT_SMTP_PORT"},
					},
					&cli.StringFlag{
						Name:    "smtp-user",
						Usage:   "SMTP username, also used as the From address",
						EnvVars: []string{"PODSIGHT_SMTP_USER"},
					},
					&cli.StringFlag{
						Name:    "smtp-password",
						Usage:   "SMTP password",
						EnvVars: []string{"PODSIGHT_SMTP_PASSWORD"},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// aiFlags returns the flags shared by every command that talks to the
// AI services.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"PODSIGHT_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "chat-host",
			Usage:   "Chat completion service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"PODSIGHT_CHAT_HOST"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API token for the AI services",
			Value:   "none",
			EnvVars: []string{"PODSIGHT_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"PODSIGHT_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "extraction-model",
			Usage:   "Model used for insight extraction",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"PODSIGHT_EXTRACTION_MODEL"},
		},
		&cli.StringFlag{
			Name:    "answer-model",
			Usage:   "Model used for answer synthesis",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"PODSIGHT_ANSWER_MODEL"},
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithChatHost(c.String("chat-host")),
		ai.WithAPIToken(c.String("api-token")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithExtractionModel(c.String("extraction-model")),
		ai.WithAnswerModel(c.String("answer-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openDatabase(c *cli.Context) (*podsight.Database, error) {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}
	db, err := podsight.NewDatabase(c.String("db"), podsight.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func syncCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feeds := c.Args().Slice()
	if len(feeds) == 0 {
		return fmt.Errorf("at least one feed URL is required")
	}

	source, err := discovery.NewFeedSource(feeds...)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []discovery.Option
	if c.Int("pool-size") > 0 {
		opts = append(opts, discovery.WithPoolSize(c.Int("pool-size")))
	}

	pipeline, err := db.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	report, err := pipeline.Sync(ctx, source, &discovery.SyncOptions{
		Limit: c.Int("limit"),
		Force: c.Bool("force"),
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Discovered: %d\n", report.Discovered)
	fmt.Fprintf(os.Stderr, "New:        %d\n", report.New)
	fmt.Fprintf(os.Stderr, "Processed:  %d\n", report.Processed)
	fmt.Fprintf(os.Stderr, "Skipped:    %d\n", report.Skipped)
	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "Failed:     %s at %s: %v\n", failure.EpisodeId, failure.Stage, failure.Err)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	config := qa.DefaultConfig()
	if c.Int("top-k") > 0 {
		config.TopK = c.Int("top-k")
	}
	if c.Float64("min-score") > 0 {
		config.MinScore = float32(c.Float64("min-score"))
	}

	engine := db.NewEngine(config)
	result, err := engine.Ask(ctx, c.String("message"))
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, source := range result.Sources {
			fmt.Printf("  [%s] %s (%.2f)\n", source.EpisodeId, source.Title, source.Score)
		}
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := db.NewServer(&server.Config{Addr: c.String("addr")})

	fmt.Fprintf(os.Stderr, "Listening on %s\n", c.String("addr"))
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	config := &reindex.Config{
		ReportInterval: c.Int("report-interval"),
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	reindexer := db.NewReindexer(config, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintln(os.Stderr)

	report, err := reindexer.Run(ctx)
	if err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Total:   %d\n", report.Total)
	fmt.Fprintf(os.Stderr, "Indexed: %d\n", report.Indexed)
	fmt.Fprintf(os.Stderr, "Pruned:  %d\n", report.Pruned)
	fmt.Fprintf(os.Stderr, "Failed:  %d\n", report.Failed)
	return nil
}

func digestCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := podsight.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	builder := db.NewDigestBuilder()
	result, err := builder.Build(ctx, time.Now().Add(-c.Duration("since")))
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}

	recipients := c.StringSlice("to")
	if len(recipients) == 0 {
		fmt.Println(result.Markdown)
		return nil
	}

	mailer, err := digest.NewSMTPMailer(digest.SMTPConfig{
		Host:     c.String("smtp-host"),
		Port:     c.Int("smtp-port"),
		Username: c.String("smtp-user"),
		Password: c.String("smtp-password"),
	})
	if err != nil {
		return fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	if err := mailer.Send(result, recipients); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Sent digest covering %d episodes to %d recipients\n",
		result.EpisodeCount, len(recipients))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
