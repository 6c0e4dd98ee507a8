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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/driftlens/config"
	"github.com/urfave/cli/v2"
)

const settingsKey = "settings"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "driftlens",
		Usage: "Biometric drift analysis with literature-grounded clinical briefs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load settings from these .env files (default: .env if present)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Corpus store: badger or atlas",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
			&cli.StringFlag{
				Name:  "mongo-uri",
				Usage: "MongoDB Atlas connection string",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "generator-host",
				Usage: "Brief generation service host URL",
			},
			&cli.StringFlag{
				Name:  "generator-model",
				Usage: "Brief generation model name",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyse one submission or a JSON array of submissions",
				ArgsUsage: "[payload.json]",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of condition matches per submission",
					},
					&cli.DurationFlag{
						Name:  "stage-timeout",
						Usage: "Timeout for each embedding, retrieval and generation call",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Submissions analysed concurrently",
					},
					&cli.BoolFlag{
						Name:  "no-changepoints",
						Usage: "Skip change-point detection",
					},
					&cli.BoolFlag{
						Name:  "unconfigured-metrics",
						Usage: "Also analyse series with no configured threshold",
					},
					&cli.BoolFlag{
						Name:  "no-fusion",
						Usage: "Rank by semantic similarity only",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Indent JSON output",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the corpus with free text",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of matches",
					},
					&cli.BoolFlag{
						Name:  "no-fusion",
						Usage: "Rank by semantic similarity only",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Embed and store corpus entries",
				Action: seedCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "JSON file of corpus entries (default: bundled corpus)",
					},
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Delete the existing corpus first",
					},
				}, batchFlags()...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all corpus conditions with the configured embedding model",
				Action: reembedCommand,
				Flags:  batchFlags(),
			},
		},
	}
}

func batchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of conditions to embed in each request",
			Value: 32,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N conditions",
			Value: 32,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed embedding requests",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

// setup loads settings, applies global flag overrides and configures logging.
func setup(c *cli.Context) error {
	settings, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	applyOverrides(c, settings)
	if err := settings.Validate(); err != nil {
		return err
	}

	level := settings.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	if err := setupLogger(level); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[settingsKey] = settings
	return nil
}

func applyOverrides(c *cli.Context, s *config.Settings) {
	for flag, field := range map[string]*string{
		"backend":         &s.Backend,
		"db":              &s.DataPath,
		"mongo-uri":       &s.MongoURI,
		"embedding-host":  &s.EmbeddingHost,
		"embedding-model": &s.EmbeddingModel,
		"generator-host":  &s.GeneratorHost,
		"generator-model": &s.GeneratorModel,
	} {
		if c.IsSet(flag) {
			*field = c.String(flag)
		}
	}
}

func settingsOf(c *cli.Context) *config.Settings {
	if s, ok := c.App.Metadata[settingsKey].(*config.Settings); ok {
		return s
	}
	return &config.Settings{}
}

func setupLogger(levelStr string) error {
	var level slog.Level
	switch strings.ToLower(levelStr) {
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
