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
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSyncCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "podsight",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Action: syncCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Required: true,
					},
					&cli.IntFlag{Name: "limit"},
					&cli.BoolFlag{Name: "force"},
					&cli.IntFlag{Name: "pool-size"},
				),
			},
		},
	}

	t.Run("missing db flag fails", func(t *testing.T) {
		args := []string{"podsight", "sync", "https://example.com/feed.xml"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		cmd := app.Commands[0]
		var hostFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "embedding-host" {
				hostFlag = f
				break
			}
		}
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("extraction-model has default value", func(t *testing.T) {
		cmd := app.Commands[0]
		var modelFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "extraction-model" {
				modelFlag = f
				break
			}
		}
		require.NotNil(t, modelFlag)
		assert.Equal(t, "qwen2.5:3b", modelFlag.Value)
	})
}

func TestSyncCommandValidation(t *testing.T) {
	t.Run("no feed URLs fails", func(t *testing.T) {
		app := &cli.App{
			Name: "podsight",
			Commands: []*cli.Command{
				{
					Name:   "sync",
					Action: syncCommand,
					Flags: append(aiFlags(),
						&cli.StringFlag{Name: "db", Aliases: []string{"d"}},
						&cli.IntFlag{Name: "limit"},
						&cli.BoolFlag{Name: "force"},
						&cli.IntFlag{Name: "pool-size"},
					),
				},
			},
		}

		err := app.Run([]string{"podsight", "sync", "--db", t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feed URL")
	})
}

func TestDigestCommandFlags(t *testing.T) {
	t.Run("smtp-port defaults to 587", func(t *testing.T) {
		portFlag := &cli.IntFlag{
			Name:  "smtp-port",
			Value: 587,
		}
		assert.Equal(t, 587, portFlag.Value)
	})

	t.Run("missing smtp host fails when recipients given", func(t *testing.T) {
		app := &cli.App{
			Name: "podsight",
			Commands: []*cli.Command{
				{
					Name:   "digest",
					Action: digestCommand,
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "db", Aliases: []string{"d"}},
						&cli.DurationFlag{Name: "since", Value: 7 * 24 * time.Hour},
						&cli.StringSliceFlag{Name: "to"},
						&cli.StringFlag{Name: "smtp-host"},
						&cli.IntFlag{Name: "smtp-port", Value: 587},
						&cli.StringFlag{Name: "smtp-user"},
						&cli.StringFlag{Name: "smtp-password"},
					},
				},
			},
		}

		args := []string{"podsight", "digest", "--db", t.TempDir(), "--to", "ops@example.com"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SMTP")
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("default log level is info", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				assert.Equal(t, "info", c.String("log-level"))
				return nil
			},
		}

		err := app.Run([]string{"test"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
