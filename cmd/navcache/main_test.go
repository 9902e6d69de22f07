package main

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/fundwatch/navcache/bulletin"
)

func TestIngestCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "navcache",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "date",
						Usage: "Bulletin date (DD-Mon-YYYY), defaults to today",
					},
					&cli.StringFlag{
						Name:  "url",
						Value: bulletin.DefaultBaseURL,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 30 * time.Second,
					},
				},
			},
		},
	}

	t.Run("db is required", func(t *testing.T) {
		err := app.Run([]string{"navcache", "ingest"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("url has portal default", func(t *testing.T) {
		cmd := app.Commands[0]
		var urlFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "url" {
				urlFlag = f
				break
			}
		}
		require.NotNil(t, urlFlag)
		assert.Equal(t, bulletin.DefaultBaseURL, urlFlag.Value)
	})

	t.Run("timeout defaults to 30s", func(t *testing.T) {
		cmd := app.Commands[0]
		var timeoutFlag *cli.DurationFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.DurationFlag); ok && f.Name == "timeout" {
				timeoutFlag = f
				break
			}
		}
		require.NotNil(t, timeoutFlag)
		assert.Equal(t, 30*time.Second, timeoutFlag.Value)
	})
}

func TestIngestCommandDateValidation(t *testing.T) {
	app := &cli.App{
		Name: "navcache",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{Name: "date"},
					&cli.StringFlag{Name: "url", Value: bulletin.DefaultBaseURL},
					&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second},
				},
			},
		},
	}

	err := app.Run([]string{"navcache", "ingest", "--db", t.TempDir(), "--date", "2026-08-27"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
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
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
