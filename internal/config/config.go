// Package config holds the settings the lottery server starts with.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
)

// Config is the server configuration.
type Config struct {
	Port         string
	DBDir        string
	Memory       bool
	EpochLength  time.Duration
	EpochGenesis time.Time
	EpochSlack   uint64
	DrawSchedule string
	DefaultGuide string
	Verbose      bool
	LogFile      string
}

// Flags returns the command line flags Load reads. Every flag can also be
// set through its environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "port", Value: ":8080", Usage: "http listen address", EnvVars: []string{"PORT"}},
		&cli.StringFlag{Name: "db-dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
		&cli.BoolFlag{Name: "memory", Value: false, Usage: "keep state in memory instead of bolt", EnvVars: []string{"MEMORY"}},
		&cli.DurationFlag{Name: "epoch-length", Value: 24 * time.Hour, Usage: "length of one epoch", EnvVars: []string{"EPOCH_LENGTH"}},
		&cli.TimestampFlag{Name: "epoch-genesis", Layout: time.RFC3339, Usage: "start of epoch 0 (default unix epoch)", EnvVars: []string{"EPOCH_GENESIS"}},
		&cli.Uint64Flag{Name: "epoch-slack", Value: 0, Usage: "epochs a draw may advance early", EnvVars: []string{"EPOCH_SLACK"}},
		&cli.StringFlag{Name: "draw-schedule", Value: "@daily", Usage: "cron spec for advancing and drawing", EnvVars: []string{"DRAW_SCHEDULE"}},
		&cli.StringFlag{Name: "default-guide", Value: "treasury", Usage: "account paid the guide fee when none is given", EnvVars: []string{"DEFAULT_GUIDE"}},
		&cli.BoolFlag{Name: "verbose", Value: false, Usage: "log to stdout as well", EnvVars: []string{"VERBOSE"}},
		&cli.StringFlag{Name: "log-file", Value: "", Usage: "append logs to this file", EnvVars: []string{"LOG_FILE"}},
	}
}

// Load builds a Config from parsed flags.
func Load(c *cli.Context) (Config, error) {
	cfg := Config{
		Port:         c.String("port"),
		DBDir:        c.String("db-dir"),
		Memory:       c.Bool("memory"),
		EpochLength:  c.Duration("epoch-length"),
		EpochGenesis: time.Unix(0, 0).UTC(),
		EpochSlack:   c.Uint64("epoch-slack"),
		DrawSchedule: c.String("draw-schedule"),
		DefaultGuide: c.String("default-guide"),
		Verbose:      c.Bool("verbose"),
		LogFile:      c.String("log-file"),
	}
	if genesis := c.Timestamp("epoch-genesis"); genesis != nil {
		cfg.EpochGenesis = *genesis
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that would otherwise fail late.
func (c Config) Validate() error {
	if c.EpochLength <= 0 {
		return errors.New("epoch-length must be positive")
	}
	if !c.Memory && c.DBDir == "" {
		return errors.New("db-dir is required unless memory is set")
	}
	if c.DrawSchedule == "" {
		return errors.New("draw-schedule is required")
	}
	if _, err := cron.ParseStandard(c.DrawSchedule); err != nil {
		return fmt.Errorf("draw-schedule: %w", err)
	}
	return nil
}
