// Package config loads runtime settings from the environment (optionally
// seeded from a .env file).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every runtime knob of the CLI.
type Config struct {
	ProfileDB   string // SQLite file path; "memory" selects the in-memory store
	ProfileKey  string
	TargetScore int
	FlorEnabled bool
	ThinkDelay  time.Duration
	Seed        uint64 // 0 means time-based
	ViewAICards bool   // debug: render the AI hand face up
	LogLevel    logrus.Level
}

// Load reads the environment, after merging a .env file if one is present.
// It also applies the log level to the global logrus logger.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		logrus.Debug(".env file loaded")
	}

	cfg := Config{
		ProfileDB:   envStr("TRUCO_PROFILE_DB", "truco.db"),
		ProfileKey:  envStr("TRUCO_PROFILE_KEY", "default"),
		TargetScore: envInt("TRUCO_TARGET_SCORE", 15),
		FlorEnabled: envBool("TRUCO_FLOR", true),
		ThinkDelay:  time.Duration(envInt("TRUCO_THINK_DELAY_MS", 900)) * time.Millisecond,
		Seed:        envUint("TRUCO_SEED", 0),
		ViewAICards: envBool("TRUCO_VIEW_AI_CARDS", false),
		LogLevel:    envLevel("TRUCO_LOG_LEVEL", logrus.WarnLevel),
	}
	logrus.SetLevel(cfg.LogLevel)
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("var", key).Warnf("invalid integer %q, using %d", v, def)
		return def
	}
	return n
}

func envUint(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		logrus.WithField("var", key).Warnf("invalid unsigned integer %q, using %d", v, def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithField("var", key).Warnf("invalid boolean %q, using %t", v, def)
		return def
	}
	return b
}

func envLevel(key string, def logrus.Level) logrus.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	lvl, err := logrus.ParseLevel(v)
	if err != nil {
		logrus.WithField("var", key).Warnf("invalid log level %q, using %s", v, def)
		return def
	}
	return lvl
}
