package gemini

import (
	"log/slog"
	"time"
)

// Config configures the classifier gateway and its browser session.
type Config struct {
	// AgentURL is the conversational UI the session drives.
	AgentURL string `json:"agent_url" yaml:"agent_url"`

	// UserDataDir is the Chrome user-data directory holding the reusable
	// profile. Created at startup; the only durable artifact of the service.
	UserDataDir string `json:"user_data_dir" yaml:"user_data_dir"`

	// ProfileDir is the profile name inside UserDataDir ("Default", "Profile 1").
	ProfileDir string `json:"profile_dir" yaml:"profile_dir"`

	// Headless toggles headless Chrome.
	Headless bool `json:"headless" yaml:"headless"`

	// ReadyTimeout bounds the wait for the composer surface (default: 18s).
	ReadyTimeout time.Duration `json:"ready_timeout" yaml:"ready_timeout"`

	// AnswerTimeout bounds the whole answer poll (default: 90s).
	AnswerTimeout time.Duration `json:"answer_timeout" yaml:"answer_timeout"`

	// StablePause is the gap between the two reads that declare an answer
	// stable (default: 600ms).
	StablePause time.Duration `json:"stable_pause" yaml:"stable_pause"`

	// MaxQueue is the number of callers allowed to wait for the session
	// lock. Excess callers fail immediately with ErrBusy (default: 8).
	MaxQueue int `json:"max_queue" yaml:"max_queue"`

	// BreakerThreshold is the consecutive session failures that open the
	// circuit (default: 3).
	BreakerThreshold uint32 `json:"breaker_threshold" yaml:"breaker_threshold"`

	// BreakerCooldown is how long the circuit stays open (default: 60s).
	BreakerCooldown time.Duration `json:"breaker_cooldown" yaml:"breaker_cooldown"`

	// SnapshotDir receives failure snapshots (screenshot + sanitized HTML).
	SnapshotDir string `json:"snapshot_dir" yaml:"snapshot_dir"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.AgentURL == "" {
		c.AgentURL = "https://gemini.google.com/app?hl=es"
	}
	if c.UserDataDir == "" {
		c.UserDataDir = "profile"
	}
	if c.ProfileDir == "" {
		c.ProfileDir = "Default"
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 18 * time.Second
	}
	if c.AnswerTimeout <= 0 {
		c.AnswerTimeout = 90 * time.Second
	}
	if c.StablePause <= 0 {
		c.StablePause = 600 * time.Millisecond
	}
	if c.MaxQueue <= 0 {
		c.MaxQueue = 8
	}
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = time.Minute
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = "snapshots"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
