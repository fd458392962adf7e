package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// settings is the resolved process configuration. Values come from the
// optional YAML file named by CONFIG, then environment variables override.
type settings struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	AgentURL      string        `yaml:"agent_url"`
	UserDataDir   string        `yaml:"user_data_dir"`
	ProfileDir    string        `yaml:"profile_dir"`
	Headless      bool          `yaml:"headless"`
	Warmup        bool          `yaml:"warmup"`
	AnswerTimeout time.Duration `yaml:"answer_timeout"`
	MaxQueue      int           `yaml:"max_queue"`
	SnapshotDir   string        `yaml:"snapshot_dir"`

	MCPTransport string `yaml:"mcp_transport"` // "" | "stdio"
}

func loadSettings() (*settings, error) {
	s := &settings{
		Port:        "8085",
		LogLevel:    "info",
		AgentURL:    "https://gemini.google.com/app?hl=es",
		UserDataDir: "profile",
		ProfileDir:  "Default",
		Headless:    true,
		SnapshotDir: "snapshots",
	}

	if path := os.Getenv("CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	s.Port = env("PORT", s.Port)
	s.LogLevel = env("LOG_LEVEL", s.LogLevel)
	s.AgentURL = env("GEMINI_URL", s.AgentURL)
	s.UserDataDir = env("GEMINI_USER_DATA", s.UserDataDir)
	s.ProfileDir = env("GEMINI_PROFILE_DIR", s.ProfileDir)
	s.Headless = envBool("GEMINI_HEADLESS", s.Headless)
	s.Warmup = envBool("GEMINI_WARMUP", s.Warmup)
	s.SnapshotDir = env("SNAPSHOT_DIR", s.SnapshotDir)
	s.MCPTransport = env("MCP_ENABLE", s.MCPTransport)

	return s, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
