package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/nexusterm/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "nexusterm",
	Short: "Nexus chat in your terminal",
	Long:  "Nexusterm is a terminal client for the Nexus assistant: streaming chat, personas, image generation, and chat history mirrored to Google Drive.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	defaultPath := filepath.Join(os.Getenv("HOME"), ".nexusterm", "config.json")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "config file path")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// setupLogging routes slog to w at the configured level. The chat UI
// passes a file so log lines never tear the screen.
func setupLogging(cfg *config.Config, w io.Writer) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
