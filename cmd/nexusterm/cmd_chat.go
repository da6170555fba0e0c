package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/user/nexusterm/internal/auth"
	"github.com/user/nexusterm/internal/chatlog"
	ctxengine "github.com/user/nexusterm/internal/context"
	"github.com/user/nexusterm/internal/persona"
	"github.com/user/nexusterm/internal/reconcile"
	"github.com/user/nexusterm/internal/remote"
	"github.com/user/nexusterm/internal/runtime"
	"github.com/user/nexusterm/internal/sources"
	"github.com/user/nexusterm/internal/state"
	"github.com/user/nexusterm/internal/ui"
	"github.com/user/nexusterm/pkg/llm"
	"github.com/user/nexusterm/pkg/llm/gemini"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the chat UI",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Log to a file while the TUI owns the terminal.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "nexusterm.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(cfg, logFile)

	provider := gemini.New(&llm.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		FlashModel:  cfg.Gemini.FlashModel,
		ImageModel:  cfg.Gemini.ImageModel,
		SpeechModel: cfg.Gemini.SpeechModel,
		Voice:       cfg.Gemini.Voice,
	})

	engine, err := ctxengine.New(cfg.Gemini.Model, cfg.Gemini.MaxContextTokens, cfg.Gemini.OutputReserve)
	if err != nil {
		return fmt.Errorf("create context engine: %w", err)
	}

	log := chatlog.New()
	sessions := state.NewStore()
	artifacts := state.NewArtifactStore(cfg.DataDir)
	rt := runtime.New(provider, log, sessions, artifacts, engine, persona.NewRegexClassifier())

	authMgr := auth.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.DataDir)

	// send is bound to the program after it exists so the auth-expiry
	// callback can reach the UI from the reconciler goroutine.
	var send func(tea.Msg)
	var rec *reconcile.Reconciler
	signedIn := authMgr.SignedIn()
	if signedIn {
		httpClient, err := authMgr.Client(cmd.Context())
		if err != nil {
			slog.Warn("google credential unusable, running signed out", "error", err)
			signedIn = false
		} else {
			drive := remote.New(httpClient)
			rec = reconcile.New(sessions, drive, func() {
				authMgr.SignOut()
				if send != nil {
					send(ui.SignedOutMsg{})
				}
			}, reconcile.DefaultDebounce)
			sessions.SetOnChange(rec.ScheduleFlush)
		}
	}

	model := ui.New(ui.Deps{
		Config:     cfg,
		Runtime:    rt,
		Log:        log,
		Sessions:   sessions,
		Reconciler: rec,
		Auth:       authMgr,
		Previewer:  sources.NewPreviewer(),
		Configured: provider.IsConfigured(),
		SignedIn:   signedIn,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	send = p.Send

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	rt.Cancel()
	if rec != nil {
		rec.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rec.FlushNow(ctx); err != nil {
			slog.Warn("final flush failed", "error", err)
		}
	}
	return nil
}
