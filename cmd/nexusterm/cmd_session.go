package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/nexusterm/internal/auth"
	"github.com/user/nexusterm/internal/export"
	"github.com/user/nexusterm/internal/reconcile"
	"github.com/user/nexusterm/internal/remote"
	"github.com/user/nexusterm/internal/state"
	"github.com/user/nexusterm/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionExportCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage synced chat sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions stored in Drive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadRemoteSessions(cmd)
		if err != nil {
			return err
		}

		sessions := store.List()
		if len(sessions) == 0 {
			fmt.Fprintln(os.Stdout, "No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTURNS\tUPDATED")
		for _, sess := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				shortID(sess.ID), sess.Title, len(sess.Messages),
				sess.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <id> [file.md]",
	Short: "Export a session as markdown",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadRemoteSessions(cmd)
		if err != nil {
			return err
		}

		sess := findSession(store, args[0])
		if sess == nil {
			return fmt.Errorf("no session matching %q", args[0])
		}

		out := os.Stdout
		if len(args) == 2 {
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			out = f
		}
		return export.Session(sess, out)
	},
}

func loadRemoteSessions(cmd *cobra.Command) (*state.Store, error) {
	cfg := loadConfig()
	setupLogging(cfg, os.Stderr)

	mgr := auth.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.DataDir)
	httpClient, err := mgr.Client(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("not signed in, run 'nexusterm login' first: %w", err)
	}

	store := state.NewStore()
	rec := reconcile.New(store, remote.New(httpClient), nil, reconcile.DefaultDebounce)
	defer rec.Stop()
	if err := rec.Load(cmd.Context()); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return store, nil
}

// findSession matches a full ID, an ID prefix, or an exact title.
func findSession(store *state.Store, key string) *types.Session {
	for _, sess := range store.List() {
		if string(sess.ID) == key || strings.HasPrefix(string(sess.ID), key) || sess.Title == key {
			return sess
		}
	}
	return nil
}

func shortID(id types.SessionID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
