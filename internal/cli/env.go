// env.go wires config, storage, and services for a single command run.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ainotes-dev/ainotes/internal/api"
	"github.com/ainotes-dev/ainotes/internal/assistant"
	"github.com/ainotes-dev/ainotes/internal/config"
	"github.com/ainotes-dev/ainotes/internal/log"
	"github.com/ainotes-dev/ainotes/internal/notes"
	"github.com/ainotes-dev/ainotes/internal/session"
	"github.com/ainotes-dev/ainotes/internal/storage"
)

// errNotSignedIn is returned by commands that need a session.
var errNotSignedIn = errors.New("not signed in; run: ainotes login")

type env struct {
	cfg       *config.Config
	home      string
	logger    *log.Logger
	store     storage.KV
	closeFn   func() error
	client    *api.Client
	session   *session.Manager
	notes     *notes.Store
	assistant *assistant.Bridge
}

// homeDir resolves the state directory: --home, then $AINOTES_HOME, then ~/.ainotes.
func homeDir(opts *options) (string, error) {
	if opts.home != "" {
		return opts.home, nil
	}
	return config.HomeDir()
}

// loadConfig reads the config for opts with the --server override applied.
func loadConfig(opts *options) (*config.Config, string, error) {
	home, err := homeDir(opts)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, "", err
	}
	if opts.server != "" {
		cfg.Server.BaseURL = strings.TrimRight(opts.server, "/")
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
	}
	return cfg, home, nil
}

func newEnv(cmd *cobra.Command, opts *options) (*env, error) {
	cfg, home, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, home: home, closeFn: func() error { return nil }}

	if cfg.Log.Enabled {
		logger, err := log.NewLogger(home)
		if err != nil {
			return nil, fmt.Errorf("opening event log: %w", err)
		}
		e.logger = logger
	}

	if opts.ephemeral {
		e.store = storage.NewMemory()
	} else {
		db, err := storage.NewStore(config.StatePath(home))
		if err != nil {
			return nil, fmt.Errorf("opening token store: %w", err)
		}
		e.store = db
		e.closeFn = db.Close
	}

	e.client = api.NewClient(cfg.Server.BaseURL, cfg.Server.Timeout(), e.logger)
	e.session = session.NewManager(e.store, e.client, e.logger)
	e.client.UseSession(e.session)
	e.notes = notes.NewStore(e.client, e.logger)
	e.assistant = assistant.NewBridge(e.client, e.logger)

	stderr := cmd.ErrOrStderr()
	e.session.OnExpired(func() {
		fmt.Fprintln(stderr, "Your session expired. Sign in again with: ainotes login")
	})
	return e, nil
}

// Close releases the token store.
func (e *env) Close() {
	_ = e.closeFn()
}

// requireSession restores the stored session and fails when there is none.
func (e *env) requireSession(ctx context.Context) error {
	if e.session.Initialize(ctx) != session.StateAuthenticated {
		return errNotSignedIn
	}
	return nil
}

// withSession runs fn with a restored session for the command.
func withSession(cmd *cobra.Command, opts *options, fn func(ctx context.Context, e *env) error) error {
	e, err := newEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.requireSession(ctx); err != nil {
		return err
	}
	return fn(ctx, e)
}
