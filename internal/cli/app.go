// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/history"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/storage"
)

type globalFlags struct {
	configPath string
	apiURL     string
	store      string
	verbose    bool
}

// app carries what every command needs: the loaded config, the logger
// and a lazily opened store.
type app struct {
	flags globalFlags

	cfg     *config.Config
	cfgPath string
	log     *zap.Logger

	store   storage.Store
	profile *storage.Profile

	// newClient builds the backend client; tests replace it.
	newClient func(cfg *config.Config, log *zap.Logger) historyAsker
}

// historyAsker is the backend surface the commands use. *api.Client
// satisfies it.
type historyAsker interface {
	session.Asker
	history.Fetcher
}

// setup loads config and builds the logger. Flags override the file.
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.flags.configPath != "" {
		a.cfgPath = a.flags.configPath
		a.cfg, err = config.LoadFromPath(a.flags.configPath)
	} else {
		a.cfgPath, _ = config.ActivePath()
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.flags.apiURL != "" {
		a.cfg.API.BaseURL = a.flags.apiURL
	}
	if a.flags.store != "" {
		a.cfg.Store.Backend = a.flags.store
	}
	a.cfg.SetDefaults()
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	log, err := logging.New(logging.Options{
		Level:   a.cfg.Log.Level,
		File:    a.cfg.Log.File,
		Verbose: a.flags.verbose,
	})
	if err != nil {
		// Logging is best effort; commands still run.
		fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("[!] logging disabled: "+err.Error()))
		log = zap.NewNop()
	}
	a.log = log.With(zap.String("cmd", cmd.Name()))
	a.log.Debug("config loaded", zap.String("path", a.cfgPath), zap.String("backend", a.cfg.Store.Backend))
	return nil
}

// openProfile opens the configured store on first use.
func (a *app) openProfile() (*storage.Profile, error) {
	if a.profile != nil {
		return a.profile, nil
	}
	s, err := storage.Open(a.cfg.Store.Backend, a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = s
	a.profile = storage.NewProfile(s)
	return a.profile, nil
}

func (a *app) client() historyAsker {
	if a.newClient != nil {
		return a.newClient(a.cfg, a.log)
	}
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           a.cfg.API.BaseURL,
		Timeout:           a.cfg.RequestTimeout() * 2,
		RequestsPerSecond: a.cfg.API.RequestsPerSecond,
		Burst:             a.cfg.API.Burst,
		Logger:            a.log,
	})
}

// newController wires a session controller from config.
func (a *app) newController() (*session.Controller, error) {
	profile, err := a.openProfile()
	if err != nil {
		return nil, err
	}
	client := a.client()
	return session.New(session.Options{
		Client:         client,
		History:        history.New(client, a.cfg.HistoryTimeout(), a.log),
		Profile:        profile,
		SystemPrompt:   a.cfg.API.SystemPrompt,
		RequestTimeout: a.cfg.RequestTimeout(),
		Reveal:         a.cfg.RevealPacing(),
		Logger:         a.log,
	}), nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.log != nil {
			a.log.Warn("close store", zap.Error(err))
		}
		a.store = nil
		a.profile = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
