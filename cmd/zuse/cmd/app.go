// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     cmd
// Description: Wires configuration, logging, interpreter and extension
//              modules for the CLI commands
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/msto63/zuse/internal/interpreter"
	"github.com/msto63/zuse/internal/journal"
	"github.com/msto63/zuse/internal/pipe"
	"github.com/msto63/zuse/internal/script"
	"github.com/msto63/zuse/pkg/core/config"
	"github.com/msto63/zuse/pkg/core/logging"
)

// app holds everything one CLI invocation needs
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	interp  *interpreter.Interpreter
	runner  *script.Runner
	bridge  *pipe.Bridge
	journal *journal.Store

	closeLog func() error
}

// loadConfig reads --config, or falls back to the environment and the
// default locations
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

// newApp builds the interpreter with the modules enabled in the config.
// The script runner and the pipe bridge always exist for the CLI commands
// even when their command modules are not loaded.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.General.LogLevel
	if verbose {
		level = "debug"
	}
	base, closeLog, err := logging.NewLogger(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       level,
		Format:      cfg.General.LogFormat,
		File:        cfg.General.LogFile,
	})
	if err != nil {
		return nil, err
	}
	logging.SetDefault(base)

	a := &app{
		cfg:      cfg,
		logger:   logging.Wrap(base, "zuse"),
		closeLog: closeLog,
	}

	opts, err := interpreter.OptionsFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	opts.Logger = logging.Wrap(base, "interpreter")

	if cfg.Journal.Enabled {
		a.journal, err = journal.Open(journal.Config{Path: cfg.Journal.Path})
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Journal = a.journal
	}

	a.interp, err = interpreter.New(opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.installModules(opts.Logger); err != nil {
		a.Close()
		return nil, err
	}

	a.logger.Debug("Application initialized",
		"transport", a.bridge.Transport(),
		"journal", cfg.Journal.Enabled)
	return a, nil
}

func (a *app) installModules(logger *logging.Logger) error {
	scriptOpts := script.Options{
		Rethrow: a.cfg.Interpreter.Rethrow || runRethrow,
		Logger:  logger,
	}
	pipeOpts := pipe.OptionsFromConfig(a.cfg)
	pipeOpts.Logger = logger

	var err error
	if a.moduleEnabled(script.ModuleName) {
		a.runner, _, err = script.Install(a.interp, scriptOpts)
		if err != nil {
			return err
		}
	} else {
		a.runner = script.NewRunner(a.interp, scriptOpts)
	}

	if a.moduleEnabled(pipe.ModuleName) {
		a.bridge, err = pipe.Install(a.interp, pipeOpts)
	} else {
		a.bridge, err = pipe.NewBridge(a.interp, pipeOpts)
	}
	if err != nil {
		return err
	}

	if a.journal != nil {
		return journal.Install(a.interp, a.journal)
	}
	return nil
}

func (a *app) moduleEnabled(name string) bool {
	for _, m := range a.cfg.Interpreter.Modules {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

// historyFile is where the console keeps its input history
func (a *app) historyFile() string {
	return filepath.Join(a.cfg.General.DataDir, "history.json")
}

// Close releases all resources in reverse order of creation
func (a *app) Close() error {
	var errs []error
	if a.bridge != nil {
		errs = append(errs, a.bridge.Close())
	}
	if a.interp != nil {
		errs = append(errs, a.interp.Close())
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}
	return errors.Join(errs...)
}
