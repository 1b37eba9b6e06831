// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// confd is the daemon that owns a running configuration datastore and
// dispatches session requests against it (spec section 2). It is
// generalized from the teacher's cmd/configd/main.go: the flag package
// gives way to github.com/spf13/cobra, but the shape survives — load
// YANG, build the schema-bound datastores, write a pidfile, and block
// until told to stop. Wire framing for a client<->engine socket is out
// of scope (spec.md section 1), so confd exposes its running state only
// through the monitoring subtree and a Prometheus /metrics endpoint.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vyatta-confd/engine/commit"
	"github.com/vyatta-confd/engine/config"
	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/mount"
	"github.com/vyatta-confd/engine/monitor"
	"github.com/vyatta-confd/engine/session"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		yangdir     string
		configFile  string
		pidfile     string
		logfile     string
		metricsBind string
	)

	cmd := &cobra.Command{
		Use:   "confd",
		Short: "confd manages run-time configuration based on YANG definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(yangdir, configFile, pidfile, logfile, metricsBind)
		},
	}

	cmd.Flags().StringVar(&yangdir, "yangdir", "/usr/share/confd/yang",
		"Load YANG modules from the specified directory.")
	cmd.Flags().StringVar(&configFile, "config-file", "",
		"Path to confd's own option file (spec section 6 configuration options).")
	cmd.Flags().StringVar(&pidfile, "pidfile", "/run/confd/confd.pid",
		"Write pid to supplied file.")
	cmd.Flags().StringVar(&logfile, "logfile", "",
		"Redirect structured logs to the supplied file instead of stderr.")
	cmd.Flags().StringVar(&metricsBind, "metrics-addr", ":9191",
		"Address the Prometheus /metrics endpoint listens on.")

	return cmd
}

func run(yangdir, configFile, pidfile, logfile, metricsBind string) error {
	log, closeLog, err := newLogger(logfile)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("confd: loading configuration: %w", err)
	}

	models := yangmodel.NewModelSet()
	files, err := filepath.Glob(filepath.Join(yangdir, "*.yang"))
	if err != nil {
		return fmt.Errorf("confd: scanning %s: %w", yangdir, err)
	}
	for _, f := range files {
		if err := models.AddFile(f); err != nil {
			return err
		}
	}
	if err := models.Load(); err != nil {
		return fmt.Errorf("confd: loading schema: %w", err)
	}
	log.Info().Int("modules", len(models.ModuleInfos())).Str("dir", yangdir).Msg("loaded yang schema")

	// No mount points are declared without an application collaborator to
	// ask (spec section 1's "we assume a module loader exists" extends to
	// mount-point yang-library resolution); confd runs with the global
	// schema only until one is wired in.
	resolver := mount.NewResolver(models, noMounts, nil)

	format := datastore.FormatXML
	if cfg.XMLDBFormat == config.FormatJSON {
		format = datastore.FormatJSON
	}

	datastores := make(map[string]*datastore.Datastore, len(cfg.DatastorePaths))
	for name, path := range cfg.DatastorePaths {
		datastores[name] = datastore.New(name, path, models, resolver, format,
			log.With().Str("datastore", name).Logger())
	}
	running, ok := datastores["running"]
	if !ok {
		return fmt.Errorf("confd: configuration names no %q datastore", "running")
	}

	engine := commit.NewEngine(models, resolver, log.With().Str("component", "commit").Logger())

	confirmedCommit := commit.NewConfirmedCommit(engine, running, log.With().Str("component", "confirmed-commit").Logger())
	engine.Register(confirmedCommit)

	reg := &monitor.Registry{Models: models, Start: time.Now()}
	for _, ds := range datastores {
		reg.Datastores = append(reg.Datastores, ds)
	}

	mgr := session.NewManager(running, engine, models, resolver,
		log.With().Str("component", "session").Logger())
	mgr.AddOption(session.WithStateDataProvider(&monitor.Provider{Reg: reg, Stats: mgr.Stats()}))
	mgr.AddOption(session.WithConfirmedCommit(confirmedCommit))

	if err := writePidfile(pidfile); err != nil {
		log.Warn().Err(err).Str("pidfile", pidfile).Msg("could not write pidfile")
	}

	srv := &http.Server{Addr: metricsBind, Handler: promhttp.Handler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", metricsBind).Msg("serving /metrics")

	waitForShutdown(log)

	for _, id := range mgr.Sessions() {
		_ = mgr.Destroy(id)
	}
	return nil
}

// noMounts is the fallback mount.Callback for a daemon started with no
// application collaborator to resolve mount-point yang-library data
// (spec section 1): every mount-point candidate is declined, so the
// bind pass leaves it under the global schema.
func noMounts(node *tree.Node, canonicalPath string) (*mount.Lib, bool, error) {
	return nil, false, nil
}

func writePidfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}

// newLogger builds the daemon's zerolog.Logger, writing to logfile when
// given (teacher's -logfile stdout/stderr redirection) or stderr
// otherwise, in the pack's console-writer style
// (cuemby-warren's pkg/log.Init).
func newLogger(logfile string) (zerolog.Logger, func(), error) {
	if logfile == "" {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
		return log, func() {}, nil
	}
	f, err := os.OpenFile(logfile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("confd: opening logfile %s: %w", logfile, err)
	}
	log := zerolog.New(f).With().Timestamp().Logger()
	return log, func() { f.Close() }, nil
}

// waitForShutdown blocks until SIGINT or SIGTERM (spec's front-end
// process supervision is out of scope, but the daemon still needs a
// clean stopping point to release session locks before exiting).
func waitForShutdown(log zerolog.Logger) {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigch
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}
