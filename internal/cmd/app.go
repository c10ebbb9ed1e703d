package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/karol/relayfix/internal/backup"
	"github.com/karol/relayfix/internal/config"
	"github.com/karol/relayfix/internal/detect"
	"github.com/karol/relayfix/internal/journal"
	"github.com/karol/relayfix/internal/locate"
	"github.com/karol/relayfix/internal/logger"
	"github.com/karol/relayfix/internal/orchestrator"
	"github.com/karol/relayfix/internal/patch"
	"github.com/karol/relayfix/internal/service"
	"github.com/karol/relayfix/internal/shell"
)

// app holds the per-invocation object graph. Everything is constructed fresh
// for each command; there is no shared mutable state between runs.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	orch  *orchestrator.Orchestrator
	journ *journal.Journal
}

// newApp builds the collaborators from config and flags.
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log := logger.New(os.Stderr, level)

	runner := shell.NewRunner()
	locator := locate.NewLocator(runner)
	locator.Override = cfg.InstallPath

	store := backup.NewStore(cfg.BackupDir)

	var journ *journal.Journal
	if cfg.JournalPath != "" {
		if journ, err = journal.Open(cfg.JournalPath); err != nil {
			log.Warn("run history unavailable: %v", err)
			journ = nil
		}
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		journ: journ,
		orch: &orchestrator.Orchestrator{
			Detector:  detect.NewDetector(locator),
			Backups:   store,
			Engine:    patch.NewEngine(store, log),
			Service:   service.NewSystemd(cfg.ServiceName, runner),
			Journal:   journ,
			Log:       log,
			LockPath:  cfg.LockPath(),
			PruneDays: cfg.KeepBackupDays,
		},
	}
	return a, nil
}

func (a *app) close() {
	if a.journ != nil {
		a.journ.Close()
	}
}
