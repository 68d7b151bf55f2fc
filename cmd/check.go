package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mxl/types-publisher/internal/auditlog"
	"github.com/mxl/types-publisher/internal/check"
	"github.com/mxl/types-publisher/internal/gitctx"
	"github.com/mxl/types-publisher/internal/packages"
	"github.com/mxl/types-publisher/internal/settings"
	"github.com/mxl/types-publisher/pkg/exitcode"
	"github.com/mxl/types-publisher/pkg/logger"
	"github.com/mxl/types-publisher/pkg/registry"
)

// conflictsFile is the persisted audit artifact under the logs directory.
const conflictsFile = "conflicts.md"

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the package registry",
	Long: `Check runs the full audit: duplicate library and project names, the
path-mapping consistency invariant over the dependency graph, and, unless
--offline is given, a registry lookup per typed package to flag those whose
upstream now ships its own type declarations.

Findings accumulate in <logs>/conflicts.md, written once at the end of a
successful run, even when empty.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("offline", false, "Skip all registry lookups; graph audits only")
	checkCmd.Flags().String("data", settings.DefaultDataDir, "Directory holding the definitions file")
	checkCmd.Flags().String("logs", settings.DefaultLogsDir, "Directory the conflicts log is written to")
	checkCmd.Flags().String("registry", registry.DefaultRegistryURL, "npm registry base URL")
	checkCmd.Flags().Int("concurrency", settings.DefaultConcurrency, "Maximum in-flight registry lookups")
	checkCmd.Flags().StringArray("filter", nil, "Only check packages matching this glob (repeatable)")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	offline, _ := cmd.Flags().GetBool("offline")
	filters, _ := cmd.Flags().GetStringArray("filter")

	cfg, err := settings.Load(configFile, cmd.Flags())
	if err != nil {
		logger.Error("Configuration invalid", logger.Err(err))
		os.Exit(exitcode.ConfigError)
	}

	all, err := packages.Read(cfg.DataDir)
	if err != nil {
		logger.Error("Loading package definitions failed", logger.Err(err))
		os.Exit(loadExitCode(err))
	}
	logger.Info("Definitions loaded",
		logger.String("dataDir", cfg.DataDir),
		logger.Int("typed", len(all.AllTypings())),
		logger.Int("notNeeded", len(all.NotNeeded())))

	if repo := gitctx.Collect(cfg.DataDir); repo != nil {
		logger.Info("Definitions repository", logger.String("state", repo.Describe()))
	}

	log := auditlog.New()
	summary, err := check.Run(cmd.Context(), check.Options{
		Data:        all,
		Oracle:      registry.NewNPMClient(cfg.Registry),
		Offline:     offline,
		Concurrency: cfg.Concurrency,
		Filters:     filters,
		Log:         log,
	})
	if err != nil {
		logger.Error("Audit failed", logger.Err(err))
		os.Exit(runExitCode(err))
	}

	path, err := auditlog.Write(cfg.LogsDir, conflictsFile, log.Lines())
	if err != nil {
		logger.Error("Writing the conflicts log failed", logger.Err(err))
		os.Exit(exitcode.FileSystemError)
	}
	logger.Info("Conflicts log written", logger.String("path", path), logger.Int("lines", log.Len()))

	cmd.Print(check.FormatSummary(summary))
	return nil
}

// loadExitCode maps a definitions-load failure onto the exit taxonomy:
// authoring errors are validation failures, a missing file is a filesystem
// failure, anything else is configuration.
func loadExitCode(err error) int {
	switch {
	case errors.Is(err, packages.ErrInvalidData):
		return exitcode.ValidationError
	case errors.Is(err, fs.ErrNotExist):
		return exitcode.FileSystemError
	default:
		return exitcode.ConfigError
	}
}

// runExitCode maps an audit failure: path-mapping violations are authoring
// errors; everything else surfaced from the run is a registry failure.
func runExitCode(err error) int {
	if errors.Is(err, packages.ErrInvalidData) {
		return exitcode.ValidationError
	}
	return exitcode.NetworkError
}
