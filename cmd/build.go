package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rpmsynth/auditdb"
	"rpmsynth/dispatch"
	"rpmsynth/linearize"
	"rpmsynth/log"
	"rpmsynth/resolve"
	"rpmsynth/scheduler"
	"rpmsynth/specprovider"
)

var buildCmd = &cobra.Command{
	Use:   "build [targets...]",
	Short: "Resolve, linearize, and dispatch a build order for the given base packages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := log.NewFileLogger(cfg)
	if err != nil {
		return fmt.Errorf("open logger: %w", err)
	}
	defer logger.Close()

	audit, err := auditdb.Open(cfg.AuditDBPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer audit.Close()

	provider, err := specprovider.LoadFixtureDir(cfg.SpecsPath)
	if err != nil {
		return fmt.Errorf("load package metadata from %s: %w", cfg.SpecsPath, err)
	}

	logger.Info("resolving dependencies for %v", args)
	result, err := resolve.Resolve(args, provider, cfg.CheckBuildRequires)
	if err != nil {
		var circular *resolve.CircularDependencyError
		if errors.As(err, &circular) {
			logger.Error("build-time circular dependency: %v", circular)
		}
		return fmt.Errorf("resolve dependencies: %w", err)
	}

	order := linearize.Linearize(result)
	logger.Info("global build order has %d packages", len(order))

	state := scheduler.New(order, result.BuildDep)
	if state.IsDoneAll() {
		logger.Info("nothing to build")
		fmt.Println("nothing to build")
		return nil
	}

	constants := dispatch.Constants{
		"specs_path":             cfg.SpecsPath,
		"source_path":            cfg.SourcePath,
		"rpm_path":               cfg.RpmPath,
		"source_rpm_path":        cfg.SourceRpmPath,
		"build_arch":             cfg.BuildArch,
		"dist":                   cfg.Dist,
		"build_number":           cfg.BuildNumber,
		"release_version":        cfg.ReleaseVersion,
		"check_build_requires":   cfg.CheckBuildRequires,
		"rpmcheck_stop_on_error": cfg.RpmCheckStopOnError,
	}

	server := dispatch.New(cfg.CoordinatorAddr, state, result.PkgToCycle, constants, audit, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("received interrupt, shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	logger.Info("coordinator listening on %s", cfg.CoordinatorAddr)
	fmt.Printf("coordinator listening on %s (%d packages to build)\n", cfg.CoordinatorAddr, len(order))

	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("dispatch server: %w", err)
	}

	failed := state.FailedList()
	fmt.Printf("\nBuild finished: %d done, %d failed\n", len(state.DoneList()), len(failed))
	if len(failed) > 0 {
		fmt.Printf("Failed packages: %v\n", failed)
		os.Exit(1)
	}
	return nil
}
