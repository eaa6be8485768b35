package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/airtable"
	"github.com/ternarybob/numerus/internal/browser"
	"github.com/ternarybob/numerus/internal/common"
	"github.com/ternarybob/numerus/internal/extract"
	"github.com/ternarybob/numerus/internal/interfaces"
	"github.com/ternarybob/numerus/internal/pipeline"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths
	platformFlag = flag.String("platform", "", "Platforms to process, comma-separated (default: all from config)")
	scheduleFlag = flag.String("schedule", "", "Cron expression for periodic runs (overrides config)")
	headlessFlag = flag.String("headless", "", "Run browser headless: true or false (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Numerus version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> files -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("numerus.toml"); err == nil {
			configFiles = append(configFiles, "numerus.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	var platforms []string
	if *platformFlag != "" {
		for _, name := range strings.Split(*platformFlag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				platforms = append(platforms, name)
			}
		}
	}
	common.ApplyFlagOverrides(config, platforms, *scheduleFlag, *headlessFlag)

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	profiles, err := loadProfiles(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load platform profiles")
		os.Exit(1)
	}

	logger.Info().
		Strs("config_files", configFiles).
		Strs("platforms", config.Run.Platforms).
		Str("schedule", config.Run.Schedule).
		Msg("Application configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Run.Schedule != "" {
		runScheduled(ctx, config, profiles, logger)
		return
	}

	if failed := runOnce(ctx, config, profiles, logger); failed {
		os.Exit(1)
	}
}

// loadProfiles resolves the built-in platform profiles plus any selector
// overrides, and checks every configured platform exists.
func loadProfiles(config *common.Config, logger arbor.ILogger) (map[string]*extract.Profile, error) {
	overrides, err := extract.LoadOverrides(config.Run.ProfileOverrides)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		logger.Info().
			Str("path", config.Run.ProfileOverrides).
			Int("platforms", len(overrides)).
			Msg("Applying profile selector overrides")
	}

	profiles := overrides.Apply(extract.Profiles())
	for _, name := range config.Run.Platforms {
		if _, ok := profiles[name]; !ok {
			return nil, fmt.Errorf("unknown platform %q (known: %s)",
				name, strings.Join(extract.PlatformNames(), ", "))
		}
	}
	return profiles, nil
}

// runOnce executes one run per configured platform, sequentially. A fatal
// failure on one platform (store read, browser launch) does not stop the
// remaining platforms. Returns true when any platform failed fatally.
func runOnce(ctx context.Context, config *common.Config, profiles map[string]*extract.Profile, logger arbor.ILogger) bool {
	store := airtable.NewClient(config.Airtable, logger)
	factory := pipeline.SessionFactory(func(ctx context.Context) (interfaces.Page, error) {
		return browser.NewSession(ctx, config.Browser, logger)
	})
	runner := pipeline.NewRunner(store, factory, logger)

	failed := false
	for _, name := range config.Run.Platforms {
		result, err := runner.RunPlatform(ctx, profiles[name])
		if err != nil {
			logger.Error().Str("platform", name).Err(err).Msg("Platform run failed")
			failed = true
			continue
		}
		result.Render(os.Stdout)
	}
	return failed
}

// runScheduled repeats runOnce on the configured cron schedule until
// interrupted.
func runScheduled(ctx context.Context, config *common.Config, profiles map[string]*extract.Profile, logger arbor.ILogger) {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(config.Run.Schedule, func() {
		logger.Info().Str("schedule", config.Run.Schedule).Msg("Scheduled run starting")
		runOnce(ctx, config, profiles, logger)
	})
	if err != nil {
		logger.Fatal().Str("schedule", config.Run.Schedule).Err(err).Msg("Invalid cron schedule")
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info().
		Str("schedule", config.Run.Schedule).
		Msg("Scheduler started - Press Ctrl+C to stop")

	<-ctx.Done()

	logger.Info().Msg("Shutting down scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info().Msg("Scheduler stopped")
}
