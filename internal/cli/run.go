package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hoopmetrics/enrich/internal/auth"
	"github.com/hoopmetrics/enrich/internal/browser"
	"github.com/hoopmetrics/enrich/internal/config"
	"github.com/hoopmetrics/enrich/internal/diag"
	"github.com/hoopmetrics/enrich/internal/fetch"
	"github.com/hoopmetrics/enrich/internal/ledger"
	"github.com/hoopmetrics/enrich/internal/locate"
	"github.com/hoopmetrics/enrich/internal/proxy"
	"github.com/hoopmetrics/enrich/internal/ratelimit"
	"github.com/hoopmetrics/enrich/internal/retry"
	"github.com/hoopmetrics/enrich/internal/runner"
	"github.com/hoopmetrics/enrich/internal/store"
)

var runFlags struct {
	mode        string
	limit       int
	startFrom   string
	force       bool
	onlyMissing bool
	noProgress  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich all stale players in the database",
	Example: `  # Refresh everyone whose last successful check is older than a week
  enrich run

  # Re-check everything, ten players at a time, resuming mid-list
  enrich run --force --limit 10 --start-from "Jordan"

  # Use a visible logged-in browser to also collect engagement metrics
  enrich run --mode browser --headless=false`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.mode, "mode", "http", "scrape strategy: http or browser")
	runCmd.Flags().IntVar(&runFlags.limit, "limit", 0, "process at most N players (0 = all)")
	runCmd.Flags().StringVar(&runFlags.startFrom, "start-from", "", "resume at the first name sorting at or after this value")
	runCmd.Flags().BoolVar(&runFlags.force, "force", false, "ignore the freshness window")
	runCmd.Flags().BoolVar(&runFlags.onlyMissing, "only-missing", false, "only players still lacking a metric")
	runCmd.Flags().BoolVar(&runFlags.noProgress, "no-progress", false, "disable the progress bar")
	runCmd.Flags().String("freshness", "", "how long a successful check stays valid (e.g. 168h)")
	runCmd.Flags().Bool("headless", true, "run the browser headless (browser mode)")
	runCmd.Flags().String("ledger", "", "path of the failure ledger CSV")
	runCmd.Flags().String("debug-dir", "", "directory for failure page dumps")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("no database configured: set ENRICH_DATABASE_URL or --database-url")
	}
	log.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	ctx := cmd.Context()

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	lg, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}

	scraper, cleanup, err := buildScraper(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	pacer := ratelimit.NewPacer(cfg.MinDelay, cfg.MaxDelay)
	r := runner.New(st, scraper, lg, pacer, !runFlags.noProgress)

	summary, err := r.Run(ctx, store.SelectOptions{
		Freshness:   cfg.Freshness,
		Force:       runFlags.force,
		OnlyMissing: runFlags.onlyMissing,
		StartFrom:   runFlags.startFrom,
		Limit:       runFlags.limit,
	})
	if summary != nil {
		fmt.Printf("\nProcessed %d, updated %d, failed %d (failures in %s)\n",
			summary.Processed, summary.Updated, summary.Failed, cfg.LedgerPath)
	}
	return err
}

// buildScraper assembles the strategy for the selected mode and returns a
// cleanup function for whatever resources it opened.
func buildScraper(cmd *cobra.Command, cfg *config.Config) (runner.Scraper, func(), error) {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.MaxRetries

	var pool *proxy.Pool
	if len(cfg.Proxies) > 0 {
		pool = proxy.NewPool(cfg.Proxies)
	}

	client := fetch.New(fetch.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Retry:     retryCfg,
		Proxies:   pool,
		Limiter:   ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})
	locator := locate.New(client, locate.Instagram())

	switch runFlags.mode {
	case "http":
		return runner.NewHTTPScraper(locator, client), client.Close, nil

	case "browser":
		creds, err := auth.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load credentials: %w", err)
		}

		session := browser.NewSession(browser.Options{
			Headless:   cfg.BrowserHeadless,
			ProfileDir: cfg.ProfileDir,
			UserAgent:  cfg.UserAgent,
			ChromePath: cfg.ChromePath,
			NavTimeout: cfg.HTTPTimeout + 15*time.Second,
		})

		ctx := cmd.Context()
		if err := session.Launch(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		if err := session.Login(ctx, creds); err != nil {
			session.Close()
			client.Close()
			return nil, nil, fmt.Errorf("authentication failed, aborting run: %w", err)
		}

		scraper := browser.NewScraper(session, creds, diag.New(cfg.DebugDir))
		cleanup := func() {
			session.Close()
			client.Close()
		}
		return runner.NewBrowserScraper(locator, scraper), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown mode %q (want http or browser)", runFlags.mode)
	}
}
