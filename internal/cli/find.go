package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoopmetrics/enrich/internal/config"
	"github.com/hoopmetrics/enrich/internal/extract"
	"github.com/hoopmetrics/enrich/internal/fetch"
	"github.com/hoopmetrics/enrich/internal/locate"
	"github.com/hoopmetrics/enrich/internal/ratelimit"
	"github.com/hoopmetrics/enrich/internal/retry"
)

var findHandle string

var findCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Look up one profile without touching the database",
	Example: `  enrich find "Jordan Smith"
  enrich find "Jordan Smith" --handle jsmith_hoops`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findHandle, "handle", "", "known handle to prefer over search ordering")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.MaxRetries
	client := fetch.New(fetch.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Retry:     retryCfg,
		Limiter:   ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})
	defer client.Close()

	locator := locate.New(client, locate.Instagram())

	candidates, err := locator.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("no profile found")
		return nil
	}

	for i, c := range candidates {
		marker := " "
		if i == 0 || (findHandle != "" && c.Handle == locate.NormalizeHandle(findHandle)) {
			marker = "*"
		}
		fmt.Printf("%s %-30s %s\n", marker, c.Handle, c.ProfileURL)
		if summary := extract.ParseProfileSummary(c.Snippet); summary != nil && summary.Followers != nil {
			fmt.Printf("    followers (from snippet): %d\n", *summary.Followers)
		}
	}
	return nil
}
