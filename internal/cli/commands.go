// Package cli is the cobra command surface for the desk.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/models"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "alphadesk",
		Short: "alphadesk - multi-agent deliberation and settlement desk",
		Long: `alphadesk runs a daily investment-decision workflow: specialist analysts
produce signals concurrently, a desk manager consolidates them through a
bounded negotiation, and a portfolio ledger settles the decisions across a
trading calendar.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				if err := cfg.LoadFile(path); err != nil {
					return err
				}
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return cfg.EnsureDirectories()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cfg)
		},
	}

	rootCmd.AddCommand(newRunCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(cfg))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")

	return rootCmd
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a deliberation session over a date range",
		Long: `Run the full daily workflow for each trading day in [start, end].
Example: alphadesk run --tickers=AAPL,MSFT --start=2024-03-01 --end=2024-03-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawTickers, _ := cmd.Flags().GetString("tickers")
			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")
			mode, _ := cmd.Flags().GetString("mode")
			serve, _ := cmd.Flags().GetBool("serve")
			sessionID, _ := cmd.Flags().GetString("session")

			tickers, err := parseTickers(rawTickers)
			if err != nil {
				return err
			}
			start, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				return fmt.Errorf("invalid start date %q, use YYYY-MM-DD", startStr)
			}
			end, err := time.Parse("2006-01-02", endStr)
			if err != nil {
				return fmt.Errorf("invalid end date %q, use YYYY-MM-DD", endStr)
			}
			if mode != "" {
				cfg.Mode = mode
			}

			return runSession(cfg, runOptions{
				SessionID: sessionID,
				Tickers:   tickers,
				Start:     start,
				End:       end,
				Serve:     serve,
			})
		},
	}

	cmd.Flags().String("tickers", "", "Comma-separated ticker symbols (e.g. AAPL,MSFT)")
	cmd.Flags().String("start", "", "First session date in YYYY-MM-DD format")
	cmd.Flags().String("end", "", "Last session date in YYYY-MM-DD format")
	cmd.Flags().String("mode", "", "Decision mode: direction or portfolio")
	cmd.Flags().String("session", "", "Session identifier (generated if omitted)")
	cmd.Flags().Bool("serve", false, "Serve the live feed while the session runs")
	cmd.MarkFlagRequired("tickers")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("alphadesk v1.0.0")
			fmt.Println("Multi-agent deliberation and settlement desk")
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("configuration OK")
			return nil
		},
	})

	return configCmd
}

func showConfig(cfg *config.Config) {
	fmt.Printf("llm provider:     %s (%s)\n", cfg.LLMProvider, cfg.Model)
	fmt.Printf("market provider:  %s\n", cfg.MarketProvider)
	fmt.Printf("mode:             %s\n", cfg.Mode)
	fmt.Printf("max cycles:       %d\n", cfg.MaxCycles)
	fmt.Printf("worker pool:      %d\n", cfg.WorkerPoolSize)
	fmt.Printf("lookback days:    %d\n", cfg.LookbackDays)
	fmt.Printf("initial cash:     %.2f\n", cfg.InitialCash)
	fmt.Printf("results dir:      %s\n", cfg.ResultsDir)
	fmt.Printf("feed addr:        %s\n", cfg.FeedAddr)
}

func parseTickers(raw string) ([]models.TickerID, error) {
	parts := strings.Split(raw, ",")
	out := make([]models.TickerID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p == "" {
			continue
		}
		out = append(out, models.TickerID(p))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no tickers given")
	}
	return out, nil
}
