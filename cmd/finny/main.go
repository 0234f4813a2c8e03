// Command finny fetches SEC EDGAR filings and Yahoo Finance market data.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/finny/api"
	"github.com/seenimoa/finny/internal/config"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/internal/providers/yfinance"
	"github.com/seenimoa/finny/internal/service"
	"github.com/seenimoa/finny/pkg/models"
	"github.com/seenimoa/finny/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "finny",
	Short: "SEC filings and market data",
	Long: `finny fetches SEC EDGAR filing lists and filing documents,
summarizes recent filing activity, and retrieves Yahoo Finance quote
snapshots and price history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of text")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(filingsCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newService builds the service from the loaded config.
func newService() (*service.Service, error) {
	return service.New(cfg)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 5*time.Minute)
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode prints err and maps its class to a process exit code.
// Classified errors print their user-facing message.
func exitCode(err error) int {
	var perr *provider.Error
	if !errors.As(err, &perr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	if cfg != nil && cfg.Logging.Verbose() {
		fmt.Fprintf(os.Stderr, "finny: %v\n", err)
	}
	fmt.Fprintln(os.Stderr, perr.Kind.Message())
	switch perr.Kind.Class() {
	case provider.ClassNotFound:
		return 3
	case provider.ClassBadInput:
		return 2
	default:
		return 1
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("finny %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Filings Command ---

var filingsCmd = &cobra.Command{
	Use:   "filings [ticker]",
	Short: "List recent SEC filings of a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if src, _ := cmd.Flags().GetString("source"); src != "" {
			cfg.SEC.FilingsSource = src
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		filings, err := svc.GetFilings(ctx, args[0])
		if err != nil {
			return err
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && limit < len(filings) {
			filings = filings[:limit]
		}
		if wantJSON(cmd) {
			return printJSON(filings)
		}

		fmt.Printf("SEC filings: %s\n\n", utils.NormalizeTicker(args[0]))
		fmt.Printf("  %-10s  %-10s  %s\n", "DATE", "TYPE", "LINK")
		for _, f := range filings {
			fmt.Printf("  %-10s  %-10s  %s\n", f.Date, f.Type, f.Link)
		}
		return nil
	},
}

func init() {
	filingsCmd.Flags().String("source", "", "filings source override (submissions, html, atom)")
	filingsCmd.Flags().Int("limit", 0, "print at most this many filings")
}

// --- Document Command ---

var documentCmd = &cobra.Command{
	Use:   "document [url]",
	Short: "Fetch a filing document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		var content string
		if text, _ := cmd.Flags().GetBool("text"); text {
			content, err = svc.GetFilingText(ctx, args[0])
		} else {
			content, err = svc.GetFilingDocument(ctx, args[0])
		}
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil
	},
}

func init() {
	documentCmd.Flags().Bool("text", false, "extract plain text from the <document> element")
}

// --- Summary Command ---

var summaryCmd = &cobra.Command{
	Use:   "summary [ticker]",
	Short: "Summarize recent SEC filing activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		sum, err := svc.GetFilingSummary(ctx, args[0])
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(sum)
		}
		fmt.Println(sum.String())
		return nil
	},
}

// --- Market Command ---

var marketCmd = &cobra.Command{
	Use:   "market [ticker]",
	Short: "Show the quote snapshot and price history of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		md, err := svc.GetMarketData(ctx, args[0])
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(md)
		}
		printMarketData(md)
		return nil
	},
}

func printMarketData(md *models.MarketData) {
	title := md.Symbol
	if md.Name != "" {
		title = fmt.Sprintf("%s (%s)", md.Name, md.Symbol)
	}
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("═══════════════════════════════════════")
	if md.Currency != "" {
		fmt.Printf("  Currency:  %s\n", md.Currency)
	}
	fmt.Printf("  Timezone:  %s\n\n", md.Timezone)

	fmt.Println("  Quote:")
	for _, name := range quoteNames(md.Quote) {
		fmt.Printf("    %-24s %s\n", name+":", formatMetric(name, md.Quote[name]))
	}

	fmt.Println()
	fmt.Println("  Price history (close):")
	for _, w := range models.Windows {
		closes := md.History[w][models.ComponentClose]
		first, last, ok := seriesEnds(closes)
		if !ok {
			fmt.Printf("    %-4s %s\n", w, models.NotApplicable)
			continue
		}
		change := (last - first) / first * 100
		fmt.Printf("    %-4s %4d points  %.2f → %.2f  %s\n", w, len(closes), first, last, utils.FormatPct(change))
	}
}

// quoteNames lists the snapshot's metrics in quote field order, followed
// by any other names sorted.
func quoteNames(q models.QuoteSnapshot) []string {
	names := make([]string, 0, len(q))
	seen := make(map[string]bool, len(q))
	for _, name := range yfinance.QuoteFieldNames() {
		if _, ok := q[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range q {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// formatMetric renders counts compactly and yields as percentages.
func formatMetric(name string, m models.Metric) string {
	if !m.Available {
		return models.NotApplicable
	}
	switch {
	case name == "Volume" || name == "AverageVolume":
		return utils.FormatThousands(int64(m.Value))
	case name == "MarketCap" || name == "EnterpriseValue" || strings.HasPrefix(name, "Shares") || name == "FloatShares":
		return utils.FormatCompact(m.Value)
	case name == "DividendYield" || name == "ShortPercentOfFloat":
		return utils.FormatPct(m.Value * 100)
	default:
		return fmt.Sprintf("%.2f", m.Value)
	}
}

// seriesEnds returns the earliest and latest values of a series. Keys sort
// chronologically.
func seriesEnds(s models.PriceSeries) (first, last float64, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	first, last = s[keys[0]], s[keys[len(keys)-1]]
	return first, last, first != 0
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		api.Version = version

		addr := cfg.API.Addr()
		fmt.Printf("Starting finny API server on %s\n", addr)
		return api.NewServer(cfg, svc).ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port override")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status [provider]",
	Short: "Show provider health and configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		if len(args) == 1 {
			h, err := svc.ProviderHealth(ctx, args[0])
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(h)
			}
			fmt.Printf("%s: %s\n", h.Name, healthStatus(h))
			return nil
		}

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  finny: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (UTC):    %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Printf("  API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  Providers:")
		health := svc.Health(ctx)
		for _, info := range svc.Providers() {
			status := "unknown"
			for _, h := range health {
				if h.Name == info.Name {
					status = healthStatus(h)
				}
			}
			fmt.Printf("    %-10s %s\n", info.Name+":", status)
		}
		fmt.Println()

		fmt.Println("  Models:")
		for _, line := range coverageLines(svc.Coverage()) {
			fmt.Println("    " + line)
		}
		fmt.Println()

		fmt.Println("  Settings:")
		for _, s := range config.CheckSettings(cfg) {
			fmt.Printf("    %-22s %s [%s]\n", s.Name+":", s.Value, s.Source)
			if s.Warning != "" {
				fmt.Printf("    %-22s warning: %s\n", "", s.Warning)
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func healthStatus(h provider.Health) string {
	if h.OK {
		return fmt.Sprintf("ok (%s)", h.Latency.Round(time.Millisecond))
	}
	return "down: " + h.Error
}

// coverageLines renders one "Model: providers" line per model, sorted by model.
func coverageLines(cov map[provider.ModelType][]string) []string {
	names := make([]string, 0, len(cov))
	for m := range cov {
		names = append(names, string(m))
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, m := range names {
		lines = append(lines, fmt.Sprintf("%-18s %s", m+":", strings.Join(cov[provider.ModelType(m)], ", ")))
	}
	return lines
}
