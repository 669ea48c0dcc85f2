// Package cmd provides the pricectl commands. They run the pricing engine offline on a file of
// competitor listings and print JSON.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"PriceWise/internal/domain/models"
	applogger "PriceWise/pkg/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	compact bool
}

// NewRootCmd builds the command tree writing results to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "pricectl",
		Short: "Offline demand-curve pricing",
		Long: `pricectl fits a demand curve to competitor listings and recommends the
profit-maximizing price, without contacting any marketplace.

Examples:
  pricectl analyze --unit-cost 12 --variable-costs 3 --competitors listings.json
  pricectl fit --competitors listings.json`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine decisions to stderr")
	root.PersistentFlags().BoolVar(&opts.compact, "compact", false, "print single-line JSON")

	root.AddCommand(newAnalyzeCmd(opts), newFitCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd(os.Stdout).Execute()
}

func (o *rootOptions) logger() *applogger.Logger {
	if !o.verbose {
		return applogger.NewNop()
	}
	l, err := applogger.New(&applogger.Config{Level: "debug", Format: "console", Output: "stderr"})
	if err != nil {
		return applogger.NewNop()
	}
	return l
}

func (o *rootOptions) print(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if !o.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// loadCompetitors reads either a JSON array of listings or an object with a
// "competitors" array, the shape POST /api/v1/competitors returns.
func loadCompetitors(path string) ([]models.CompetitorObservation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read competitors: %w", err)
	}

	var list []models.CompetitorObservation
	if err := json.Unmarshal(b, &list); err == nil {
		return list, nil
	}

	var wrapped models.CompetitorsResponse
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, fmt.Errorf("parse competitors %s: %w", path, err)
	}
	if wrapped.Competitors == nil {
		return nil, fmt.Errorf("parse competitors %s: no competitors array", path)
	}
	return wrapped.Competitors, nil
}
