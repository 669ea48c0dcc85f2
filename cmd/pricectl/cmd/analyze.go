package cmd

import (
	"fmt"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/services/pricing"
	xhttp "PriceWise/pkg/http"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	product     models.ProductCostInput
	competitors string
	scenarios   int
}

type analyzeOutput struct {
	Analysis       models.PricingAnalysis `json:"analysis"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	o := &analyzeOptions{}
	c := &cobra.Command{
		Use:   "analyze",
		Short: "Recommend a price for a product",
		Long: `Run the full pricing analysis: outlier removal, sales imputation, weighted
demand-curve fit and a profit scan of candidate prices. Falls back to cost-plus
pricing when the market data cannot support a curve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, root, o)
		},
	}

	f := c.Flags()
	f.Float64Var(&o.product.UnitCost, "unit-cost", 0, "cost to make one unit")
	f.Float64Var(&o.product.VariableCosts, "variable-costs", 0, "per-unit fees, shipping and packaging")
	f.StringVar(&o.competitors, "competitors", "", "JSON file of competitor listings")
	f.IntVar(&o.scenarios, "scenarios", pricing.DefaultScenarioCount, "candidate prices evaluated on the curve")
	f.StringVar(&o.product.Name, "name", "product", "product name")
	f.StringVar(&o.product.Keyword, "keyword", "offline", "market keyword")
	f.StringVar(&o.product.Category, "category", "offline", "market category")
	_ = c.MarkFlagRequired("unit-cost")
	_ = c.MarkFlagRequired("competitors")
	return c
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, o *analyzeOptions) error {
	if o.scenarios < 2 {
		return fmt.Errorf("--scenarios must be at least 2")
	}
	if verrs := xhttp.ValidateStruct(cmd.Context(), &o.product); len(verrs) > 0 {
		return fmt.Errorf("invalid product: %s", verrs[0].Message)
	}

	obs, err := loadCompetitors(o.competitors)
	if err != nil {
		return err
	}

	engine := pricing.NewEngine(pricing.WithScenarioCount(o.scenarios), pricing.WithLogger(root.logger()))
	res := engine.Evaluate(o.product, obs)
	return root.print(cmd, analyzeOutput{Analysis: res.Analysis, FallbackReason: string(res.Fallback)})
}
