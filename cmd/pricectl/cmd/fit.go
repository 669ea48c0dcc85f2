package cmd

import (
	"PriceWise/internal/domain/models"
	"PriceWise/internal/services/pricing"

	"github.com/spf13/cobra"
)

type fitOutput struct {
	Curve       *models.DemandCurve `json:"curve,omitempty"`
	Error       string              `json:"error,omitempty"`
	Competitors int                 `json:"competitors"`
}

func newFitCmd(root *rootOptions) *cobra.Command {
	var competitors string
	c := &cobra.Command{
		Use:   "fit",
		Short: "Fit a demand curve to competitor listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			obs, err := loadCompetitors(competitors)
			if err != nil {
				return err
			}

			out := fitOutput{Competitors: len(obs)}
			curve, err := pricing.NewEngine(pricing.WithLogger(root.logger())).FitDemandCurve(obs)
			if err != nil {
				// an unfittable market is a result, not a CLI failure
				out.Error = err.Error()
			} else {
				out.Curve = &curve
			}
			return root.print(cmd, out)
		},
	}
	c.Flags().StringVar(&competitors, "competitors", "", "JSON file of competitor listings")
	_ = c.MarkFlagRequired("competitors")
	return c
}
