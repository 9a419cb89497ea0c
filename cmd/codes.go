package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/seed"
	"github.com/okian/appraise/pkg/logger"
)

var codesFromFixture bool

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Print the active criteria in canonical order with their codes",
	Args:  cobra.NoArgs,
	RunE:  runCodes,
}

func init() {
	codesCmd.Flags().BoolVar(&codesFromFixture, "fixture", false, "list the built-in fixture instead of the configured store")
	rootCmd.AddCommand(codesCmd)
}

func runCodes(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	var active []criteria.Criterion
	if codesFromFixture {
		fx, err := seed.Default()
		if err != nil {
			return err
		}
		active = fx.Criteria
	} else {
		st, err := openStore(ctx, cfg, logger.Get())
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		if active, err = st.Criteria().FetchAll(ctx); err != nil {
			return err
		}
	}

	idx := criteria.NewOrderIndex(cfg.CanonicalOrder)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tWEIGHT\tSCALE")
	for _, c := range idx.Assign(active) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\n", c.Code, c.Name, c.Type, c.Weight, c.Scale)
	}
	return tw.Flush()
}
