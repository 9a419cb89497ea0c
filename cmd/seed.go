package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/appraise/internal/seed"
	"github.com/okian/appraise/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed [fixture.yaml]",
	Short: "Load criteria and employees into the configured store",
	Long:  "Load a YAML fixture of criteria and employees into the configured store. Without a file the built-in fixture is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	var fx seed.Fixture
	if len(args) == 1 {
		fx, err = seed.LoadFile(args[0])
	} else {
		fx, err = seed.Default()
	}
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, logger.Get())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	res, err := seed.Apply(ctx, st, fx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d criteria and %d employees into %s store\n",
		res.Criteria, res.Employees, cfg.StoreDriver)
	return nil
}
