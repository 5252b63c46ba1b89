package main

import (
	"fmt"

	"github.com/okian/dltscope/internal/cli"
	"github.com/spf13/cobra"
)

func newMenuCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive analysis menu.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Stop()
			return cli.New(svc, cli.WithOutput(cmd.OutOrStdout())).Run(cmd.Context())
		},
	}
}

func newAcquireCmd(rt *state) *cobra.Command {
	var force bool
	acquire := &cobra.Command{
		Use:   "acquire",
		Short: "Acquire a dataset into its CSV cache.",
	}
	acquire.PersistentFlags().BoolVar(&force, "force", false, "ignore the CSV cache and acquire again")

	acquire.AddCommand(
		&cobra.Command{
			Use:   "draws",
			Short: "Acquire draw history from snapshots or the listing.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := rt.service(cmd)
				if err != nil {
					return err
				}
				defer svc.Stop()
				draws, err := svc.AcquireDraws(cmd.Context(), force)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d draws in %s\n", len(draws), rt.cfg.DrawCSV)
				return nil
			},
		},
		&cobra.Command{
			Use:   "experts",
			Short: "Acquire expert profiles with the headless browser.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := rt.service(cmd)
				if err != nil {
					return err
				}
				defer svc.Stop()
				experts, err := svc.AcquireExperts(cmd.Context(), force)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d experts in %s\n", len(experts), rt.cfg.ExpertCSV)
				return nil
			},
		},
	)
	return acquire
}

func newPredictCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Print one prediction with its alternates.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Stop()
			p, err := svc.Predict(cmd.Context())
			if err != nil {
				return err
			}
			cli.PredictionTable(cmd.OutOrStdout(), p)
			return nil
		},
	}
}
