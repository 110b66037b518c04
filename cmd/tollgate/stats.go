package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/journal"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		model      string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded call usage and cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			j, err := journal.New(cfg.JournalDB)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := context.Background()

			if recent > 0 {
				recs, err := j.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Println("No calls recorded.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tMODEL\tPROVIDER\tINPUT\tOUTPUT\tTOTAL\tCOST")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t$%.4f\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Model, r.Provider,
						r.InputTokens, r.OutputTokens, r.TotalTokens, r.CostUSD)
				}
				return w.Flush()
			}

			summaries, err := j.Summary(ctx, model)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tPROVIDER\tCALLS\tINPUT\tOUTPUT\tTOTAL\tCOST")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t$%.4f\n",
					s.Model, s.Provider, s.Calls, s.TotalInput, s.TotalOutput, s.TotalTokens, s.CostUSD)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	cmd.Flags().StringVar(&model, "model", "", "filter by model id")
	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent calls instead of the summary")
	return cmd
}
