package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List configured models and their quotas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if len(cfg.Models) == 0 {
				fmt.Println("No models configured.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tPROVIDER\tRPM\tTPM\tRPD\tTPD")
			for _, m := range cfg.Models {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					m.ID, m.Provider,
					quota(m.RPM), quota(m.TPM), quota(m.RPD), quota(m.TPD))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	return cmd
}

func quota(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
