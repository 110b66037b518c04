package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/estimate"
)

func newEstimateCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "estimate [text]",
		Short: "Estimate the token count of a prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case filePath != "":
				data, err := os.ReadFile(filePath)
				if err != nil {
					return err
				}
				text = string(data)
			case len(args) == 1:
				text = args[0]
			default:
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				text = string(data)
			}

			fmt.Println(estimate.Tokens(text))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "read the prompt from a file")
	return cmd
}
