package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

func newFormatPhoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format-phone <number>...",
		Short: "Apply the as-you-type phone formatting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				fmt.Fprintln(cmd.OutOrStdout(), leads.FormatPhone(raw))
			}
			return nil
		},
	}
}
