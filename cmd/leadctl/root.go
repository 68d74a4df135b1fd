package main

import (
	"github.com/spf13/cobra"
)

type fieldFlags struct {
	variant  string
	name     string
	email    string
	phone    string
	category string
	area     string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.variant, "variant", "inquiry", "form variant: inquiry, photo or database")
	cmd.Flags().StringVar(&f.name, "name", "", "customer name")
	cmd.Flags().StringVar(&f.email, "email", "", "customer email")
	cmd.Flags().StringVar(&f.phone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&f.category, "category", "", "brand category (photo variant)")
	cmd.Flags().StringVar(&f.area, "area", "", "service area (photo variant)")
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Validate, format and submit VisitPlus leads",
		SilenceUsage:  true,
	}
	root.AddCommand(newSubmitCmd(), newValidateCmd(), newFormatPhoneCmd())
	return root
}
