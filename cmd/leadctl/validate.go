package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

var errValidationFailed = errors.New("validation failed")

func newValidateCmd() *cobra.Command {
	var flags fieldFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check field values against a variant's rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := profileFor(flags.variant)
			if err != nil {
				return err
			}
			in := flags.input()
			out := cmd.OutOrStdout()
			failed := false
			for _, f := range profile.Fields() {
				if err := profile.CheckField(f, in.Value(f)); err != nil {
					failed = true
					fmt.Fprintf(out, "%-8s %s\n", f, err.Error())
					continue
				}
				fmt.Fprintf(out, "%-8s ok\n", f)
			}
			if failed {
				return errValidationFailed
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func profileFor(raw string) (leads.Profile, error) {
	variant, err := leads.ParseVariant(raw)
	if err != nil {
		return leads.Profile{}, err
	}
	return leads.ProfileFor(variant)
}

func (f *fieldFlags) input() leads.Input {
	return leads.Input{
		Name:     f.name,
		Email:    f.email,
		Phone:    f.phone,
		Category: f.category,
		Area:     f.area,
	}
}

func (f *fieldFlags) value(field leads.Field) string {
	return f.input().Value(field)
}
