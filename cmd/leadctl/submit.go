package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/visitplus-leads/internal/analytics"
	"github.com/wolfman30/visitplus-leads/internal/form"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

type submitOptions struct {
	fieldFlags
	endpoint string
	pageURL  string
	images   []string
	timeout  time.Duration
}

func newSubmitCmd() *cobra.Command {
	var opts submitOptions
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Fill the form step by step and submit it to an intake endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "http://localhost:8080/api/lead", "intake endpoint URL")
	cmd.Flags().StringVar(&opts.pageURL, "page-url", "", "landing page URL carrying utm_* parameters")
	cmd.Flags().StringArrayVar(&opts.images, "image", nil, "photo to attach (repeatable, photo variant)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}

func runSubmit(cmd *cobra.Command, opts submitOptions) error {
	profile, err := profileFor(opts.variant)
	if err != nil {
		return err
	}

	var page *url.URL
	if opts.pageURL != "" {
		if page, err = url.Parse(opts.pageURL); err != nil {
			return fmt.Errorf("invalid --page-url: %w", err)
		}
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := logging.NewWithWriter(errOut, "info")
	tracker := analytics.NewLogTracker(logger)
	session := analytics.NewSession(tracker)
	session.Start()
	defer session.End(cmd.Context())

	client := form.NewClient(opts.endpoint,
		form.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
		form.WithPageURL(func() *url.URL { return page }),
		form.WithTracker(tracker),
		form.WithNavigator(form.NavigatorFunc(func(path string) {
			fmt.Fprintf(errOut, "-> %s\n", path)
		})),
		form.WithNotifier(form.NotifierFunc(func(msg string) {
			fmt.Fprintln(errOut, msg)
		})),
	)
	machine := form.NewMachine(profile, client)

	for step := 1; step <= profile.StepCount(); step++ {
		for _, f := range profile.StepFields(step) {
			if _, err := machine.Set(f, opts.value(f)); err != nil {
				return err
			}
		}
		if step == profile.StepCount() {
			break
		}
		if err := machine.Next(); err != nil {
			printFieldErrors(cmd, profile, machine)
			return err
		}
	}

	for _, path := range opts.images {
		att, err := readImage(path)
		if err != nil {
			return err
		}
		if err := machine.AddAttachment(att); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	receipt, err := machine.Submit(cmd.Context())
	if err != nil {
		if errors.Is(err, form.ErrInvalid) {
			printFieldErrors(cmd, profile, machine)
		}
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(receipt)
}

func printFieldErrors(cmd *cobra.Command, profile leads.Profile, m *form.Machine) {
	for _, f := range profile.Fields() {
		if msg := m.Error(f); msg != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f, msg)
		}
	}
	if failure := m.Failure(); failure != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failure)
	}
}

func readImage(path string) (leads.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return leads.Attachment{}, err
	}
	return leads.Attachment{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
