package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/conteo/landing/internal/validation"
	"github.com/conteo/landing/internal/wizard"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

type rootOptions struct {
	baseURL string
	timeout time.Duration
}

func (o *rootOptions) client() *wizard.HTTPClient {
	return wizard.NewHTTPClient(o.baseURL, o.timeout)
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	baseURL := os.Getenv("BETA_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	root := &cobra.Command{
		Use:   "betactl",
		Short: "Exercise the Contéo beta landing API",
		Long: `betactl calls the public beta endpoints the way the landing page does.

Available subcommands:
  signup   - Register an email for the beta
  count    - Show the number of registered testers
  feedback - Verify an email then send a feedback message`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", baseURL, "landing API base URL (env BETA_API_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "per-command timeout")

	root.AddCommand(
		newSignupCmd(opts),
		newCountCmd(opts),
		newFeedbackCmd(opts),
	)
	return root
}

func newSignupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup <email>",
		Short: "Register an email for the beta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			id, err := opts.client().Signup(ctx, args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (contact %s)\n", args[0], id)
			return nil
		},
	}
}

func newCountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of registered testers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			n, err := opts.client().Count(ctx)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newFeedbackCmd(opts *rootOptions) *cobra.Command {
	var email, kind, message string

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Verify an email then send a feedback message",
		Long: `Runs the two-step feedback wizard: the email is verified first, then
the message is sent from it. Every state change is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			runner := wizard.NewRunner(opts.client(), func(from, to wizard.Machine, ev wizard.Event) {
				fmt.Fprintf(out, "%s --%s--> %s\n", from.State, wizard.EventName(ev), to.State)
			})

			m, err := runner.SubmitEmail(ctx, email)
			if err != nil {
				return err
			}
			switch m.State {
			case wizard.StateNotVerified:
				return fmt.Errorf("%s is not registered for the beta", email)
			case wizard.StateErrorVerify:
				return errors.New(m.ErrorMessage)
			}

			m, warning, err := runner.SubmitFeedback(ctx, kind, message)
			if err != nil {
				return err
			}
			if m.State == wizard.StateErrorFeedback {
				return errors.New(m.ErrorMessage)
			}
			if warning != "" {
				fmt.Fprintln(out, "warning:", warning)
			}
			fmt.Fprintln(out, "feedback sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "registered beta email (required)")
	cmd.Flags().StringVar(&kind, "type", string(validation.FeedbackBug), "feedback type: bug, feature or other")
	cmd.Flags().StringVar(&message, "message", "", "feedback message, 10 to 1000 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

// describe turns an API error into the message the page would show.
func describe(err error) error {
	return fmt.Errorf("%s: %w", wizard.ErrorMessage(err), err)
}
