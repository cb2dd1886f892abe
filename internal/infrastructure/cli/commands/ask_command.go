package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/helpers"
)

type askFlags struct {
	session string
	model   string
	timeout time.Duration
	json    bool
}

// NewAskCommand creates the one-shot ask command
func NewAskCommand(rt *Runtime) *cobra.Command {
	var flags askFlags

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question about the current cluster",
		Example: `  kubeask ask what pods are running in kube-system
  kubeask ask --session ops why is the api deployment not ready`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return askQuestion(cmd, rt, flags, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&flags.session, "session", "s", "", "Continue an existing session (a new one is created when empty)")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Override request timeout")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the full response as JSON")
	return cmd
}

// AskWithDefaults answers args as one question using default ask flags.
// The root command uses it for "kubeask <question>".
func AskWithDefaults(cmd *cobra.Command, rt *Runtime, args []string) error {
	return askQuestion(cmd, rt, askFlags{}, strings.Join(args, " "))
}

func askQuestion(cmd *cobra.Command, rt *Runtime, flags askFlags, question string) error {
	ctx := cmd.Context()
	container, err := rt.Container(ctx)
	if err != nil {
		return err
	}
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	renderer := helpers.NewRenderer(cmd.OutOrStdout())
	spinner := helpers.NewSpinner(cmd.ErrOrStderr(), "investigating...", renderer.Terminal() && !flags.json)
	spinner.Start()
	resp, err := container.ChatService.Ask(ctx, domain.ChatRequest{
		SessionID:     flags.session,
		Message:       question,
		ModelOverride: flags.model,
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	if flags.json {
		return renderer.JSON(resp)
	}
	renderer.Answer(resp)
	return nil
}
