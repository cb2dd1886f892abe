package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/helpers"
)

// ErrCommandRejected makes verify exit non-zero without printing twice.
var ErrCommandRejected = errors.New("command rejected")

// NewVerifyCommand creates the verify command
func NewVerifyCommand(rt *Runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify <command...>",
		Short: "Check whether a kubectl command would be allowed to run",
		Example: `  kubeask verify kubectl get pods -n default
  kubeask verify 'kubectl get secrets -o yaml | base64 -d'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			command := strings.Join(args, " ")
			outcome := container.Verifier.Verify(command)
			container.Metrics.ObserveVerification(outcome)

			renderer := helpers.NewRenderer(cmd.OutOrStdout())
			if asJSON {
				if err := renderer.JSON(struct {
					Command string `json:"command"`
					domain.VerificationOutcome
				}{command, outcome}); err != nil {
					return err
				}
			} else {
				renderer.Verification(command, outcome)
			}
			if !outcome.Accepted {
				return ErrCommandRejected
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}

// NewSafeCommandsCommand creates the safe-commands command
func NewSafeCommandsCommand(rt *Runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "safe-commands",
		Short: "Show which kubectl verbs and flags the verifier allows",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			info := container.Verifier.SafeCommandsInfo()
			renderer := helpers.NewRenderer(cmd.OutOrStdout())
			if asJSON {
				return renderer.JSON(info)
			}
			renderer.SafeCommands(info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the policy as JSON")
	return cmd
}
