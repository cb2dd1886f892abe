package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/helpers"
)

// NewClassifyCommand creates the classify command
func NewClassifyCommand(rt *Runtime) *cobra.Command {
	var (
		session string
		model   string
		noAI    bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "classify <question...>",
		Short: "Show how deep kubeask would investigate a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			result, err := container.ChatService.Classify(cmd.Context(), domain.ChatRequest{
				SessionID:     session,
				Message:       strings.Join(args, " "),
				ModelOverride: model,
			}, !noAI)
			if err != nil {
				return err
			}

			renderer := helpers.NewRenderer(cmd.OutOrStdout())
			if asJSON {
				return renderer.JSON(result)
			}
			renderer.Classification(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Use this session's history as context")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model used for the AI fallback")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "Keyword and context scoring only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the classification as JSON")
	return cmd
}
