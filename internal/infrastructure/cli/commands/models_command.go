package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/ai"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/helpers"
)

// NewModelsCommand creates the models command with all subcommands
func NewModelsCommand(rt *Runtime) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage AI model configurations",
	}

	modelsCmd.AddCommand(
		newModelsListCommand(rt),
		newModelsTestCommand(rt),
		newModelsUseCommand(rt),
		newModelsAddCommand(rt),
		newModelsRemoveCommand(rt),
	)

	return modelsCmd
}

func newModelsListCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModels(cmd.Context(), cmd.OutOrStdout(), rt)
		},
	}
}

func newModelsTestCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Send a one-line prompt to a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return testModel(cmd.Context(), cmd.OutOrStdout(), rt, args[0])
		},
	}
}

func newModelsUseCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set default model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateModels(cmd, rt, func(cfg *domain.Config) error {
				return cfg.SetDefaultModel(args[0])
			}, fmt.Sprintf("Default model set to %s.", args[0]))
		},
	}
}

func newModelsAddCommand(rt *Runtime) *cobra.Command {
	var model domain.ModelDefinition
	var provider string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new model definition",
		Example: `  kubeask models add --name gpt --endpoint https://api.openai.com/v1/chat/completions \
    --model-id gpt-4o-mini --auth-env OPENAI_API_KEY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model.Name == "" || model.ModelID == "" {
				return fmt.Errorf("--name and --model-id are required")
			}
			model.Provider = domain.ProviderKind(strings.ToLower(provider))
			return updateModels(cmd, rt, func(cfg *domain.Config) error {
				return cfg.AddModel(model)
			}, fmt.Sprintf("Model %s added.", model.Name))
		},
	}

	cmd.Flags().StringVar(&model.Name, "name", "", "Model name (identifier)")
	cmd.Flags().StringVar(&provider, "provider", "", "anthropic, openai, openrouter or ollama (inferred from the endpoint when empty)")
	cmd.Flags().StringVar(&model.Endpoint, "endpoint", "", "Provider endpoint URL (empty for the offline heuristic)")
	cmd.Flags().StringVar(&model.ModelID, "model-id", "", "Model identifier at provider")
	cmd.Flags().StringVar(&model.AuthEnvVar, "auth-env", "", "Environment variable containing API key")
	cmd.Flags().StringVar(&model.OrgEnvVar, "org-env", "", "Environment variable containing org/project ID")
	cmd.Flags().IntVar(&model.MaxTokens, "max-tokens", domain.DefaultMaxTokens, "Max tokens for responses")
	return cmd
}

func newModelsRemoveCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove model definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateModels(cmd, rt, func(cfg *domain.Config) error {
				return cfg.RemoveModel(args[0])
			}, fmt.Sprintf("Model %s removed.", args[0]))
		},
	}
}

func listModels(ctx context.Context, out io.Writer, rt *Runtime) error {
	cfg, err := loaderFor(rt).Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defaultName := ""
	if model, err := cfg.GetDefaultModel(); err == nil {
		defaultName = model.Name
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tMODEL ID\tKEY\tDEFAULT")
	for _, model := range cfg.Models {
		key := "-"
		if env := ai.APIKeyEnv(model); env != "" {
			key = env + " (missing)"
			if ai.APIKeyPresent(model) {
				key = env
			}
		}
		marker := ""
		if model.Name == defaultName {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", model.Name, ai.ProviderKindFor(model), model.ModelID, key, marker)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if fallbacks := cfg.GetFallbackModels(); len(fallbacks) > 0 {
		names := make([]string, 0, len(fallbacks))
		for _, model := range fallbacks {
			names = append(names, model.Name)
		}
		fmt.Fprintf(out, "Fallbacks: %s\n", strings.Join(names, ", "))
	}
	return nil
}

func testModel(ctx context.Context, out io.Writer, rt *Runtime, name string) error {
	container, err := rt.Container(ctx)
	if err != nil {
		return err
	}
	cfg, err := container.Config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	model, exists := cfg.FindModelByName(name)
	if !exists {
		return fmt.Errorf("model %s not found", name)
	}
	if !ai.APIKeyPresent(model) {
		return fmt.Errorf("model %s: %s is not set", name, ai.APIKeyEnv(model))
	}

	provider, err := container.Advisors.ForModel(model)
	if err != nil {
		return fmt.Errorf("failed to create provider for model %s: %w", name, err)
	}

	testCtx, cancel := context.WithTimeout(ctx, domain.DefaultModelTestTimeout)
	defer cancel()

	reply, err := provider.Complete(testCtx, domain.CompletionRequest{
		Purpose:   domain.PurposePing,
		Messages:  []domain.PromptMessage{{Role: "user", Content: "Reply with the single word: ok"}},
		MaxTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("model %s test failed: %w", name, err)
	}

	fmt.Fprintf(out, "Model %s (%s) responded: %s\n", name, provider.Name(), strings.TrimSpace(reply))
	return nil
}

// updateModels applies change to the stored configuration and saves it
// after validation.
func updateModels(cmd *cobra.Command, rt *Runtime, change func(*domain.Config) error, done string) error {
	loader := loaderFor(rt)
	cfg, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := change(&cfg); err != nil {
		return err
	}
	if err := helpers.SaveConfigWithValidation(loader, cfg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}
