package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	configapp "github.com/doeshing/kubeask/internal/application/config"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/kubeask/internal/infrastructure/config"
	"github.com/doeshing/kubeask/internal/infrastructure/security"
)

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(rt *Runtime) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect kubeask configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, rt)
		},
	}

	configCmd.AddCommand(
		newConfigPathCommand(rt),
		newConfigShowCommand(rt),
		newConfigGetCommand(rt),
		newConfigSetCommand(rt),
		newConfigEditCommand(rt),
		newConfigValidateCommand(rt),
		newConfigInitCommand(rt),
		newConfigDiffCommand(rt),
	)

	return configCmd
}

func loaderFor(rt *Runtime) *configinfra.FileLoader {
	return configinfra.NewFileLoader(rt.Options.ConfigPath)
}

func newConfigPathCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), loaderFor(rt).Path())
			return nil
		},
	}
}

func newConfigShowCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show full configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, rt)
		},
	}
}

func newConfigGetCommand(rt *Runtime) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a specific configuration value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return errors.New(ErrKeyRequired)
			}
			return getConfigurationValue(cmd, rt, key)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Key path (e.g., execution.max_parallel)")
	return cmd
}

func newConfigSetCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (value accepts YAML syntax)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigurationValue(cmd, rt, args[0], strings.Join(args[1:], " "))
		},
	}
}

func newConfigEditCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			editor := os.Getenv(envKeyEditor)
			if editor == "" {
				editor = DefaultEditorCommand
			}
			edit := exec.Command(editor, loaderFor(rt).Path())
			edit.Stdin = cmd.InOrStdin()
			edit.Stdout = cmd.OutOrStdout()
			edit.Stderr = cmd.ErrOrStderr()
			if err := edit.Run(); err != nil {
				return fmt.Errorf("failed to run editor %s: %w", editor, err)
			}
			return nil
		},
	}
}

func newConfigValidateCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loaderFor(rt).Load(cmd.Context())
			if err == nil {
				err = configapp.Validate(cfg)
			}
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
			return nil
		},
	}
}

func newConfigInitCommand(rt *Runtime) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write ~/.kubeask/config.yaml with the built-in defaults.

After initialization:
  1. Pick a default model (preferences.default_model)
  2. Export its API key (e.g. OPENROUTER_API_KEY, ANTHROPIC_API_KEY)
  3. Run 'kubeask doctor' to verify your setup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := loaderFor(rt)
			if _, err := os.Stat(loader.Path()); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", loader.Path())
			}
			if _, err := os.Stat(loader.Path()); err == nil {
				backup, err := loader.Backup()
				if err != nil {
					return fmt.Errorf("failed to create configuration backup: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Previous configuration saved to %s\n", backup)
			}
			cfg, err := loader.Reset()
			if err != nil {
				return fmt.Errorf("failed to write configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", loader.Path())

			written, err := security.WriteDefaultRules(cfg.Security.RulesFile)
			if err != nil {
				return err
			}
			if written {
				fmt.Fprintf(cmd.OutOrStdout(), "Verifier rules written to %s\n", cfg.Security.RulesFile)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return cmd
}

func newConfigDiffCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show diff versus default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := loaderFor(rt).Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load current configuration: %w", err)
			}
			diff := cmp.Diff(configinfra.DefaultConfig(), current)
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoDifferencesFromDefault)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), diff)
			return nil
		},
	}
}

func showConfiguration(cmd *cobra.Command, rt *Runtime) error {
	cfg, err := loaderFor(rt).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return writeYAML(cmd.OutOrStdout(), cfg)
}

func getConfigurationValue(cmd *cobra.Command, rt *Runtime, keyPath string) error {
	cfg, err := loaderFor(rt).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	tree, err := helpers.ConfigToMap(cfg)
	if err != nil {
		return err
	}
	value, found := helpers.TraverseNestedMap(tree, strings.Split(keyPath, "."))
	if !found {
		return fmt.Errorf("key %s not found in configuration", keyPath)
	}
	return writeYAML(cmd.OutOrStdout(), value)
}

func setConfigurationValue(cmd *cobra.Command, rt *Runtime, keyPath, value string) error {
	loader := loaderFor(rt)
	cfg, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	tree, err := helpers.ConfigToMap(cfg)
	if err != nil {
		return err
	}
	if !helpers.SetNestedMapValue(tree, strings.Split(keyPath, "."), helpers.ParseYAMLValue(value)) {
		return fmt.Errorf("unable to set key %s", keyPath)
	}
	updated, err := helpers.MapToConfig(tree)
	if err != nil {
		return err
	}
	return helpers.SaveConfigWithValidation(loader, updated)
}

func writeYAML(out io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}
