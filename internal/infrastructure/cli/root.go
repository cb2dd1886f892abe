package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/kubeask/internal/infrastructure/cli/commands"
)

const debugEnv = "KUBEASK_DEBUG"

// NewRootCmd wires the cobra root command. The returned runtime builds the
// container lazily so global flags are applied before anything is loaded;
// callers close it once Execute returns.
func NewRootCmd() (*cobra.Command, *commands.Runtime) {
	rt := &commands.Runtime{}
	rt.Options.Verbose = debugEnabled()

	root := &cobra.Command{
		Use:   "kubeask [question]",
		Short: "kubeask - ask questions about your Kubernetes cluster",
		Long: "kubeask answers questions about a Kubernetes cluster by running " +
			"read-only kubectl commands and summarising their output.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return commands.AskWithDefaults(cmd, rt, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rt.Options.ConfigPath, "config", "", "Config file (default ~/.kubeask/config.yaml)")
	root.PersistentFlags().BoolVarP(&rt.Options.Verbose, "verbose", "v", rt.Options.Verbose, "Log debug output to stderr")

	root.AddCommand(
		commands.NewAskCommand(rt),
		commands.NewChatCommand(rt),
		commands.NewVerifyCommand(rt),
		commands.NewSafeCommandsCommand(rt),
		commands.NewClassifyCommand(rt),
		commands.NewHistoryCommand(rt),
		commands.NewConfigCommand(rt),
		commands.NewCacheCommand(rt),
		commands.NewModelsCommand(rt),
		commands.NewDoctorCommand(rt),
		commands.NewVersionCommand(),
	)
	return root, rt
}

func debugEnabled() bool {
	value := os.Getenv(debugEnv)
	return value == "1" || strings.EqualFold(value, "true")
}
