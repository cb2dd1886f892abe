package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/kubeask/internal/app"
	configapp "github.com/doeshing/kubeask/internal/application/config"
	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/helpers"
)

// NewChatCommand creates the interactive chat command
func NewChatCommand(rt *Runtime) *cobra.Command {
	var (
		session     string
		model       string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation about the cluster",
		Long: `Start an interactive conversation. Every question in the loop shares one
session, so follow-up questions see earlier answers.

Type /new to start a fresh session, exit or quit to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				stop := serveMetrics(container, metricsAddr)
				defer stop()
			}
			watchConfig(cmd.ErrOrStderr(), container)
			return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), container, session, model)
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Resume an existing session")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func chatLoop(ctx context.Context, in io.Reader, out, errOut io.Writer, container *app.Container, session, model string) error {
	renderer := helpers.NewRenderer(out)
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Ask about your cluster. Type exit to leave.")
	for {
		fmt.Fprint(out, chatPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case chatExit, chatQuit:
			return nil
		case chatNew:
			session = ""
			fmt.Fprintln(out, "Started a new session.")
			continue
		}

		spinner := helpers.NewSpinner(errOut, "investigating...", renderer.Terminal())
		spinner.Start()
		resp, err := container.ChatService.Ask(ctx, domain.ChatRequest{
			SessionID:     session,
			Message:       line,
			ModelOverride: model,
		})
		spinner.Stop()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		session = resp.SessionID
		renderer.Answer(resp)
		fmt.Fprintln(out)
	}
}

// watchConfig reports configuration edits. The chat service reloads the
// file on every question, so nothing else needs to be swapped.
func watchConfig(errOut io.Writer, container *app.Container) {
	err := container.ConfigLoader.Watch(func(cfg domain.Config, err error) {
		if err == nil {
			err = configapp.Validate(cfg)
		}
		if err != nil {
			container.Logger.Warn("config reload rejected", map[string]interface{}{"error": err.Error()})
			fmt.Fprintf(errOut, "\nconfig change ignored: %v\n", err)
			return
		}
		container.Logger.Info("config reloaded", map[string]interface{}{
			"path":          container.ConfigLoader.Path(),
			"default_model": cfg.Preferences.DefaultModel,
		})
	})
	if err != nil {
		container.Logger.Warn("config watch unavailable", map[string]interface{}{"error": err.Error()})
	}
}

func serveMetrics(container *app.Container, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", container.Metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			container.Logger.Error("metrics server stopped", err, map[string]interface{}{"addr": addr})
		}
	}()
	container.Logger.Info("serving metrics", map[string]interface{}{"addr": addr})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
