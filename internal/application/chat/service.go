// Package chat answers a question about the cluster: classify it, let the
// advisor propose kubectl commands, verify and run them, then summarise.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// ClassifierFactory builds a classifier around an optional AI fallback.
// A nil AIClassifier means keyword and context scoring only.
type ClassifierFactory func(ai ports.AIClassifier) ports.QuestionClassifier

// Service orchestrates one chat turn end-to-end.
type Service struct {
	Config      ports.ConfigProvider
	Classifiers ClassifierFactory
	Verifier    ports.CommandVerifier
	Executor    ports.CommandExecutor
	Advisors    ports.AdvisorFactory
	Store       ports.ConversationRepository
	Kube        ports.KubeContextReader
	Metrics     ports.MetricsRecorder
	Logger      ports.Logger
}

// offliner is implemented by advisors that answer without a model.
type offliner interface {
	Offline() bool
}

const noCommandsRan = "I couldn't execute any of the suggested commands for your question. " +
	"All commands were rejected for safety reasons."

// Ask runs a single question through the pipeline and persists both turns.
func (s *Service) Ask(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if s.Config == nil || s.Classifiers == nil || s.Verifier == nil || s.Executor == nil ||
		s.Advisors == nil || s.Store == nil || s.Logger == nil {
		return domain.ChatResponse{}, errors.New("chat.Service dependencies not satisfied")
	}

	question := strings.TrimSpace(req.Message)
	if question == "" {
		return domain.ChatResponse{}, errors.New("message is empty")
	}

	cfg, err := s.Config.Load(ctx)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
	defer cancel()

	session, err := s.Store.EnsureSession(ctx, req.SessionID)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("open session: %w", err)
	}

	// History is read before the new question is stored so the classifier
	// and advisor see only earlier turns.
	history, err := s.Store.Conversation(ctx, session.ID, cfg.HistoryWindow())
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("load history: %w", err)
	}
	if err := s.Store.Append(ctx, session.ID, domain.UserMessage(question)); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("store question: %w", err)
	}

	model, err := cfg.ResolveModel(req.ModelOverride)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	advisor, err := s.Advisors.AdvisorFor(model)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("advisor init: %w", err)
	}
	classification := s.classifierFor(cfg, advisor).Classify(ctx, question, history)

	advisorReq := ports.AdvisorRequest{
		Question:       question,
		History:        history,
		Classification: classification,
		Cluster:        s.cluster(cfg),
	}

	s.Logger.Info("answering question", map[string]interface{}{
		"session":       session.ID,
		"model":         model.Name,
		"question_type": string(classification.QuestionType),
		"max_commands":  classification.SuggestedMaxCommands,
		"method":        string(classification.ClassificationMethod),
	})

	resp := domain.ChatResponse{
		SessionID:      session.ID,
		Classification: classification,
		Executed:       []domain.CommandOutput{},
		Rejected:       []domain.RejectedCommand{},
	}

	proposed, err := advisor.SuggestCommands(ctx, advisorReq)
	if err != nil {
		s.Logger.Warn("command suggestion failed", map[string]interface{}{"error": err.Error()})
		proposed = nil
	}
	proposed = capCommands(proposed, classification.SuggestedMaxCommands)

	if len(proposed) == 0 {
		answer, err := advisor.AnalyzeOutputs(ctx, advisorReq, nil)
		if err != nil {
			return domain.ChatResponse{}, fmt.Errorf("advice: %w", err)
		}
		resp.Answer = answer
		resp.AnalysisType = domain.AnalysisAdviceOnly
		return s.finish(ctx, resp)
	}

	resp.AnalysisType = domain.AnalysisCommandBased
	outputs, rejected := s.runRound(ctx, cfg, proposed, false)
	resp.Rejected = append(resp.Rejected, rejected...)

	if classification.FollowUpAllowed && classification.IsInvestigative() && anySucceeded(outputs) {
		followUps, err := advisor.SuggestFollowUpCommands(ctx, advisorReq, outputs)
		if err != nil {
			s.Logger.Warn("follow-up suggestion failed", map[string]interface{}{"error": err.Error()})
		}
		followUps = capCommands(s.skipSeen(followUps, outputs), cfg.MaxFollowUpCommands())
		if len(followUps) > 0 {
			more, rejected := s.runRound(ctx, cfg, followUps, true)
			outputs = append(outputs, more...)
			resp.Rejected = append(resp.Rejected, rejected...)
		}
	}
	resp.Executed = outputs

	if len(outputs) == 0 {
		resp.Answer = rejectionSummary(resp.Rejected)
		return s.finish(ctx, resp)
	}

	answer, err := advisor.AnalyzeOutputs(ctx, advisorReq, outputs)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("analysis: %w", err)
	}
	resp.Answer = answer
	return s.finish(ctx, resp)
}

// Classify scores a message against a session's stored history without
// answering it. Nothing is persisted. With useAI false only keyword and
// context scoring run.
func (s *Service) Classify(ctx context.Context, req domain.ChatRequest, useAI bool) (domain.ClassificationResult, error) {
	if s.Config == nil || s.Classifiers == nil || s.Store == nil {
		return domain.ClassificationResult{}, errors.New("chat.Service dependencies not satisfied")
	}
	cfg, err := s.Config.Load(ctx)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("load config: %w", err)
	}

	var history []domain.ConversationMessage
	if req.SessionID != "" {
		if history, err = s.Store.Conversation(ctx, req.SessionID, cfg.HistoryWindow()); err != nil {
			return domain.ClassificationResult{}, fmt.Errorf("load history: %w", err)
		}
	}

	classifier := s.Classifiers(nil)
	if useAI && s.Advisors != nil {
		model, err := cfg.ResolveModel(req.ModelOverride)
		if err != nil {
			return domain.ClassificationResult{}, err
		}
		advisor, err := s.Advisors.AdvisorFor(model)
		if err != nil {
			return domain.ClassificationResult{}, fmt.Errorf("advisor init: %w", err)
		}
		classifier = s.classifierFor(cfg, advisor)
	}
	return classifier.Classify(ctx, req.Message, history), nil
}

// classifierFor only hands the advisor to the classifier when it is backed
// by a real model and the fallback is enabled.
func (s *Service) classifierFor(cfg domain.Config, advisor ports.Advisor) ports.QuestionClassifier {
	if cfg.AI.DisableClassificationFallback || isOffline(advisor) {
		return s.Classifiers(nil)
	}
	return s.Classifiers(advisor)
}

// runRound sanitizes and verifies every command, then runs the accepted ones with bounded
// parallelism. Outputs keep the proposal order.
func (s *Service) runRound(ctx context.Context, cfg domain.Config, commands []string, followUp bool) ([]domain.CommandOutput, []domain.RejectedCommand) {
	var accepted []string
	var rejected []domain.RejectedCommand

	for _, proposed := range commands {
		command := s.Verifier.Sanitize(proposed)
		outcome := s.Verifier.Verify(command)
		if s.Metrics != nil {
			s.Metrics.ObserveVerification(outcome)
		}
		if !outcome.Accepted {
			s.Logger.Warn("command rejected", map[string]interface{}{
				"command": command,
				"reason":  outcome.Reason,
			})
			rejected = append(rejected, domain.RejectedCommand{Command: command, Reason: outcome.Reason})
			continue
		}
		accepted = append(accepted, command)
	}

	outputs := make([]domain.CommandOutput, len(accepted))
	timeout := cfg.CommandTimeout()

	// A plain Group: a failing command never cancels its siblings.
	var g errgroup.Group
	g.SetLimit(cfg.MaxParallelCommands())
	for i, command := range accepted {
		i, command := i, command
		g.Go(func() error {
			result := s.Executor.Run(ctx, strings.Fields(command)[1:], timeout)
			outputs[i] = domain.CommandOutput{Command: command, FollowUp: followUp, Result: result}
			if s.Metrics != nil {
				s.Metrics.ObserveExecution(result)
			}
			s.Logger.Debug("command finished", map[string]interface{}{
				"command":     command,
				"success":     result.Success,
				"return_code": result.ReturnCode,
				"duration_ms": result.DurationMS,
			})
			return nil
		})
	}
	_ = g.Wait()

	return outputs, rejected
}

func (s *Service) finish(ctx context.Context, resp domain.ChatResponse) (domain.ChatResponse, error) {
	resp.Timestamp = time.Now()
	classification := resp.Classification
	meta := &domain.MessageMetadata{
		CommandsExecuted: resp.ExecutedCommands(),
		RejectedCommands: resp.Rejected,
		Classification:   &classification,
		AnalysisType:     resp.AnalysisType,
	}
	if err := s.Store.Append(ctx, resp.SessionID, domain.AssistantMessage(resp.Answer, meta)); err != nil {
		// The answer is already computed; losing it from history is not fatal.
		s.Logger.Error("store answer failed", err, map[string]interface{}{"session": resp.SessionID})
	}
	return resp, nil
}

func (s *Service) cluster(cfg domain.Config) domain.ClusterInfo {
	if s.Kube == nil {
		return domain.ClusterInfo{}
	}
	info, err := s.Kube.Current(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Context)
	if err != nil {
		s.Logger.Debug("kube context unavailable", map[string]interface{}{"error": err.Error()})
		return domain.ClusterInfo{}
	}
	return info
}

func isOffline(advisor ports.Advisor) bool {
	o, ok := advisor.(offliner)
	return ok && o.Offline()
}

func capCommands(commands []string, limit int) []string {
	if limit > 0 && len(commands) > limit {
		return commands[:limit]
	}
	return commands
}

func (s *Service) skipSeen(commands []string, outputs []domain.CommandOutput) []string {
	seen := make(map[string]struct{}, len(outputs))
	for _, out := range outputs {
		seen[out.Command] = struct{}{}
	}
	var fresh []string
	for _, command := range commands {
		key := s.Verifier.Sanitize(command)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, command)
	}
	return fresh
}

func anySucceeded(outputs []domain.CommandOutput) bool {
	for _, out := range outputs {
		if out.Result.Success {
			return true
		}
	}
	return false
}

func rejectionSummary(rejected []domain.RejectedCommand) string {
	var b strings.Builder
	b.WriteString(noCommandsRan)
	b.WriteString("\n\n**Rejected commands:**\n")
	for _, r := range rejected {
		fmt.Fprintf(&b, "- `%s`: %s\n", r.Command, r.Reason)
	}
	b.WriteString("\nPlease try rephrasing your question or ask about specific Kubernetes resources in a different way.")
	return b.String()
}
