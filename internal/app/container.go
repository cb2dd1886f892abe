package app

import (
	"context"
	"path/filepath"

	"github.com/doeshing/kubeask/internal/application/chat"
	"github.com/doeshing/kubeask/internal/application/doctor"
	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/ai"
	"github.com/doeshing/kubeask/internal/infrastructure/cache"
	"github.com/doeshing/kubeask/internal/infrastructure/classifier"
	"github.com/doeshing/kubeask/internal/infrastructure/config"
	"github.com/doeshing/kubeask/internal/infrastructure/executor"
	"github.com/doeshing/kubeask/internal/infrastructure/history"
	"github.com/doeshing/kubeask/internal/infrastructure/kubecontext"
	"github.com/doeshing/kubeask/internal/infrastructure/security"
	"github.com/doeshing/kubeask/internal/pkg/logger"
	"github.com/doeshing/kubeask/internal/pkg/metrics"
	"github.com/doeshing/kubeask/internal/ports"
)

// Options tunes container construction from CLI flags.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	ChatService   *chat.Service
	DoctorService *doctor.Service
	ConfigLoader  *config.FileLoader
	Config        ports.ConfigProvider
	Verifier      *security.Verifier
	Classifiers   chat.ClassifierFactory
	Advisors      *ai.Factory
	ReplyCache    *cache.FileCache
	HistoryStore  ports.ConversationRepository
	Metrics       *metrics.Recorder
	Logger        *logger.ZapLogger
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Verbose: opts.Verbose,
	})
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()

	verifier, err := security.NewVerifier(cfg.Security.RulesFile)
	if err != nil {
		log.Warn("verifier rules ignored", map[string]interface{}{
			"path":  cfg.Security.RulesFile,
			"error": err.Error(),
		})
		verifier = security.DefaultVerifier()
	}

	kubectl := executor.NewKubectlExecutor(
		executor.WithProgram(cfg.Execution.KubectlPath),
		executor.WithKubeconfig(cfg.Kubernetes.Kubeconfig),
		executor.WithContext(cfg.Kubernetes.Context),
		executor.WithLogger(log),
	)
	kube := kubecontext.NewReader()

	store, err := history.Open(ctx, cfg.History.Path, log)
	if err != nil {
		return nil, err
	}

	factoryOpts := []ai.FactoryOption{
		ai.WithObserver(recorder),
		ai.WithFactoryLogger(log),
		ai.WithAdvisorLimits(cfg.ClassificationTimeout(), 0, cfg.MaxFollowUpCommands()),
	}
	var replies *cache.FileCache
	if ttl := cfg.ClassificationCacheTTL(); ttl > 0 {
		replies = cache.NewFileCache(filepath.Join(config.ConfigDir(), "cache", "classifications"), cache.DefaultMaxEntries, ttl)
		factoryOpts = append(factoryOpts, ai.WithReplyCache(replies))
	}
	advisors := ai.NewFactory(factoryOpts...)

	classifiers := func(aiClassifier ports.AIClassifier) ports.QuestionClassifier {
		options := []classifier.Option{
			classifier.WithLogger(log),
			classifier.WithMetrics(recorder),
		}
		if aiClassifier != nil {
			options = append(options, classifier.WithAI(aiClassifier))
		}
		return classifier.New(options...)
	}

	chatService := &chat.Service{
		Config:      cfgLoader,
		Classifiers: classifiers,
		Verifier:    verifier,
		Executor:    kubectl,
		Advisors:    advisors,
		Store:       store,
		Kube:        kube,
		Metrics:     recorder,
		Logger:      log,
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Verifier:       verifier,
		Kubectl:        kubectl,
		Executor:       kubectl,
		Kube:           kube,
		Store:          store,
		Keys: func(model domain.ModelDefinition) (string, bool) {
			return ai.APIKeyEnv(model), ai.APIKeyPresent(model)
		},
	}

	return &Container{
		ChatService:   chatService,
		DoctorService: doctorService,
		ConfigLoader:  cfgLoader,
		Config:        cfgLoader,
		Verifier:      verifier,
		Classifiers:   classifiers,
		Advisors:      advisors,
		ReplyCache:    replies,
		HistoryStore:  store,
		Metrics:       recorder,
		Logger:        log,
	}, nil
}

// Close releases the history store and flushes logs.
func (c *Container) Close() error {
	err := c.HistoryStore.Close()
	_ = c.Logger.Sync()
	return err
}
