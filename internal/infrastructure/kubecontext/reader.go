// Package kubecontext reads the kubeconfig context kubectl will use.
package kubecontext

import (
	"errors"
	"fmt"
	"strings"

	"k8s.io/client-go/tools/clientcmd"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// ErrNoContext is returned when the kubeconfig names no usable context.
var ErrNoContext = errors.New("no current kubeconfig context")

// Reader resolves contexts with kubectl's own loading rules
// ($KUBECONFIG, then ~/.kube/config).
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Current returns the effective context. Empty arguments mean kubectl defaults.
func (r *Reader) Current(kubeconfig, contextName string) (domain.ClusterInfo, error) {
	loader := clientcmd.NewDefaultClientConfigLoadingRules()
	if path := strings.TrimSpace(kubeconfig); path != "" {
		loader.ExplicitPath = path
	}
	overrides := &clientcmd.ConfigOverrides{}
	if name := strings.TrimSpace(contextName); name != "" {
		overrides.CurrentContext = name
	}

	cfg := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loader, overrides)
	raw, err := cfg.RawConfig()
	if err != nil {
		return domain.ClusterInfo{}, fmt.Errorf("load kubeconfig: %w", err)
	}

	name := raw.CurrentContext
	if overrides.CurrentContext != "" {
		name = overrides.CurrentContext
	}
	if name == "" {
		return domain.ClusterInfo{}, ErrNoContext
	}
	kubeCtx, ok := raw.Contexts[name]
	if !ok || kubeCtx == nil {
		return domain.ClusterInfo{}, fmt.Errorf("%w: context %q not found", ErrNoContext, name)
	}

	info := domain.ClusterInfo{
		Kubeconfig: describeSource(loader),
		Context:    name,
		Cluster:    kubeCtx.Cluster,
		Namespace:  kubeCtx.Namespace,
		User:       kubeCtx.AuthInfo,
	}
	if cluster, ok := raw.Clusters[kubeCtx.Cluster]; ok && cluster != nil {
		info.Server = cluster.Server
	}
	return info, nil
}

func describeSource(loader *clientcmd.ClientConfigLoadingRules) string {
	if loader.ExplicitPath != "" {
		return loader.ExplicitPath
	}
	return strings.Join(loader.Precedence, ":")
}

var _ ports.KubeContextReader = (*Reader)(nil)
