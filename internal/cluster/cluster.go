// Package cluster provides the production ClusterInfoProvider: it reads the
// local kubeconfig and reports the current context's server URL.
package cluster

import (
	"context"

	"k8s.io/client-go/tools/clientcmd"

	"github.com/projenv-dev/projenv/internal/logging"
)

// KubeconfigProvider reads the cluster server URL from kubeconfig files.
// With an empty Path the default loading rules apply ($KUBECONFIG or
// ~/.kube/config). A missing file, missing current context, or missing
// cluster entry is absence, not an error.
type KubeconfigProvider struct {
	Path string
}

// ServerURL returns the current context's control-plane endpoint, or "" when
// no usable kubeconfig is present.
func (p *KubeconfigProvider) ServerURL(ctx context.Context) (string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if p.Path != "" {
		rules.ExplicitPath = p.Path
	}
	cfg, err := rules.Load()
	if err != nil {
		// No kubeconfig amounts to no cluster tool installed.
		logging.FromContext(ctx).Debug(ctx, "loading kubeconfig failed", "error", err)
		return "", nil
	}
	if cfg.CurrentContext == "" {
		return "", nil
	}
	kctx := cfg.Contexts[cfg.CurrentContext]
	if kctx == nil {
		return "", nil
	}
	cl := cfg.Clusters[kctx.Cluster]
	if cl == nil {
		return "", nil
	}
	return cl.Server, nil
}
