// Package resolver derives the projenv naming values from an input snapshot
// and two injected probes. Everything here is a pure function of its
// arguments; only the probes touch the outside world.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/projenv-dev/projenv/config/projenvcfg"
	"github.com/projenv-dev/projenv/internal/logging"
)

// Output variable names, in the order they are emitted.
const (
	HostEnvKey      = "PROJ_HOST"
	NamespaceEnvKey = "PROJ_NAMESPACE"
	RootEnvKey      = projenvcfg.ProjRootEnvKey
	ImageEnvKey     = "PROJ_DOCKER_IMAGE"
	IPEnvKey        = "PROJ_IP"
)

// ClusterInfoProvider reports the active cluster control-plane endpoint.
// An empty URL means no cluster is configured; that is a normal outcome.
type ClusterInfoProvider interface {
	ServerURL(ctx context.Context) (string, error)
}

// RouteInfoProvider reports the local address used for outbound traffic.
// An empty address means the route could not be determined.
type RouteInfoProvider interface {
	OutboundIP(ctx context.Context) (string, error)
}

// Assignment is one NAME=VALUE output pair.
type Assignment struct {
	Name  string
	Value string
}

// Resolver computes naming values from a snapshot plus the two probes.
type Resolver struct {
	cfg     *projenvcfg.Config
	cluster ClusterInfoProvider
	route   RouteInfoProvider
}

// New returns a Resolver over the given snapshot and probes.
// Either probe may be nil, in which case its value degrades to empty.
func New(cfg *projenvcfg.Config, cluster ClusterInfoProvider, route RouteInfoProvider) *Resolver {
	return &Resolver{cfg: cfg, cluster: cluster, route: route}
}

// UniqueName derives a slug from an absolute path: every path separator
// becomes "-" and one leading "-" is stripped. The result contains no "/"
// and keeps the path's base name as a suffix.
func UniqueName(root string) string {
	name := strings.ReplaceAll(root, "/", "-")
	return strings.TrimPrefix(name, "-")
}

// IsLocalCluster reports whether a control-plane URL points at a single-node
// development cluster: a loopback address right after the scheme's "//", or
// a "localhost" host. An empty URL is not local — no server is unknown, not
// loopback.
func IsLocalCluster(server string) bool {
	if server == "" {
		return false
	}
	if strings.Contains(server, "localhost") {
		return true
	}
	if i := strings.Index(server, "//"); i >= 0 && strings.HasPrefix(server[i+2:], "127") {
		return true
	}
	return false
}

// Namespace returns the explicit override, else the project root slug.
func (r *Resolver) Namespace() string {
	if r.cfg.Namespace != "" {
		return r.cfg.Namespace
	}
	return UniqueName(r.cfg.ProjectRoot)
}

// Host returns "<namespace>.<hostname>".
func (r *Resolver) Host() string {
	return r.Namespace() + "." + r.cfg.Hostname
}

// Repository resolves the image repository:
//  1. explicit override
//  2. "<localRegistry>/<namespace>" when the active cluster is local
//  3. the project root slug
func (r *Resolver) Repository(ctx context.Context) string {
	if r.cfg.DockerRepo != "" {
		return r.cfg.DockerRepo
	}
	server := r.clusterServer(ctx)
	if IsLocalCluster(server) {
		return r.cfg.LocalRegistry + "/" + r.Namespace()
	}
	return UniqueName(r.cfg.ProjectRoot)
}

// Tag resolves the image tag:
//  1. explicit override
//  2. "build-<number>-<7 hex of commit>" when a CI build number is present
//  3. "latest"
//
// Build number and commit are each the first non-empty value over the
// vendors in snapshot order (bitbucket, travis, circle).
func (r *Resolver) Tag() string {
	if r.cfg.DockerTag != "" {
		return r.cfg.DockerTag
	}
	number, commit := ciSignals(r.cfg.CI)
	if number != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		return fmt.Sprintf("build-%s-%s", number, commit)
	}
	return "latest"
}

// Image returns "<repository>:<tag>".
func (r *Resolver) Image(ctx context.Context) string {
	return r.Repository(ctx) + ":" + r.Tag()
}

// Environment computes the five output assignments in their fixed order.
// Probe failures degrade the affected values to empty strings.
func (r *Resolver) Environment(ctx context.Context) []Assignment {
	return []Assignment{
		{Name: HostEnvKey, Value: r.Host()},
		{Name: NamespaceEnvKey, Value: r.Namespace()},
		{Name: RootEnvKey, Value: r.cfg.ProjectRoot},
		{Name: ImageEnvKey, Value: r.Image(ctx)},
		{Name: IPEnvKey, Value: r.outboundIP(ctx)},
	}
}

// clusterServer queries the cluster probe, absorbing absence and errors.
func (r *Resolver) clusterServer(ctx context.Context) string {
	if r.cluster == nil {
		return ""
	}
	server, err := r.cluster.ServerURL(ctx)
	if err != nil {
		logging.FromContext(ctx).Debug(ctx, "cluster server probe failed", "error", err)
		return ""
	}
	return server
}

// outboundIP queries the route probe, absorbing absence and errors.
func (r *Resolver) outboundIP(ctx context.Context) string {
	if r.route == nil {
		return ""
	}
	ip, err := r.route.OutboundIP(ctx)
	if err != nil {
		logging.FromContext(ctx).Debug(ctx, "outbound route probe failed", "error", err)
		return ""
	}
	return ip
}

// ciSignals returns the first non-empty build number and the first non-empty
// commit over the ordered vendor list. The two are picked independently.
func ciSignals(vendors []projenvcfg.CIVendor) (number, commit string) {
	for _, v := range vendors {
		if number == "" {
			number = v.BuildNumber
		}
		if commit == "" {
			commit = v.Commit
		}
	}
	return number, commit
}
