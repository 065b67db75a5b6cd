// Package selftest exercises the resolver precedence rules end to end with
// stubbed probes and synthetic environments. It stops at the first mismatch.
package selftest

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/google/uuid"

	"github.com/projenv-dev/projenv/config/projenvcfg"
	"github.com/projenv-dev/projenv/internal/logging"
	"github.com/projenv-dev/projenv/internal/resolver"
)

// stubCluster returns a fixed server URL.
type stubCluster struct{ server string }

func (s stubCluster) ServerURL(ctx context.Context) (string, error) { return s.server, nil }

// stubRoute returns a fixed outbound address.
type stubRoute struct{ ip string }

func (s stubRoute) OutboundIP(ctx context.Context) (string, error) { return s.ip, nil }

// mapGetenv builds a getenv function over a fixed variable map, so no check
// mutates the process environment.
func mapGetenv(vars map[string]string) projenvcfg.GetenvFunc {
	return func(key string) string { return vars[key] }
}

// Run executes all checks, logging progress, and returns a descriptive error
// on the first failed expectation.
func Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).With("selftest", uuid.NewString())

	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"unique name properties", checkUniqueName},
		{"local cluster detection", checkLocalCluster},
		{"tag and repository precedence", checkPrecedence},
		{"derived defaults without overrides", checkDerivedDefaults},
		{"fatal on missing project root", checkMissingRoot},
		{"idempotence", checkIdempotence},
	}
	for _, c := range checks {
		logger.Info(ctx, "running check", "check", c.name)
		if err := c.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	logger.Info(ctx, "all checks passed", "count", len(checks))
	return nil
}

func checkUniqueName(ctx context.Context) error {
	for _, root := range []string{"/tmp", "/home/user/project", "/a/b/c-d", "/"} {
		name := resolver.UniqueName(root)
		for _, r := range name {
			if r == '/' {
				return fmt.Errorf("UniqueName(%q) = %q contains a path separator", root, name)
			}
		}
		if len(name) > 0 && name[0] == '-' {
			return fmt.Errorf("UniqueName(%q) = %q starts with a dash", root, name)
		}
	}
	if got := resolver.UniqueName("/tmp"); got != "tmp" {
		return fmt.Errorf("UniqueName(/tmp) = %q, want %q", got, "tmp")
	}
	if got := resolver.UniqueName("/home/user/project"); got != "home-user-project" {
		return fmt.Errorf("UniqueName(/home/user/project) = %q, want %q", got, "home-user-project")
	}
	return nil
}

func checkLocalCluster(ctx context.Context) error {
	cases := []struct {
		server string
		want   bool
	}{
		{"https://127.0.0.1:14443", true},
		{"https://localhost:6443", true},
		{"https://somecluster.hcp.someregion.azmk8s.io:443", false},
		{"", false},
	}
	for _, c := range cases {
		if got := resolver.IsLocalCluster(c.server); got != c.want {
			return fmt.Errorf("IsLocalCluster(%q) = %v, want %v", c.server, got, c.want)
		}
	}
	return nil
}

// checkPrecedence covers the override/CI/latest tag rules and their
// interaction with repository and namespace resolution.
func checkPrecedence(ctx context.Context) error {
	root, cleanup, err := tempRoot()
	if err != nil {
		return err
	}
	defer cleanup()

	vendorPairs := []map[string]string{
		{projenvcfg.BitbucketBuildNumberEnvKey: "999", projenvcfg.BitbucketCommitEnvKey: "feedbeef"},
		{projenvcfg.TravisBuildNumberEnvKey: "999", projenvcfg.TravisCommitEnvKey: "feedbeef"},
		{projenvcfg.CircleBuildNumberEnvKey: "999", projenvcfg.CircleCommitEnvKey: "feedbeef"},
	}
	for _, pair := range vendorPairs {
		vars := map[string]string{
			projenvcfg.ProjRootEnvKey:   root,
			projenvcfg.DockerRepoEnvKey: "reponame",
		}
		for k, v := range pair {
			vars[k] = v
		}
		image, err := resolveImage(ctx, vars, "")
		if err != nil {
			return err
		}
		if image != "reponame:build-999-feedbee" {
			return fmt.Errorf("CI-derived image = %q, want %q (vars %v)", image, "reponame:build-999-feedbee", pair)
		}
	}

	// Explicit tag wins over CI signals.
	image, err := resolveImage(ctx, map[string]string{
		projenvcfg.ProjRootEnvKey:             root,
		projenvcfg.DockerRepoEnvKey:           "reponame",
		projenvcfg.DockerTagEnvKey:            "latest",
		projenvcfg.BitbucketBuildNumberEnvKey: "999",
		projenvcfg.BitbucketCommitEnvKey:      "feedbeef",
	}, "")
	if err != nil {
		return err
	}
	if image != "reponame:latest" {
		return fmt.Errorf("tag override image = %q, want %q", image, "reponame:latest")
	}

	// Explicit namespace is independent of repository resolution.
	cfg, err := projenvcfg.Load(mapGetenv(map[string]string{
		projenvcfg.ProjRootEnvKey:             root,
		projenvcfg.NamespaceEnvKey:            "somens",
		projenvcfg.DockerRepoEnvKey:           "reponame",
		projenvcfg.BitbucketBuildNumberEnvKey: "999",
		projenvcfg.BitbucketCommitEnvKey:      "feedbeef",
	}), root)
	if err != nil {
		return err
	}
	r := resolver.New(cfg, stubCluster{server: "https://somecluster.hcp.someregion.azmk8s.io:443"}, stubRoute{})
	if got := r.Image(ctx); got != "reponame:build-999-feedbee" {
		return fmt.Errorf("remote-cluster image = %q, want %q", got, "reponame:build-999-feedbee")
	}
	if got := r.Namespace(); got != "somens" {
		return fmt.Errorf("namespace = %q, want %q", got, "somens")
	}
	return nil
}

// checkDerivedDefaults covers the no-override paths with and without a local
// cluster present.
func checkDerivedDefaults(ctx context.Context) error {
	root, cleanup, err := tempRoot()
	if err != nil {
		return err
	}
	defer cleanup()
	slug := resolver.UniqueName(root)

	// No cluster probe result: repository falls back to the slug.
	image, err := resolveImage(ctx, map[string]string{projenvcfg.ProjRootEnvKey: root}, "")
	if err != nil {
		return err
	}
	if image != slug+":latest" {
		return fmt.Errorf("default image = %q, want %q", image, slug+":latest")
	}

	// Local cluster: repository becomes <registry>/<namespace>.
	image, err = resolveImage(ctx, map[string]string{projenvcfg.ProjRootEnvKey: root}, "https://127.0.0.1")
	if err != nil {
		return err
	}
	want := projenvcfg.DefaultLocalRegistry + "/" + slug + ":latest"
	if image != want {
		return fmt.Errorf("local-cluster image = %q, want %q", image, want)
	}

	cfg, err := projenvcfg.Load(mapGetenv(map[string]string{projenvcfg.ProjRootEnvKey: root}), root)
	if err != nil {
		return err
	}
	r := resolver.New(cfg, stubCluster{}, stubRoute{})
	if got := r.Namespace(); got != slug {
		return fmt.Errorf("derived namespace = %q, want %q", got, slug)
	}
	return nil
}

func checkMissingRoot(ctx context.Context) error {
	_, err := projenvcfg.Load(mapGetenv(map[string]string{
		projenvcfg.ProjRootEnvKey: "/nonexistent/projenv/selftest/root",
	}), "/")
	if err == nil {
		return fmt.Errorf("expected an error for a nonexistent project root")
	}
	return nil
}

func checkIdempotence(ctx context.Context) error {
	root, cleanup, err := tempRoot()
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := projenvcfg.Load(mapGetenv(map[string]string{
		projenvcfg.ProjRootEnvKey:             root,
		projenvcfg.BitbucketBuildNumberEnvKey: "42",
		projenvcfg.BitbucketCommitEnvKey:      "0123456789abcdef",
	}), root)
	if err != nil {
		return err
	}
	r := resolver.New(cfg, stubCluster{server: "https://127.0.0.1:14443"}, stubRoute{ip: "10.0.0.5"})
	first := r.Environment(ctx)
	second := r.Environment(ctx)
	if !reflect.DeepEqual(first, second) {
		return fmt.Errorf("environment changed between identical invocations: %v != %v", first, second)
	}
	return nil
}

// resolveImage is a scenario helper: load a snapshot from vars and resolve
// the image against a stub cluster returning server.
func resolveImage(ctx context.Context, vars map[string]string, server string) (string, error) {
	cfg, err := projenvcfg.Load(mapGetenv(vars), vars[projenvcfg.ProjRootEnvKey])
	if err != nil {
		return "", err
	}
	r := resolver.New(cfg, stubCluster{server: server}, stubRoute{})
	return r.Image(ctx), nil
}

// tempRoot creates a throwaway project root for scenario checks.
func tempRoot() (string, func(), error) {
	dir, err := os.MkdirTemp("", "projenv-selftest-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating scenario root: %w", err)
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
