package cluster

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const kubeconfigWithContext = `apiVersion: v1
kind: Config
current-context: dev
contexts:
- name: dev
  context:
    cluster: dev-cluster
    user: dev-user
clusters:
- name: dev-cluster
  cluster:
    server: https://127.0.0.1:14443
users:
- name: dev-user
  user: {}
`

const kubeconfigNoCurrentContext = `apiVersion: v1
kind: Config
contexts:
- name: dev
  context:
    cluster: dev-cluster
    user: dev-user
clusters:
- name: dev-cluster
  cluster:
    server: https://127.0.0.1:14443
users:
- name: dev-user
  user: {}
`

func writeKubeconfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing kubeconfig: %v", err)
	}
	return path
}

func TestServerURL(t *testing.T) {
	ctx := context.Background()

	t.Run("current context server", func(t *testing.T) {
		p := &KubeconfigProvider{Path: writeKubeconfig(t, kubeconfigWithContext)}
		got, err := p.ServerURL(ctx)
		if err != nil {
			t.Fatalf("ServerURL() error: %v", err)
		}
		if got != "https://127.0.0.1:14443" {
			t.Errorf("ServerURL() = %q, want %q", got, "https://127.0.0.1:14443")
		}
	})

	t.Run("no current context is absence", func(t *testing.T) {
		p := &KubeconfigProvider{Path: writeKubeconfig(t, kubeconfigNoCurrentContext)}
		got, err := p.ServerURL(ctx)
		if err != nil {
			t.Fatalf("ServerURL() error: %v", err)
		}
		if got != "" {
			t.Errorf("ServerURL() = %q, want empty", got)
		}
	})

	t.Run("missing file is absence", func(t *testing.T) {
		p := &KubeconfigProvider{Path: filepath.Join(t.TempDir(), "missing")}
		got, err := p.ServerURL(ctx)
		if err != nil {
			t.Fatalf("ServerURL() error: %v", err)
		}
		if got != "" {
			t.Errorf("ServerURL() = %q, want empty", got)
		}
	})
}
