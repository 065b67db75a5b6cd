package projenvcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func mapGetenv(vars map[string]string) GetenvFunc {
	return func(key string) string { return vars[key] }
}

func TestResolveRoot(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}

	tests := []struct {
		name     string
		override string
		workDir  string
		want     string
		wantErr  bool
	}{
		{
			name:     "explicit override",
			override: subDir,
			workDir:  tmpDir,
			want:     subDir,
		},
		{
			name:    "default to working directory",
			workDir: tmpDir,
			want:    tmpDir,
		},
		{
			name:     "trailing slash cleaned",
			override: subDir + "/",
			workDir:  tmpDir,
			want:     subDir,
		},
		{
			name:     "nonexistent root",
			override: filepath.Join(tmpDir, "missing"),
			workDir:  tmpDir,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRoot(tt.override, tt.workDir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveRoot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ResolveRoot() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(mapGetenv(map[string]string{
		ProjRootEnvKey:             tmpDir,
		NamespaceEnvKey:            "somens",
		DockerRepoEnvKey:           "reponame",
		DockerTagEnvKey:            "v1",
		BitbucketBuildNumberEnvKey: "999",
		BitbucketCommitEnvKey:      "feedbeef",
		TravisBuildNumberEnvKey:    "111",
	}), "/")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ProjectRoot != tmpDir {
		t.Errorf("ProjectRoot = %q, want %q", cfg.ProjectRoot, tmpDir)
	}
	if cfg.Namespace != "somens" {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, "somens")
	}
	if cfg.DockerRepo != "reponame" {
		t.Errorf("DockerRepo = %q, want %q", cfg.DockerRepo, "reponame")
	}
	if cfg.DockerTag != "v1" {
		t.Errorf("DockerTag = %q, want %q", cfg.DockerTag, "v1")
	}
	if cfg.LocalRegistry != DefaultLocalRegistry {
		t.Errorf("LocalRegistry = %q, want %q", cfg.LocalRegistry, DefaultLocalRegistry)
	}
	if cfg.Hostname == "" {
		t.Error("Hostname is empty")
	}

	// CI vendors keep their precedence order regardless of which are set.
	wantVendors := []CIVendor{
		{Name: "bitbucket", BuildNumber: "999", Commit: "feedbeef"},
		{Name: "travis", BuildNumber: "111"},
		{Name: "circle"},
	}
	if len(cfg.CI) != len(wantVendors) {
		t.Fatalf("len(CI) = %d, want %d", len(cfg.CI), len(wantVendors))
	}
	for i, want := range wantVendors {
		if cfg.CI[i] != want {
			t.Errorf("CI[%d] = %+v, want %+v", i, cfg.CI[i], want)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	projenvDir := filepath.Join(tmpDir, ProjenvDirName)
	if err := os.Mkdir(projenvDir, 0755); err != nil {
		t.Fatalf("creating .projenv directory: %v", err)
	}

	configContent := `version: 1
namespace: filens
dockerRepo: filerepo
localRegistry: registry.local:5000
logging:
  format: json
`
	if err := os.WriteFile(filepath.Join(projenvDir, ConfigFileName), []byte(configContent), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	t.Run("file supplies unset fields", func(t *testing.T) {
		cfg, err := Load(mapGetenv(map[string]string{ProjRootEnvKey: tmpDir}), "/")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Namespace != "filens" {
			t.Errorf("Namespace = %q, want %q", cfg.Namespace, "filens")
		}
		if cfg.DockerRepo != "filerepo" {
			t.Errorf("DockerRepo = %q, want %q", cfg.DockerRepo, "filerepo")
		}
		if cfg.LocalRegistry != "registry.local:5000" {
			t.Errorf("LocalRegistry = %q, want %q", cfg.LocalRegistry, "registry.local:5000")
		}
		if cfg.LogFormat != "json" {
			t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
		}
	})

	t.Run("environment wins over file", func(t *testing.T) {
		cfg, err := Load(mapGetenv(map[string]string{
			ProjRootEnvKey:  tmpDir,
			NamespaceEnvKey: "envns",
		}), "/")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Namespace != "envns" {
			t.Errorf("Namespace = %q, want %q", cfg.Namespace, "envns")
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		bareDir := t.TempDir()
		cfg, err := Load(mapGetenv(map[string]string{ProjRootEnvKey: bareDir}), "/")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.LocalRegistry != DefaultLocalRegistry {
			t.Errorf("LocalRegistry = %q, want default %q", cfg.LocalRegistry, DefaultLocalRegistry)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		badDir := t.TempDir()
		badProjenv := filepath.Join(badDir, ProjenvDirName)
		if err := os.Mkdir(badProjenv, 0755); err != nil {
			t.Fatalf("creating .projenv directory: %v", err)
		}
		if err := os.WriteFile(filepath.Join(badProjenv, ConfigFileName), []byte("version: [1,"), 0644); err != nil {
			t.Fatalf("writing config file: %v", err)
		}
		if _, err := Load(mapGetenv(map[string]string{ProjRootEnvKey: badDir}), "/"); err == nil {
			t.Error("Load() expected error for malformed config file")
		}
	})
}
