// Package projenvcfg resolves the input snapshot for a projenv invocation:
// override environment variables, CI vendor signals, the canonical project
// root, and the optional .projenv/config.yml file under it.
package projenvcfg

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variable names for explicit overrides.
const (
	ProjRootEnvKey   = "PROJ_ROOT"
	DockerRepoEnvKey = "DOCKER_REPO"
	DockerTagEnvKey  = "DOCKER_TAG"
	NamespaceEnvKey  = "NAMESPACE"
	LogFormatEnvKey  = "PROJENV_LOG_FORMAT"
)

// Environment variable names set by CI vendors.
const (
	BitbucketBuildNumberEnvKey = "BITBUCKET_BUILD_NUMBER"
	BitbucketCommitEnvKey      = "BITBUCKET_COMMIT"
	TravisBuildNumberEnvKey    = "TRAVIS_BUILD_NUMBER"
	TravisCommitEnvKey         = "TRAVIS_COMMIT"
	CircleBuildNumberEnvKey    = "CIRCLE_BUILD_NUM"
	CircleCommitEnvKey         = "CIRCLE_SHA1"
)

// Directory and file names
const (
	ProjenvDirName = ".projenv"
	ConfigFileName = "config.yml"
)

// DefaultLocalRegistry is the image registry assumed for single-node
// development clusters (the microk8s built-in registry convention).
const DefaultLocalRegistry = "localhost:32000"

// GetenvFunc looks up an environment variable, returning "" when unset.
// Injecting it keeps resolution testable without mutating process state.
type GetenvFunc func(key string) string

// CIVendor holds one vendor's build-number/commit signal pair.
type CIVendor struct {
	Name        string
	BuildNumber string
	Commit      string
}

// Config is the resolved input snapshot for one invocation. Override fields
// are empty when the corresponding variable (and config file entry) is unset.
type Config struct {
	ProjectRoot   string // canonical absolute project root
	Namespace     string // namespace override
	DockerRepo    string // image repository override
	DockerTag     string // image tag override
	LocalRegistry string // registry prefix for local-cluster repositories
	Hostname      string // local machine name
	LogFormat     string // logging format (human|text|json)
	CI            []CIVendor
}

// configFile represents the structure of .projenv/config.yml for unmarshaling.
type configFile struct {
	Version       int     `yaml:"version"`
	Namespace     string  `yaml:"namespace,omitempty"`
	DockerRepo    string  `yaml:"dockerRepo,omitempty"`
	DockerTag     string  `yaml:"dockerTag,omitempty"`
	LocalRegistry string  `yaml:"localRegistry,omitempty"`
	Logging       Logging `yaml:"logging,omitempty"`
}

// Logging represents the logging configuration from .projenv/config.yml
type Logging struct {
	Format string `yaml:"format,omitempty"` // human (default), text, json
}

// ResolveRoot canonicalizes the project root.
//
// Resolution order:
//  1. override parameter (from PROJ_ROOT)
//  2. workDir (the current working directory of the invocation)
//
// The resolved path must exist; a missing root is the one fatal condition
// in the whole derivation.
func ResolveRoot(override, workDir string) (string, error) {
	root := override
	if root == "" {
		root = workDir
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving project root to absolute path: %w", err)
	}
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("project root %q does not exist: %w", root, err)
	}
	return root, nil
}

// Load builds the input snapshot from the given environment lookup and
// working directory. Environment variables take precedence over the config
// file; the config file is optional.
func Load(getenv GetenvFunc, workDir string) (*Config, error) {
	root, err := ResolveRoot(getenv(ProjRootEnvKey), workDir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectRoot:   root,
		Namespace:     getenv(NamespaceEnvKey),
		DockerRepo:    getenv(DockerRepoEnvKey),
		DockerTag:     getenv(DockerTagEnvKey),
		LocalRegistry: DefaultLocalRegistry,
		LogFormat:     getenv(LogFormatEnvKey),
		CI: []CIVendor{
			{Name: "bitbucket", BuildNumber: getenv(BitbucketBuildNumberEnvKey), Commit: getenv(BitbucketCommitEnvKey)},
			{Name: "travis", BuildNumber: getenv(TravisBuildNumberEnvKey), Commit: getenv(TravisCommitEnvKey)},
			{Name: "circle", BuildNumber: getenv(CircleBuildNumberEnvKey), Commit: getenv(CircleCommitEnvKey)},
		},
	}

	if err := cfg.loadConfigFile(); err != nil {
		return nil, err
	}

	if hostname, err := os.Hostname(); err == nil {
		cfg.Hostname = hostname
	}

	return cfg, nil
}

// loadConfigFile merges .projenv/config.yml into unset Config fields.
// Does nothing if the file doesn't exist (not an error).
func (c *Config) loadConfigFile() error {
	configPath := filepath.Join(c.ProjectRoot, ProjenvDirName, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", configPath, err)
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("parsing config file %q: %w", configPath, err)
	}

	// Environment variables win over file values.
	if c.Namespace == "" {
		c.Namespace = cf.Namespace
	}
	if c.DockerRepo == "" {
		c.DockerRepo = cf.DockerRepo
	}
	if c.DockerTag == "" {
		c.DockerTag = cf.DockerTag
	}
	if cf.LocalRegistry != "" {
		c.LocalRegistry = cf.LocalRegistry
	}
	if c.LogFormat == "" {
		c.LogFormat = cf.Logging.Format
	}

	return nil
}
