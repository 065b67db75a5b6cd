package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/projenv-dev/projenv/config/projenvcfg"
	"github.com/projenv-dev/projenv/internal/cluster"
	"github.com/projenv-dev/projenv/internal/resolver"
	"github.com/projenv-dev/projenv/internal/route"
)

// newCmdEnv returns the command that prints the five assignment lines.
// Output goes to stdout only, so it can be sourced directly:
//
//	eval "$(projenv env)"
func newCmdEnv() *cobra.Command {
	var rootFlag string
	cmd := &cobra.Command{
		Use:     "env",
		Aliases: []string{"projenv"},
		Short:   "Print project environment assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, rootFlag)
		},
	}
	cmd.Flags().StringVar(&rootFlag, "root", "", "Project root (env PROJ_ROOT, default: working directory)")
	return cmd
}

func runEnv(cmd *cobra.Command, rootFlag string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining working directory: %w", err)
	}

	getenv := os.Getenv
	if rootFlag != "" {
		// The flag takes precedence over the PROJ_ROOT variable.
		getenv = func(key string) string {
			if key == projenvcfg.ProjRootEnvKey {
				return rootFlag
			}
			return os.Getenv(key)
		}
	}

	cfg, err := projenvcfg.Load(getenv, workDir)
	if err != nil {
		return err
	}

	r := resolver.New(cfg, &cluster.KubeconfigProvider{}, &route.IPRouteProvider{})
	for _, a := range r.Environment(cmd.Context()) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", a.Name, a.Value)
	}
	return nil
}
