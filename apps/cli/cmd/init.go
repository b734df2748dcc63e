package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/timecheck/packages/core/config"
	"github.com/abdul-hamid-achik/timecheck/resources"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	initConfigFile  = ".timecheck.yaml"
	initResourceDir = "resources"
)

type initOptions struct {
	dir   string
	force bool
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a timecheck project",
		Long: `Initialize a timecheck project in a directory.

This creates:
  - .timecheck.yaml - Configuration file pointing at the local resources
  - resources/      - Copy of the bundled suite, fixtures and schemas

Examples:
  timecheck init
  timecheck init --dir ./contract --force`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommand(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "Directory to initialize")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite existing files")

	return cmd
}

func initCommand(cmd *cobra.Command, opts *initOptions) error {
	configFile := filepath.Join(opts.dir, initConfigFile)
	resourceDir := filepath.Join(opts.dir, initResourceDir)

	targets := []string{configFile}
	_ = fs.WalkDir(resources.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			targets = append(targets, filepath.Join(resourceDir, filepath.FromSlash(path)))
		}
		return err
	})

	if !opts.force {
		for _, f := range targets {
			if _, err := os.Stat(f); err == nil {
				return exitWith(ExitUsageError, errors.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	d := config.DefaultConfig()
	configContent := map[string]any{
		"baseURL":         d.BaseURL,
		"suite":           d.Suite,
		"resourceDir":     initResourceDir,
		"timeout":         d.Timeout.String(),
		"latencyCeiling":  "0s",
		"followRedirects": d.FollowRedirects,
		"maxRedirects":    d.MaxRedirects,
		"validateSSL":     d.ValidateSSL,
		"concurrency":     d.Concurrency,
		"output":          d.Output,
		"headers": map[string]string{
			"User-Agent": "timecheck/" + version,
		},
	}

	configYAML, err := yaml.Marshal(configContent)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return errors.Wrap(err, "creating project directory")
	}
	if err := os.WriteFile(configFile, configYAML, 0o644); err != nil {
		return errors.Wrap(err, "failed to create config file")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	err = fs.WalkDir(resources.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(resourceDir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(resources.FS, path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", target)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "copying resources")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\ntimecheck project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'timecheck run' in %s to execute the suite.\n", opts.dir)
	return nil
}
