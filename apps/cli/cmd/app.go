package cmd

import (
	"io"
	"io/fs"
	"os"

	"github.com/abdul-hamid-achik/timecheck/packages/builtin"
	"github.com/abdul-hamid-achik/timecheck/packages/core/config"
	"github.com/abdul-hamid-achik/timecheck/packages/core/env"
	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"github.com/abdul-hamid-achik/timecheck/packages/core/suite"
	"github.com/abdul-hamid-achik/timecheck/packages/fixture"
	"github.com/abdul-hamid-achik/timecheck/packages/schema"
	"github.com/abdul-hamid-achik/timecheck/resources"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is the state shared by every command: merged configuration, logger
// and the resource loader.
type app struct {
	cfg     *config.Config
	cfgFile string
	logger  *logrus.Logger
	loader  *fixture.Loader
	clock   builtin.Clock
}

func newApp(cmd *cobra.Command) (*app, error) {
	file, _ := cmd.Flags().GetString("config")

	cfg, used, err := config.Load(config.LoadOptions{File: file, Flags: cmd.Flags()})
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	var fsys fs.FS = resources.FS
	if cfg.ResourceDir != "" {
		fsys = os.DirFS(cfg.ResourceDir)
	}

	logger.WithFields(logrus.Fields{
		"config":      used,
		"baseURL":     cfg.BaseURL,
		"suite":       cfg.Suite,
		"resourceDir": cfg.ResourceDir,
	}).Debug("configuration loaded")

	return &app{
		cfg:     cfg,
		cfgFile: used,
		logger:  logger,
		loader:  fixture.NewLoader(fsys),
		clock:   builtin.SystemClock,
	}, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// variables merges suite variable overrides: the env file, then
// TIMECHECK_VAR_* environment variables, then config and --var flags.
func (a *app) variables() (map[string]any, error) {
	var fromFile map[string]any
	if a.cfg.EnvFile != "" {
		vars, err := env.LoadAndExportDotEnv(a.cfg.EnvFile)
		if err != nil {
			return nil, exitWith(ExitConfigError, errors.Wrap(err, "loading env file"))
		}
		fromFile = env.StringVariables(vars)
	}

	return env.MergeVariables(
		fromFile,
		env.LoadSystemEnv(env.VariablePrefix),
		env.StringVariables(a.cfg.Variables),
	), nil
}

// definition loads the configured suite.
func (a *app) definition() (*suite.Definition, error) {
	def, err := suite.Load(a.loader, a.cfg.Suite)
	if err != nil {
		if errors.Is(err, fixture.ErrResourceNotFound) {
			return nil, exitWith(ExitConfigError, err)
		}
		return nil, exitWith(ExitParseError, err)
	}
	return def, nil
}

// plan loads the suite, compiles its schemas once and plans every case that
// matches the configured filter.
func (a *app) plan() (*suite.Definition, *schema.Set, *suite.Plan, error) {
	def, err := a.definition()
	if err != nil {
		return nil, nil, nil, err
	}

	vars, err := a.variables()
	if err != nil {
		return nil, nil, nil, err
	}

	schemas := schema.NewSet(a.loader, def.SchemaNames()...)
	if err := schemas.Err(); err != nil {
		a.logger.WithError(err).Warn("schemas failed to compile; cases using them will fail")
	}

	planner := suite.NewPlanner(a.loader, schemas, builtin.NewRegistry(a.clock), suite.Options{
		LatencyCeiling: a.cfg.LatencyCeiling,
		Variables:      vars,
	})
	plan := planner.Plan(def).Filter(a.cfg.Filter)

	a.logger.WithFields(logrus.Fields{
		"suite":  plan.Suite,
		"cases":  len(plan.Cases),
		"errors": len(plan.Errors),
		"filter": a.cfg.Filter,
	}).Debug("suite planned")

	return def, schemas, plan, nil
}

func (a *app) runnerConfig() *runner.Config {
	return &runner.Config{
		BaseURL:         a.cfg.BaseURL,
		Timeout:         a.cfg.Timeout,
		FollowRedirects: a.cfg.FollowRedirects,
		MaxRedirects:    a.cfg.MaxRedirects,
		ValidateSSL:     a.cfg.ValidateSSL,
		Proxy:           a.cfg.Proxy,
		Headers:         a.cfg.Headers,
		RateLimit:       a.cfg.RateLimit,
		Parallel:        a.cfg.Parallel,
		Concurrency:     a.cfg.Concurrency,
		Bail:            a.cfg.Bail,
	}
}
