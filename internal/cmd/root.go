// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"time"

	"github.com/aibor/containit/internal/config"
	"github.com/aibor/containit/supervisor"
	"github.com/aibor/containit/sysinit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const rootLong = `containit runs as PID 1 of a container.

It runs the init tasks found in the task directory one after the other in
lexical order of their names. If all succeed, it starts the service and
forwards signals to it until it exits. Orphaned processes are reaped all the
time. The exit code is the one of the first failed init task or the one of the
service.

If no service is given, the built-in launcher is started as service, see
"containit launch --help". A service named like a subcommand must follow "--",
e.g. "containit -- launch".

Defaults are read from ` + config.DefaultPath + ` and CONTAINIT_* environment
variables. Flags take precedence.`

type rootOptions struct {
	configPath   string
	taskDir      string
	taskTimeout  time.Duration
	user         string
	signals      []string
	processGroup bool
	grace        time.Duration
	env          map[string]string
	interfaces   []string
	debug        bool
	logFormat    string

	cfg *config.Config
}

func newRootCommand(stdio IO, environ []string, exitCode *int) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           name + " [flags] [--] [service [args...]]",
		Short:         "Init process for containers",
		Long:          rootLong,
		Version:       version(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd.Flags(), environ)
			if err != nil {
				return err
			}

			level, _ := cfg.LogLevel()
			setupLogging(stdio.Stderr, level, cfg.Logging.Format)

			opts.cfg = cfg

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			supCfg, err := opts.cfg.Supervisor()
			if err != nil {
				return err
			}

			path, serviceArgs, err := serviceCommand(args)
			if err != nil {
				return err
			}

			*exitCode = sysinit.Run(
				cmd.Context(),
				supervisor.New(supCfg),
				sysinit.ExitLogger(),
				setupFuncs(opts.cfg, path, serviceArgs)...,
			)

			return nil
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.SetIn(stdio.Stdin)
	cmd.SetOut(stdio.Stdout)
	cmd.SetErr(stdio.Stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ParseArgsError{msg: "flag parse", err: err}
	})

	// Everything after the service is passed to it.
	cmd.Flags().SetInterspersed(false)

	opts.addFlags(cmd)

	cmd.AddCommand(
		newLaunchCommand(environ),
		newIdentityCommand(),
	)

	return cmd
}

func (o *rootOptions) addFlags(cmd *cobra.Command) {
	persistent := cmd.PersistentFlags()

	persistent.StringVar(&o.configPath, "config", "",
		"config file (default "+config.DefaultPath+")")
	persistent.BoolVar(&o.debug, "debug", false,
		"enable debug output")
	persistent.StringVar(&o.logFormat, "log-format", config.FormatText,
		"log format, "+config.FormatText+" or "+config.FormatJSON)

	flags := cmd.Flags()

	flags.StringVar(&o.taskDir, "task-dir", config.DefaultTaskDir,
		"directory with init tasks")
	flags.DurationVar(&o.taskTimeout, "task-timeout", 0,
		"maximum run time of each init task, 0 for none")
	flags.StringVarP(&o.user, "user", "u", "",
		"user[:group] the service runs as")
	flags.StringSliceVar(&o.signals, "signal", nil,
		"signal forwarded to the service, may be repeated (default all common)")
	flags.BoolVar(&o.processGroup, "process-group", true,
		"run each child in its own process group and signal the whole group")
	flags.DurationVar(&o.grace, "grace", supervisor.DefaultShutdownGrace,
		"time remaining processes have to exit on shutdown")
	flags.StringToStringVar(&o.env, "env", nil,
		"environment variable KEY=VALUE set for tasks and the service, may be repeated")
	flags.StringSliceVar(&o.interfaces, "interface-up", nil,
		"network interface to bring up, may be repeated")
}

// config returns the configuration with changed flags applied on top.
func (o *rootOptions) config(flags *pflag.FlagSet, environ []string) (*config.Config, error) {
	cfg, err := config.Load(o.configPath, environ)
	if err != nil {
		return nil, err
	}

	if flags.Changed("task-dir") {
		cfg.TaskDir = o.taskDir
	}

	if flags.Changed("task-timeout") {
		cfg.TaskTimeout = o.taskTimeout
	}

	if flags.Changed("user") {
		cfg.User = o.user
	}

	if flags.Changed("signal") {
		cfg.Signals = o.signals
	}

	if flags.Changed("process-group") {
		cfg.ProcessGroup = o.processGroup
	}

	if flags.Changed("grace") {
		cfg.ShutdownGrace = o.grace
	}

	if flags.Changed("env") {
		if cfg.Env == nil {
			cfg.Env = map[string]string{}
		}

		maps.Copy(cfg.Env, o.env)
	}

	if flags.Changed("interface-up") {
		cfg.Interfaces = append(cfg.Interfaces, o.interfaces...)
	}

	if flags.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}

	if o.debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// serviceCommand returns the service program and its arguments. Without
// arguments, the built-in launcher is used.
func serviceCommand(args []string) (string, []string, error) {
	if len(args) > 0 {
		return args[0], args[1:], nil
	}

	self, err := os.Executable()
	if err != nil {
		return "", nil, fmt.Errorf("find own executable: %w", err)
	}

	slog.Debug("No service given, using launcher")

	return self, []string{launchCommandName}, nil
}

func setupFuncs(cfg *config.Config, path string, args []string) []sysinit.Func {
	funcs := []sysinit.Func{
		sysinit.WithEnv(cfg.Env),
	}

	for _, iface := range cfg.Interfaces {
		funcs = append(funcs, sysinit.WithInterfaceUp(iface))
	}

	return append(funcs,
		sysinit.WithInitTasks(cfg.TaskDir, sysinit.TaskOptions{
			Timeout: cfg.TaskTimeout,
		}),
		sysinit.WithService(path, args, sysinit.ServiceOptions{
			User:       cfg.ServiceUser(os.Getuid()),
			PasswdPath: cfg.PasswdFile,
			GroupPath:  cfg.GroupFile,
		}),
	)
}
