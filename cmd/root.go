package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bnema/aconomy-watch/internal/adapters/config"
)

const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagLogFile   = "log-file"
)

func Execute(ctx context.Context) error {
	root, a := newRootCmd()
	defer a.closeLogs()
	return root.ExecuteContext(ctx)
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "aw",
		Short:         "aconomy watch (aw): follow a running aconomy simulation",
		Long:          "aw connects to a running aconomy simulation, streams every agent turn as it happens and keeps an archive of past sessions for replay.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString(flagConfig)
			if err != nil {
				return err
			}

			cfg, err := config.Load(v, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if err := a.initLogger(cfg.Log, cmd.ErrOrStderr()); err != nil {
				return err
			}

			log.Debug().Str("config", cfg.Path).Msg("loaded configuration")
			return a.wire(cfg, v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "config file (default ~/.aconomy/config.toml)")
	flags.String(flagLogLevel, "", "log level: debug, info, warn, error")
	flags.String(flagLogFormat, "", "log format: text or json")
	flags.String(flagLogFile, "", "also write logs to this file")

	mustBindFlag(v, config.KeyLogLevel, flags.Lookup(flagLogLevel))
	mustBindFlag(v, config.KeyLogFormat, flags.Lookup(flagLogFormat))
	mustBindFlag(v, config.KeyLogFile, flags.Lookup(flagLogFile))

	rootCmd.AddCommand(
		newVersionCmd(),
		newWatchCmd(a),
		newTailCmd(a),
		newKeyCmd(a),
		newConfigCmd(a),
		newSessionsCmd(a),
		newReplayCmd(a),
	)

	return rootCmd, a
}

// mustBindFlag panics on a nil flag, which only happens when a flag name is misspelled.
func mustBindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// initLogger configures the global zerolog logger. console receives human or JSON
// output; when logCfg.File is set the same events are appended to a rotating file.
func (a *app) initLogger(logCfg config.LogConfig, console io.Writer) error {
	if logCfg.Level == "" {
		logCfg.Level = zerolog.LevelInfoValue
	}
	level, err := zerolog.ParseLevel(logCfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", logCfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if console != nil {
		if logCfg.Format == config.FormatText {
			writers = append(writers, zerolog.ConsoleWriter{Out: console})
		} else {
			writers = append(writers, console)
		}
	}
	if logCfg.File != "" {
		file, err := a.logs.open(logCfg.File)
		if err != nil {
			return err
		}
		writers = append(writers, zerolog.ConsoleWriter{NoColor: true, Out: file})
	} else if err := a.logs.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	switch len(writers) {
	case 0:
		log.Logger = zerolog.Nop()
	case 1:
		log.Logger = log.Output(writers[0])
	default:
		log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
	}
	return nil
}

// closeLogs detaches the global logger from the log file and closes it.
func (a *app) closeLogs() {
	if a.logs.file == nil {
		return
	}
	log.Logger = zerolog.Nop()
	_ = a.logs.Close()
}

// logSink owns the rotating log file. Reconfiguring the logger with the same path keeps
// the open handle.
type logSink struct {
	file *lumberjack.Logger
}

func (s *logSink) open(path string) (*lumberjack.Logger, error) {
	if s.file != nil && s.file.Filename == path {
		return s.file, nil
	}
	if err := s.Close(); err != nil {
		return nil, fmt.Errorf("close log file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	s.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	return s.file, nil
}

func (s *logSink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
