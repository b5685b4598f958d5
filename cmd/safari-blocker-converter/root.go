package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/bnema/safari-blocker-converter/internal/config"
	"github.com/bnema/safari-blocker-converter/internal/logging"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// errStrict is returned by convert --strict when a list failed or a
// category went over the rule limit
var errStrict = errors.New("conversion finished with failures")

type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer

	cfgFile  string
	logLevel string

	loader *config.Loader
	cfg    models.Config
	logger zerolog.Logger
}

func newRootCmd(fs afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	a := &app{fs: fs, stdout: stdout, stderr: stderr, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "safari-blocker-converter",
		Short: "Convert AdBlock filter lists to Safari content blockers",
		Long: `A tool that converts AdBlock Plus, uBlock Origin and AdGuard filter lists
to WebKit content blocker JSON, one file per category, plus a combined
advanced blocking file for script and CSS injection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default: "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")

	root.AddCommand(
		newConvertCmd(a),
		newCheckCmd(a),
		newListCmd(a),
		newInitCmd(a),
		newSchemaCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger. Flags given in
// bind are mapped to config keys before loading.
func (a *app) setup(cmd *cobra.Command, bind map[string]string) error {
	a.loader = config.NewLoader(a.cfgFile)
	a.loader.SetFs(a.fs)

	if err := a.loader.BindFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	for key, name := range bind {
		if err := a.loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}

	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log, a.stderr)
	if file := a.loader.ConfigFile(); file != "" {
		a.logger.Debug().Str("file", file).Msg("config loaded")
	}
	return nil
}

// newLogger builds the logger from a validated log config
func newLogger(cfg models.LogConfig, out io.Writer) zerolog.Logger {
	lc := logging.DefaultConfig()
	lc.Out = out
	if level, err := logging.ParseLevel(cfg.Level); err == nil {
		lc.Level = level
	}
	if format, err := logging.ParseFormat(cfg.Format); err == nil {
		lc.Format = format
	}
	return logging.New(lc)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
