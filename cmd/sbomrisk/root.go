package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/external-adapters/logging"
)

const (
	configName = ".sbomrisk"
	envPrefix  = "SBOMRISK"
)

// app carries per-invocation state shared by the subcommands
type app struct {
	v      *viper.Viper
	logger interfaces.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: &interfaces.NoOpLogger{},
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:   "sbomrisk",
		Short: "Supply chain risk analysis for CycloneDX and SPDX SBOMs",
		Long: `sbomrisk ingests CycloneDX and SPDX JSON SBOMs, resolves known vulnerabilities
and reports per-component risk scores, NTIA minimum elements compliance and
data quality findings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.initializeConfig(cmd); err != nil {
				return err
			}
			logger := logging.Init(a.stderr, a.v.GetString("log-level"), a.v.GetBool("no-color"))
			a.logger = logging.NewSlogLogger(logger)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is .sbomrisk.yaml in the working or home directory)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("no-color", false, "disable colored log output")

	root.AddCommand(
		newAnalyzeCmd(a),
		newExportCmd(a),
		newVerifyCmd(a),
		newVersionCmd(a),
	)
	return root
}

// initializeConfig layers flags over environment over config file
func (a *app) initializeConfig(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName(configName)
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	return bindFlags(a.v, cmd.Flags())
}

// bindFlags binds every flag of the command to its viper key
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}
