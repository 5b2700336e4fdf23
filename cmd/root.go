package cmd

import (
	"errors"

	"github.com/justenwalker/realmfetch/config"
	"github.com/justenwalker/realmfetch/fetch"
	"github.com/justenwalker/realmfetch/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	envFile    string
	settings   *config.Settings
	logger     zerolog.Logger
)

// RootCmd is the realmfetch command
var RootCmd = &cobra.Command{
	Use:           "realmfetch",
	Short:         "Fetch URLs behind HTTP Basic authentication and authenticating proxies",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		s, err := config.Load(viper.GetViper(), configFile)
		if err != nil {
			return err
		}
		settings = s
		logger = logging.New(s.JSONLog, s.Verbose)
		return nil
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVar(&envFile, "env-file", ".env", "file of environment variables to load")
	flags.StringP("pac", "p", "", "url or path of the proxy auto config (PAC) file")
	flags.String("proxy", "", "proxy url; overrides HTTP_PROXY and HTTPS_PROXY")
	flags.StringSlice("no-proxy", nil, "hosts which are never proxied")
	flags.StringP("service", "s", config.DefaultService, "keyring service name, used to distinguish between auth configurations")
	flags.Bool("key-by-host", false, "cache credentials per realm and host instead of per realm")
	flags.Bool("no-prompt", false, "never ask for credentials interactively")
	flags.BoolP("verbose", "v", false, "enable verbose logging")
	flags.Bool("json-log", false, "log in JSON")
	for _, name := range []string{"pac", "proxy", "no-proxy", "service", "key-by-host", "no-prompt", "verbose", "json-log"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	err := RootCmd.Execute()
	if err == nil {
		return 0
	}
	if errors.Is(err, fetch.ErrAuthCanceled) {
		logger.Warn().Err(err).Msg("canceled")
		return 2
	}
	if settings == nil {
		logger = logging.New(false, false)
	}
	logger.Error().Err(err).Msg("realmfetch failed")
	return 1
}
