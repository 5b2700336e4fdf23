package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/fetch"
	"github.com/justenwalker/realmfetch/logging"
	"github.com/spf13/cobra"
)

var (
	getOutput string
	userAgent string
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get URL...",
	Short: "Fetch URLs and write their content",
	Long: `Fetches each URL in turn and writes the content to stdout, or to --output.
Credentials entered for a realm are reused for the following URLs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return runGet(ctx, args)
	},
}

func init() {
	RootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "write content to this file instead of stdout")
	getCmd.Flags().StringVar(&userAgent, "user-agent", "realmfetch", "User-Agent header")
}

func newFetcher(ctx context.Context) (*fetch.Fetcher, error) {
	resolver, err := settings.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	cache := auth.DefaultCache
	if settings.KeyByHost {
		cache = auth.NewRealmCache(settings.KeyFunc())
	}
	chain := auth.NewChain(auth.KeyringPrompt{Service: settings.Service})
	if !settings.NoPrompt {
		chain.Prompts = append(chain.Prompts, auth.NewTerminalPrompt())
	}
	opts := []fetch.Option{
		fetch.Resolver(resolver),
		fetch.Cache(cache),
		fetch.Prompt(chain),
		fetch.UserAgent(userAgent),
	}
	if settings.Verbose {
		l := logging.Zerolog{Logger: logger}
		chain.Logger = l
		opts = append(opts, fetch.Log(l))
	}
	return fetch.New(opts...), nil
}

func runGet(ctx context.Context, urls []string) error {
	f, err := newFetcher(ctx)
	if err != nil {
		return err
	}
	var out io.Writer = os.Stdout
	if getOutput != "" {
		file, err := os.Create(getOutput)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	for _, u := range urls {
		body, err := f.Open(ctx, u)
		if err != nil {
			return err
		}
		n, err := io.Copy(out, body)
		body.Close()
		if err != nil {
			return fmt.Errorf("write %s: %w", u, err)
		}
		logger.Info().Str("url", u).Int64("bytes", n).Msg("fetched")
	}
	return nil
}
