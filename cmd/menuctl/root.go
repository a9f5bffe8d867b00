package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lifanwar/warung22/config"
	"github.com/lifanwar/warung22/internal/helper"
	"github.com/lifanwar/warung22/internal/service"
	"github.com/spf13/cobra"
)

var errNoAnswer = errors.New("backend returned no answer")

type rootOptions struct {
	backendURL string
	apiKey     string
	brand      string
	timeout    time.Duration
	logLevel   string
}

// newRootCmd builds the operator CLI. It talks to the backend the same
// way the bridge does, which makes it handy to check the API key and the
// menu cache without a paired phone.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "menuctl",
		Short:         "Operator tool for the menu backend API",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.backendURL, "backend", helper.GetEnv("BACKEND_URL", config.DefaultBackendURL), "backend base URL")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", helper.GetEnv("API_KEY", ""), "shared API key (X-API-Key)")
	root.PersistentFlags().StringVar(&opts.brand, "brand", helper.GetEnv("BRAND_NAME", config.DefaultBrandName), "brand banner for formatted answers")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "override request timeout (0 keeps the bridge defaults)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", helper.GetEnv("LOG_LEVEL", "warn"), "log level")

	root.AddCommand(
		newAskCmd(opts),
		newRefreshCmd(opts),
		newStatsCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func (o *rootOptions) client() (*service.BackendClient, error) {
	if strings.TrimSpace(o.apiKey) == "" {
		return nil, config.ErrMissingAPIKey
	}
	c := service.NewBackendClient(o.backendURL, o.apiKey, helper.NewLogger(o.logLevel, "console"))
	if o.timeout > 0 {
		c.AskTimeout = o.timeout
		c.RefreshTimeout = o.timeout
	}
	return c, nil
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the menu API a question, as .m does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			answer, ok := c.Ask(cmd.Context(), strings.Join(args, " "))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), service.MaintenanceText)
				return errNoAnswer
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.FormatAnswer(opts.brand, answer))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the answer without the brand banner")
	return cmd
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the backend menu cache, as .r does",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			result, ok := c.RefreshCache(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), service.RefreshFailedText)
				return errNoAnswer
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.FormatRefreshResult(result))
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show menu cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			stats, err := c.CacheStats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), health)
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
