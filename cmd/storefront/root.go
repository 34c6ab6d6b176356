package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/currency"

	"github.com/dmitrymomot/storefront"
)

type app struct {
	client *storefront.Client
	money  currency.Unit

	configPath string
	baseURL    string
	statePath  string
	redisURL   string
	logLevel   string
	unit       string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse, shop and administer a storefront from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.client == nil {
				return nil
			}
			return a.client.Close()
		},
	}

	root.SetOut(os.Stdout)

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", defaultPath("storefront.yaml"), "YAML profile")
	f.StringVar(&a.baseURL, "url", "", "API base URL")
	f.StringVar(&a.statePath, "state", defaultPath("state.json"), "state file for cookies, session and cart")
	f.StringVar(&a.redisURL, "redis", "", "Redis URL for shared state, overrides --state")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.unit, "currency", "USD", "ISO 4217 code used to print prices")

	root.AddCommand(
		a.registerCmd(),
		a.verifyCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.productsCmd(),
		a.productCmd(),
		a.cartCmd(),
		a.checkoutCmd(),
		a.ordersCmd(),
		a.usersCmd(),
		a.userCmd(),
	)
	return root
}

// open builds the client. Flags override the profile, which overrides the
// environment.
func (a *app) open(cmd *cobra.Command) error {
	unit, err := currency.ParseISO(a.unit)
	if err != nil {
		return err
	}
	a.money = unit

	cfg, err := storefront.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("state") || cfg.StatePath == "" {
		cfg.StatePath = a.statePath
	}
	if flags.Changed("redis") {
		cfg.RedisURL = a.redisURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	// Quiet by default; "info" here means nobody chose a level.
	if !flags.Changed("log-level") && os.Getenv("LOG_LEVEL") == "" && cfg.Log.Level == "info" {
		cfg.Log.Level = "error"
	}
	cfg.Log.Format = "text"

	a.client, err = storefront.NewFromConfig(cmd.Context(), cfg)
	return err
}

func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "storefront", name)
}
