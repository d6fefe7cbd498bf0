package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ensigniasec/tiered-sto/internal/config"
	"github.com/ensigniasec/tiered-sto/internal/metrics"
	"github.com/ensigniasec/tiered-sto/internal/offering"
	"github.com/ensigniasec/tiered-sto/internal/sdk"
	"github.com/ensigniasec/tiered-sto/internal/storage"
	"github.com/ensigniasec/tiered-sto/internal/tui"
	"github.com/ensigniasec/tiered-sto/internal/uistate"
	"github.com/ensigniasec/tiered-sto/internal/validate"
)

// keyAllOfferings holds the per-symbol offerings fetched by the offerings command.
const keyAllOfferings = "offeringsBySymbol"

//nolint:gochecknoglobals // Cobra requires package-level vars for flag bindings in current structure.
var (
	// Used for flags.
	sessionFile = storage.DefaultPath
	configFile  string
	metricsFile string
	sdkURL      string
	walletFlag  string
	network     int
	verbose     bool
	jsonOutput  bool
	offline     bool
	formFile    string
	dryRun      bool

	rootCmd = &cobra.Command{
		Use:   "tiered-sto",
		Short: "Inspect and launch Tiered security token offerings.",
		Long: `This tool lists the security tokens owned by your wallet, shows their Tiered STOs ` +
			`with per-tier sales, and launches new Tiered STOs through the offering SDK service. ` +
			`Run without a subcommand for the interactive console.`,
		Run: runTUI,
	}
)

//nolint:gochecknoinits // Cobra command wiring performed in init in current structure.
func init() {
	// Route logs to stderr to avoid polluting stdout, especially for --json output.
	logrus.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format instead of rich text")
	rootCmd.PersistentFlags().
		BoolVar(&offline, "offline", false, "Use built-in demo data instead of the offering SDK service")
	rootCmd.PersistentFlags().StringVar(&sdkURL, "sdk-url", "", "Offering SDK service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&walletFlag, "wallet", "", "Wallet address to act as (overrides the saved wallet)")
	rootCmd.PersistentFlags().IntVar(&network, "network", 0, "Network id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", sessionFile, "Path of the session file")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path of the config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().
		StringVar(&metricsFile, "metrics-file", "", "Optional: write Prometheus metrics of this run to a textfile")

	launchCmd.Flags().StringVarP(&formFile, "file", "f", "", "YAML launch form")
	_ = launchCmd.MarkFlagRequired("file")
	launchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the form and print the launch parameters without launching")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(offeringsCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(walletCmd)

	walletCmd.AddCommand(walletSetCmd)
	walletCmd.AddCommand(walletShowCmd)
	walletCmd.AddCommand(walletClearCmd)

	// Built-in version flag: set version string and a custom template.
	rootCmd.Version = sdk.BuildVersion
	rootCmd.Annotations = map[string]string{"commit": sdk.BuildCommit, "date": sdk.BuildDate}
	rootCmd.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logrus.Fatal(err)
	}
}

func main() {
	Execute()
}

// env is what every command needs, resolved from flags, config and session.
type env struct {
	cfg      *config.Config
	st       *storage.Storage
	wallet   string
	network  int
	session  sdk.Session
	registry *prometheus.Registry
	store    *uistate.Store
}

// setup configures logging and loads config and session. interactive lowers logging
// like --json does.
func setup(interactive bool) *env {
	if (jsonOutput || interactive) && !verbose {
		logrus.SetLevel(logrus.WarnLevel)
	} else if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		logrus.Fatal(err)
	}
	st, err := storage.NewOrExistingStorage(sessionFile)
	if err != nil {
		logrus.Fatalf("Unable to open or create session: %v", err)
	}

	e := &env{cfg: cfg, st: st, wallet: st.Data.WalletAddress, network: cfg.NetworkID}
	if walletFlag != "" {
		if !validate.IsAddress(walletFlag) {
			logrus.Fatalf("Invalid wallet address: %q", walletFlag)
		}
		e.wallet = walletFlag
	}
	if network != 0 {
		e.network = network
	}
	e.session = sdk.Session{WalletAddress: e.wallet, NetworkID: e.network, ClientUUID: st.Data.ClientUUID}

	e.registry = prometheus.NewRegistry()
	e.store = uistate.NewStore(nil, uistate.WithRecorder(metrics.NewRecorder(e.registry)))
	return e
}

// client returns the SDK client for this run. The service must be reachable unless
// --offline is set.
func (e *env) client() sdk.Client {
	if offline {
		return sdk.NewDemo(e.wallet)
	}
	base := e.cfg.SDKURL
	if sdkURL != "" {
		base = sdkURL
	}
	c, err := sdk.NewHTTPClient(
		sdk.WithBaseURL(base),
		sdk.WithTimeout(e.cfg.RequestTimeout),
		sdk.WithDefaultSession(e.session),
	)
	if errors.Is(err, sdk.ErrOffline) {
		logrus.Fatal("Offering SDK service is unreachable. Check --sdk-url or use --offline for demo data.")
	}
	if err != nil {
		logrus.Fatal(err)
	}
	return c
}

func (e *env) context(cmd *cobra.Command) context.Context {
	return sdk.WithSession(cmd.Context(), e.session)
}

// finish writes the metrics textfile when requested.
func (e *env) finish() {
	if metricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(metricsFile, e.registry); err != nil {
		logrus.Warnf("unable to write metrics: %v", err)
	}
}

// mustRun runs op through the store and exits when it failed.
func (e *env) mustRun(ctx context.Context, op uistate.Operation, msg string) uistate.State {
	s := uistate.Run(ctx, e.store, op, msg)
	if s.HasError() {
		e.finish()
		logrus.Fatal(s.Error)
	}
	return s
}

func (e *env) loadTokens(ctx context.Context, c sdk.Client) []sdk.Token {
	s := e.mustRun(ctx, func(ctx context.Context) (uistate.Payload, error) {
		tokens, err := c.Tokens(ctx, e.wallet)
		if err != nil {
			return nil, err
		}
		return uistate.Payload{uistate.KeyTokens: tokens}, nil
	}, "Loading tokens")
	return uistate.FieldOr[[]sdk.Token](s, uistate.KeyTokens, nil)
}

func runTUI(cmd *cobra.Command, _ []string) {
	if jsonOutput {
		logrus.Fatal("Cannot use --json with the interactive console")
	}
	e := setup(true)
	defer e.finish()

	opts := tui.Options{
		Client:        e.client(),
		Store:         e.store,
		Wallet:        e.wallet,
		NetworkID:     e.network,
		ClientUUID:    e.session.ClientUUID,
		Offline:       offline,
		Defaults:      offering.Defaults{USDStablecoins: e.cfg.USDStablecoins(e.network)},
		Tiers:         e.cfg.DefaultTiers,
		InitialSymbol: e.st.Data.TokenSymbol,
		OnSelect: func(symbol string) {
			e.st.Data.TokenSymbol = symbol
			if err := e.st.Save(); err != nil {
				logrus.Debugf("unable to save session: %v", err)
			}
		},
		OnLaunch: func(r sdk.LaunchReceipt) {
			if err := e.st.RecordLaunch(r.Symbol, r.Address, time.Now()); err != nil {
				logrus.Debugf("unable to record launch: %v", err)
			}
		},
	}
	if err := tui.Run(e.context(cmd), opts); err != nil {
		logrus.Fatalf("TUI mode failed: %v", err)
	}
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive console (default)",
	Run:   runTUI,
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the security tokens owned by the wallet",
	Run: func(cmd *cobra.Command, args []string) {
		e := setup(false)
		defer e.finish()
		tokens := e.loadTokens(e.context(cmd), e.client())
		printTokens(os.Stdout, tokens, jsonOutput)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var offeringsCmd = &cobra.Command{
	Use:   "offerings [SYMBOL...]",
	Short: "Show the Tiered STOs of tokens. [Defaults to every owned token]",
	Long:  "Show the Tiered STOs of the given tokens with their tiers. If no symbols are given, every token owned by the wallet is shown.",
	Run: func(cmd *cobra.Command, args []string) {
		e := setup(false)
		defer e.finish()
		ctx := e.context(cmd)
		c := e.client()

		symbols := args
		if len(symbols) == 0 {
			for _, t := range e.loadTokens(ctx, c) {
				symbols = append(symbols, t.Symbol)
			}
		}
		s := e.mustRun(ctx, func(ctx context.Context) (uistate.Payload, error) {
			all, err := sdk.AllOfferings(ctx, c, symbols)
			if err != nil {
				return nil, err
			}
			return uistate.Payload{keyAllOfferings: all}, nil
		}, "Loading offerings")
		all := uistate.FieldOr[map[string][]offering.Offering](s, keyAllOfferings, nil)
		printOfferings(os.Stdout, symbols, all, time.Now(), jsonOutput)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var launchCmd = &cobra.Command{
	Use:   "launch SYMBOL --file FORM",
	Short: "Launch a Tiered STO from a YAML launch form",
	Long: "Launch a Tiered STO for the token SYMBOL. The form uses the same fields as the interactive " +
		"launch form; both wallets default to the connected wallet.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := setup(false)
		defer e.finish()
		symbol := args[0]

		f, err := offering.LoadForm(formFile)
		if err != nil {
			logrus.Fatal(err)
		}
		if f.RaisedFundsWallet == "" {
			f.RaisedFundsWallet = e.wallet
		}
		if f.UnsoldTokensWallet == "" {
			f.UnsoldTokensWallet = e.wallet
		}
		params, err := f.Build(offering.Defaults{USDStablecoins: e.cfg.USDStablecoins(e.network)})
		if err != nil {
			printFieldErrors(os.Stderr, err)
			logrus.Fatal("Launch form is invalid")
		}
		if dryRun {
			printParams(os.Stdout, symbol, params, jsonOutput)
			return
		}

		c := e.client()
		s := e.mustRun(e.context(cmd), func(ctx context.Context) (uistate.Payload, error) {
			receipt, err := c.LaunchTieredSTO(ctx, symbol, params)
			if err != nil {
				return nil, err
			}
			return uistate.Payload{uistate.KeyLastLaunch: receipt}, nil
		}, "Launching Tiered STO")
		receipt, _ := uistate.Field[sdk.LaunchReceipt](s, uistate.KeyLastLaunch)
		if err := e.st.RecordLaunch(receipt.Symbol, receipt.Address, time.Now()); err != nil {
			logrus.Warnf("unable to record launch: %v", err)
		}
		printReceipt(os.Stdout, receipt, jsonOutput)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the saved wallet address",
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var walletSetCmd = &cobra.Command{
	Use:   "set [ADDRESS]",
	Short: "Save the wallet address used by default",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := storage.NewOrExistingStorage(sessionFile)
		if err != nil {
			logrus.Fatal(err)
		}
		if !validate.IsAddress(args[0]) {
			logrus.Fatalf("Invalid wallet address: %q. Expected a 0x-prefixed 20 byte hex address.", args[0])
		}
		s.Data.WalletAddress = validate.ChecksumAddress(args[0])
		s.Data.TokenSymbol = ""
		if err := s.Save(); err != nil {
			logrus.Fatal(err)
		}
		fmt.Fprintf(os.Stdout, "Wallet set to %s\n", s.Data.WalletAddress)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var walletClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the saved wallet address",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := storage.NewOrExistingStorage(sessionFile)
		if err != nil {
			logrus.Fatal(err)
		}
		s.Data.WalletAddress = ""
		s.Data.TokenSymbol = ""
		if err := s.Save(); err != nil {
			logrus.Fatal(err)
		}
		fmt.Fprintln(os.Stdout, "Wallet cleared")
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved wallet address (if any)",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := storage.NewOrExistingStorage(sessionFile)
		if err != nil {
			logrus.Fatal(err)
		}
		if s.Data.WalletAddress == "" {
			fmt.Fprintln(os.Stdout, "No wallet set")
			return
		}
		fmt.Fprintf(os.Stdout, "%s\n", validate.ChecksumAddress(s.Data.WalletAddress))
	},
}
