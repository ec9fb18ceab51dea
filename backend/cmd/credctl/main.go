package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common/api"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "credctl"

type app struct {
	configFile string
	debug      bool

	stdin  io.Reader
	stderr io.Writer
	cfg    *common.Config
	logger *slog.Logger

	newLedger func(a *app) (ledgerAPI, error)
	newIssuer func(a *app, ledger ledgerAPI) (issuerAPI, error)

	ledgerClient ledgerAPI
	issuerClient issuerAPI
	closers      []func()
}

func newApp() *app {
	return &app{
		stdin:     os.Stdin,
		stderr:    os.Stderr,
		newLedger: dialLedger,
		newIssuer: openIssuer,
	}
}

// setup loads the configuration and the logger. Results go to stdout, so
// logs are written to stderr.
func (a *app) setup() error {
	cfg, err := common.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logLevel, err := cfg.Logging.SlogLevel()
	if err != nil {
		return err
	}
	addSource := false
	if a.debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	a.logger = slog.New(
		slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	).With("component", programName)
	slog.SetDefault(a.logger)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		a.logger.Debug(fmt.Sprintf(format, v...))
	})); err != nil {
		a.logger.Warn("failed to set GOMAXPROCS", "error", err)
	}
	return nil
}

func (a *app) ledger() (ledgerAPI, error) {
	if a.ledgerClient == nil {
		client, err := a.newLedger(a)
		if err != nil {
			return nil, err
		}
		a.ledgerClient = client
		a.closers = append(a.closers, client.Close)
	}
	return a.ledgerClient, nil
}

func (a *app) issuer() (issuerAPI, error) {
	if a.issuerClient == nil {
		ledger, err := a.ledger()
		if err != nil {
			return nil, err
		}
		issuer, err := a.newIssuer(a, ledger)
		if err != nil {
			return nil, err
		}
		a.issuerClient = issuer
	}
	return a.issuerClient, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Issue, store and verify educational credentials on the ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.PersistentFlags().
		BoolVarP(&a.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&a.configFile, "config", "", "path to config file")

	rootCmd.AddCommand(
		assetCommand(a),
		credentialCommand(a),
		eventsCommand(a),
	)
	return rootCmd
}

func run(ctx context.Context, a *app, args []string, stdout io.Writer) int {
	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(a.stderr)
	defer a.close()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if writeErr := api.WriteError(stdout, errorCode(err), err.Error()); writeErr != nil {
			fmt.Fprintln(a.stderr, err)
		}
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, newApp(), os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}
