package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/jessevdk/go-flags"

	"github.com/TualatinX/ledger-go/ledger"
	"github.com/TualatinX/ledger-go/store"
	"github.com/TualatinX/ledger-go/wallet"
)

// log is the command line's own logger; it is replaced in setupLogging.
var log = btclog.Disabled

// options are shared by every command.  Their defaults are applied by the
// parser.
type options struct {
	DataDir    string `short:"d" long:"datadir" description:"Directory holding the UTXO store" default:"./tmp/ledger"`
	WalletFile string `short:"w" long:"walletfile" description:"Path of the wallet file" default:"./tmp/wallets.dat"`
	DebugLevel string `long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}" default:"info"`
}

type CommandLine struct {
	opts options
	out  io.Writer
}

// NewCommandLine returns a command line printing its results to out.
func NewCommandLine(out io.Writer) *CommandLine {
	return &CommandLine{out: out}
}

func (cli *CommandLine) parser() *flags.Parser {
	parser := flags.NewParser(&cli.opts, flags.Default)

	commands := []struct {
		name, short, long string
		data              interface{}
	}{
		{"createwallet", "Creates a new wallet",
			"Creates a new key pair and stores it in the wallet file.",
			&createWalletCmd{cli: cli}},
		{"listaddresses", "Lists the addresses in the wallet file", "",
			&listAddressesCmd{cli: cli}},
		{"genesis", "Creates the ledger",
			"Creates the UTXO store holding a single output paying ADDRESS.",
			&genesisCmd{cli: cli}},
		{"getbalance", "Gets the balance of an address", "",
			&getBalanceCmd{cli: cli}},
		{"printpool", "Prints every unspent output", "",
			&printPoolCmd{cli: cli}},
		{"send", "Queues a payment for the next epoch",
			"Signs a transaction from a wallet address and appends it to the batch file.",
			&sendCmd{cli: cli}},
		{"epoch", "Processes the queued batch",
			"Admits a conflict-free subset of the batch file and commits it to the store.",
			&epochCmd{cli: cli}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(fmt.Sprintf("register command %s: %v", c.name, err))
		}
	}

	return parser
}

// Run parses args and executes the selected command.
func (cli *CommandLine) Run(args []string) error {
	_, err := cli.parser().ParseArgs(args)
	return err
}

func (cli *CommandLine) setupLogging() error {
	level, ok := btclog.LevelFromString(cli.opts.DebugLevel)
	if !ok {
		return fmt.Errorf("invalid debug level %q", cli.opts.DebugLevel)
	}

	backend := btclog.NewBackend(os.Stdout)
	loggers := map[string]btclog.Logger{
		"LEDG": backend.Logger("LEDG"),
		"STOR": backend.Logger("STOR"),
		"CMDL": backend.Logger("CMDL"),
	}
	for _, logger := range loggers {
		logger.SetLevel(level)
	}

	ledger.UseLogger(loggers["LEDG"])
	store.UseLogger(loggers["STOR"])
	log = loggers["CMDL"]

	return nil
}

func (cli *CommandLine) openStore() (*store.Store, error) {
	return store.Open(cli.opts.DataDir)
}

// openExistingStore opens the store, failing when genesis has not been run.
func (cli *CommandLine) openExistingStore() (*store.Store, error) {
	if !store.DBexists(cli.opts.DataDir) {
		return nil, store.ErrNotInitialized
	}
	return cli.openStore()
}

func (cli *CommandLine) wallets() (*wallet.Wallets, error) {
	return wallet.CreateWallets(cli.opts.WalletFile)
}

func (cli *CommandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

// IsHelp reports whether err is go-flags reporting that help was shown.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

func decodeAddress(address string) ([]byte, error) {
	pubKeyHash, err := wallet.DecodeAddress(strings.TrimSpace(address))
	if err != nil {
		return nil, fmt.Errorf("address %q: %w", address, err)
	}
	return pubKeyHash, nil
}
