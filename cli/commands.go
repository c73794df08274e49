package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/vrecan/death/v3"

	"github.com/TualatinX/ledger-go/ledger"
	"github.com/TualatinX/ledger-go/wallet"
)

type createWalletCmd struct {
	cli *CommandLine
}

// Execute creates a wallet in the wallet file.
func (c *createWalletCmd) Execute(_ []string) error {
	if err := c.cli.setupLogging(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.cli.opts.WalletFile), 0700); err != nil {
		return err
	}
	wallets, err := c.cli.wallets()
	if err != nil {
		return err
	}
	address, err := wallets.AddWallet()
	if err != nil {
		return err
	}
	if err := wallets.SaveFile(); err != nil {
		return err
	}

	c.cli.printf("New address is: %s\n", address)
	return nil
}

type listAddressesCmd struct {
	cli *CommandLine
}

// Execute lists all addresses in the wallet file.
func (c *listAddressesCmd) Execute(_ []string) error {
	if err := c.cli.setupLogging(); err != nil {
		return err
	}

	wallets, err := c.cli.wallets()
	if err != nil {
		return err
	}
	for _, address := range wallets.GetAllAddresses() {
		c.cli.printf("%s\n", address)
	}
	return nil
}

type genesisCmd struct {
	cli *CommandLine

	Address string `short:"a" long:"address" description:"Address receiving the funding output" required:"true"`
	Amount  int64  `long:"amount" description:"Value of the funding output" default:"1000000"`
}

// Execute creates the store with a single funding output.
func (c *genesisCmd) Execute(_ []string) error {
	if err := c.cli.setupLogging(); err != nil {
		return err
	}

	pubKeyHash, err := decodeAddress(c.Address)
	if err != nil {
		return err
	}
	if c.Amount <= 0 {
		return fmt.Errorf("funding amount must be positive, got %d", c.Amount)
	}

	funding, err := ledger.NewTransaction(nil, []ledger.TxOutput{
		{Value: ledger.Amount(c.Amount), Address: pubKeyHash},
	})
	if err != nil {
		return err
	}

	s, err := c.cli.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.InitLedger(funding); err != nil {
		return err
	}

	c.cli.printf("Created ledger funding %s with %d in %v\n", c.Address,
		c.Amount, funding.Hash())
	return nil
}

type getBalanceCmd struct {
	cli *CommandLine

	Address string `short:"a" long:"address" description:"Address to get the balance for" required:"true"`
}

// Execute prints the balance of an address in the committed pool.
func (c *getBalanceCmd) Execute(_ []string) error {
	if err := c.cli.setupLogging(); err != nil {
		return err
	}

	pubKeyHash, err := decodeAddress(c.Address)
	if err != nil {
		return err
	}

	s, err := c.cli.openExistingStore()
	if err != nil {
		return err
	}
	defer s.Close()

	pool, _, err := s.Load()
	if err != nil {
		return err
	}
	balance, err := pool.Balance(pubKeyHash)
	if err != nil {
		return err
	}

	c.cli.printf("Balance of %s: %d\n", c.Address, balance)
	return nil
}

type printPoolCmd struct {
	cli *CommandLine
}

// Execute prints every unspent output of the committed pool.
func (c *printPoolCmd) Execute(_ []string) error {
	if err := c.cli.setupLogging(); err != nil {
		return err
	}

	s, err := c.cli.openExistingStore()
	if err != nil {
		return err
	}
	defer s.Close()

	pool, epoch, err := s.Load()
	if err != nil {
		return err
	}

	c.cli.printf("Epoch %d, %d unspent outputs\n", epoch, pool.Len())
	for _, op := range pool.Outpoints() {
		out, _ := pool.Get(op)
		c.cli.printf("%v %d %s\n", op, out.Value, wallet.EncodeAddress(out.Address))
	}
	return nil
}

type sendCmd struct {
	cli *CommandLine

	From   string `long:"from" description:"Source wallet address" required:"true"`
	To     string `long:"to" description:"Destination address" required:"true"`
	Amount int64  `long:"amount" description:"Amount to send" required:"true"`
	Fee    int64  `long:"fee" description:"Fee left to the ledger" default:"0"`
	Batch  string `short:"b" long:"batch" description:"Batch file to append to" default:"./tmp/batch.json"`
}

// Execute signs a payment and queues it in the batch file.  Outputs already
// spent by queued transactions are not reused.
func (c *sendCmd) Execute(_ []string) error {
	if err := c.cli.setupLogging(); err != nil {
		return err
	}

	if c.Amount <= 0 || c.Fee < 0 {
		return fmt.Errorf("invalid amount %d or fee %d", c.Amount, c.Fee)
	}
	need, err := ledger.Amount(c.Amount).Add(ledger.Amount(c.Fee))
	if err != nil {
		return err
	}

	wallets, err := c.cli.wallets()
	if err != nil {
		return err
	}
	from, err := wallets.GetWallet(c.From)
	if err != nil {
		return err
	}
	to, err := decodeAddress(c.To)
	if err != nil {
		return err
	}

	s, err := c.cli.openExistingStore()
	if err != nil {
		return err
	}
	pool, _, err := s.Load()
	s.Close()
	if err != nil {
		return err
	}

	queued, _, err := readBatch(c.Batch)
	if err != nil {
		return err
	}
	for _, tx := range queued {
		for _, in := range tx.Inputs() {
			pool.Remove(in.PreviousOutPoint)
		}
	}

	builder := ledger.NewTxBuilder()
	var funded ledger.Amount
	for _, op := range pool.Outpoints() {
		if funded >= need {
			break
		}
		out, _ := pool.Get(op)
		if !bytes.Equal(out.Address, from.PubKeyHash()) || out.Value <= 0 {
			continue
		}
		builder.AddInput(op, from)
		if funded, err = funded.Add(out.Value); err != nil {
			return err
		}
	}
	if funded < need {
		return fmt.Errorf("not enough funds: %s has %d spendable, needs %d",
			c.From, funded, need)
	}

	builder.AddOutput(ledger.Amount(c.Amount), to)
	if change := funded - need; change > 0 {
		builder.AddOutput(change, from.PubKeyHash())
	}
	tx, err := builder.Build()
	if err != nil {
		return err
	}

	if err := appendBatch(c.Batch, tx); err != nil {
		return err
	}

	c.cli.printf("Queued %v (%d queued)\n", tx.Hash(), len(queued)+1)
	return nil
}

type epochCmd struct {
	cli *CommandLine

	Batch    string `short:"b" long:"batch" description:"Batch file to process" default:"./tmp/batch.json"`
	Strategy string `long:"strategy" description:"Admission order {maxfee, firstcome}" default:"maxfee"`
	Workers  int    `long:"workers" description:"Parallel validation workers, 0 for one per CPU" default:"0"`
}

// Execute runs one epoch over the batch file and commits the result.  An
// interrupt before the commit leaves the store as it was.
func (c *epochCmd) Execute(_ []string) error {
	if err := c.cli.setupLogging(); err != nil {
		return err
	}

	strategy, err := ledger.StrategyByName(c.Strategy)
	if err != nil {
		return err
	}
	candidates, malformed, err := readBatch(c.Batch)
	if err != nil {
		return err
	}

	s, err := c.cli.openExistingStore()
	if err != nil {
		return err
	}
	defer s.Close()

	pool, epoch, err := s.Load()
	if err != nil {
		return err
	}

	h := ledger.New(pool, &ledger.Config{
		Strategy:  strategy,
		Workers:   c.Workers,
		Persister: s,
		Epoch:     epoch,
	})

	ctx, cancel := context.WithCancel(context.Background())

	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	go d.WaitForDeathWithFunc(func() {
		if ctx.Err() == nil {
			log.Warnf("Interrupted, abandoning epoch %d", epoch+1)
		}
		cancel()
	})
	defer func() {
		cancel()
		d.FallOnSword()
	}()

	result, err := h.HandleEpochContext(ctx, candidates)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("epoch %d not committed: interrupted", epoch+1)
		}
		return err
	}

	for _, tx := range result.Accepted {
		c.cli.printf("admitted %v\n", tx.Hash())
	}
	for _, rejection := range result.Rejected {
		if rejection.Tx == nil {
			c.cli.printf("rejected <nil>: %v\n", rejection.Err)
			continue
		}
		c.cli.printf("rejected %v: %v\n", rejection.Tx.Hash(), rejection.Err)
	}
	for _, entry := range malformed {
		c.cli.printf("rejected %v\n", entry)
	}
	c.cli.printf("Epoch %d committed: %d admitted, %d rejected, fees %d\n",
		h.Epoch(), len(result.Accepted), len(result.Rejected)+len(malformed),
		result.Fees)

	return writeBatch(c.Batch, nil)
}
