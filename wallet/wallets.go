package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Wallets is a file backed collection of wallets keyed by address.
type Wallets struct {
	Wallets map[string]*Wallet

	path string
}

// walletFile is the on-disk form; only private keys are stored, everything
// else is derived.
type walletFile struct {
	Keys [][]byte `cbor:"1,keyasint"`
}

// CreateWallets loads the wallet file at path, starting empty when it does
// not exist yet.
func CreateWallets(path string) (*Wallets, error) {
	wallets := &Wallets{
		Wallets: make(map[string]*Wallet),
		path:    path,
	}

	err := wallets.LoadFile()
	if errors.Is(err, fs.ErrNotExist) {
		return wallets, nil
	}
	return wallets, err
}

func (ws *Wallets) AddWallet() (string, error) {
	wallet, err := MakeWallet()
	if err != nil {
		return "", err
	}
	address := wallet.Address()

	ws.Wallets[address] = wallet

	return address, nil
}

// GetAllAddresses returns the addresses in lexical order.
func (ws *Wallets) GetAllAddresses() []string {
	addresses := make([]string, 0, len(ws.Wallets))

	for address := range ws.Wallets {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	return addresses
}

func (ws *Wallets) GetWallet(address string) (*Wallet, error) {
	wallet, ok := ws.Wallets[address]
	if !ok {
		return nil, fmt.Errorf("no wallet for address %s", address)
	}
	return wallet, nil
}

func (ws *Wallets) LoadFile() error {
	content, err := os.ReadFile(ws.path)
	if err != nil {
		return err
	}

	var file walletFile
	if err := cbor.Unmarshal(content, &file); err != nil {
		return fmt.Errorf("decode wallet file %s: %w", ws.path, err)
	}

	for _, key := range file.Keys {
		wallet := FromPrivateKey(key)
		ws.Wallets[wallet.Address()] = wallet
	}

	return nil
}

func (ws *Wallets) SaveFile() error {
	var file walletFile
	for _, address := range ws.GetAllAddresses() {
		file.Keys = append(file.Keys, ws.Wallets[address].PrivateKey.Serialize())
	}

	content, err := cbor.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode wallet file: %w", err)
	}

	return os.WriteFile(ws.path, content, 0600)
}
