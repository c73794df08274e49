package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	jsoniter "github.com/json-iterator/go"

	"github.com/TualatinX/ledger-go/ledger"
	"github.com/TualatinX/ledger-go/wallet"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonTx is the batch file form of a transaction.  Hashes are in the usual
// byte-reversed hex, signatures in hex and addresses in base58check.
type jsonTx struct {
	Inputs  []jsonInput  `json:"inputs"`
	Outputs []jsonOutput `json:"outputs"`
}

type jsonInput struct {
	TxID      string `json:"txid"`
	Vout      uint32 `json:"vout"`
	Signature string `json:"signature"`
}

type jsonOutput struct {
	Value   int64  `json:"value"`
	Address string `json:"address"`
}

func toJSONTx(tx *ledger.Transaction) jsonTx {
	var j jsonTx
	for _, in := range tx.Inputs() {
		j.Inputs = append(j.Inputs, jsonInput{
			TxID:      in.PreviousOutPoint.Hash.String(),
			Vout:      in.PreviousOutPoint.Index,
			Signature: hex.EncodeToString(in.Signature),
		})
	}
	for _, out := range tx.Outputs() {
		j.Outputs = append(j.Outputs, jsonOutput{
			Value:   int64(out.Value),
			Address: wallet.EncodeAddress(out.Address),
		})
	}
	return j
}

func fromJSONTx(j jsonTx) (*ledger.Transaction, error) {
	inputs := make([]ledger.TxInput, len(j.Inputs))
	for i, in := range j.Inputs {
		hash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		sig, err := hex.DecodeString(in.Signature)
		if err != nil {
			return nil, fmt.Errorf("input %d signature: %w", i, err)
		}
		inputs[i] = ledger.TxInput{
			PreviousOutPoint: ledger.NewOutpoint(*hash, in.Vout),
			Signature:        sig,
		}
	}

	outputs := make([]ledger.TxOutput, len(j.Outputs))
	for i, out := range j.Outputs {
		pubKeyHash, err := decodeAddress(out.Address)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = ledger.TxOutput{Value: ledger.Amount(out.Value), Address: pubKeyHash}
	}

	return ledger.NewTransaction(inputs, outputs)
}

// malformedEntry is a batch entry that does not decode to a transaction.
type malformedEntry struct {
	index int
	err   error
}

func (m malformedEntry) Error() string {
	return fmt.Sprintf("batch entry %d: %v", m.index, m.err)
}

// readBatch returns the transactions queued in path, in file order.  Entries
// that do not decode are returned separately and do not stop the rest of the
// batch.  A missing file is an empty batch.
func readBatch(path string) ([]*ledger.Transaction, []malformedEntry, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var queued []jsonTx
	if err := json.Unmarshal(content, &queued); err != nil {
		return nil, nil, fmt.Errorf("decode batch %s: %w", path, err)
	}

	txns := make([]*ledger.Transaction, 0, len(queued))
	var malformed []malformedEntry
	for i, j := range queued {
		tx, err := fromJSONTx(j)
		if err != nil {
			log.Warnf("Skipping batch %s entry %d: %v", path, i, err)
			malformed = append(malformed, malformedEntry{index: i, err: err})
			continue
		}
		txns = append(txns, tx)
	}
	return txns, malformed, nil
}

func writeBatch(path string, txns []*ledger.Transaction) error {
	queued := make([]jsonTx, 0, len(txns))
	for _, tx := range txns {
		queued = append(queued, toJSONTx(tx))
	}
	return writeEntries(path, queued)
}

// appendBatch queues tx at the end of path.  Existing entries are kept as
// they are, including ones that do not decode.
func appendBatch(path string, tx *ledger.Transaction) error {
	var queued []jsonTx
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(content, &queued); err != nil {
			return fmt.Errorf("decode batch %s: %w", path, err)
		}
	}

	return writeEntries(path, append(queued, toJSONTx(tx)))
}

func writeEntries(path string, queued []jsonTx) error {
	content, err := json.MarshalIndent(queued, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}
