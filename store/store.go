package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/dgraph-io/badger"
	"github.com/fxamacker/cbor/v2"

	"github.com/TualatinX/ledger-go/ledger"
)

var (
	utxoPrefix   = []byte("utxo-")
	prefixLength = len(utxoPrefix)

	// epochKey holds the number of the last committed epoch.
	epochKey = []byte("epoch")

	outpointKeyLength = prefixLength + chainhash.HashSize + 4
)

var (
	// ErrExists is returned when initializing a store that already holds a
	// ledger.
	ErrExists = errors.New("ledger already exists")

	// ErrNotInitialized is returned when reading a store that was never
	// initialized.
	ErrNotInitialized = errors.New("no ledger found, initialize one first")

	// ErrEpochMismatch is returned when committing an epoch that does not
	// directly follow the last committed one.
	ErrEpochMismatch = errors.New("epoch does not follow the committed epoch")
)

// Store keeps the committed pool of unspent outputs in badger.  Every epoch
// is written in a single badger transaction, so a crash leaves either the
// previous or the new pool on disk.
type Store struct {
	mu sync.Mutex
	db *badger.DB
}

type storedOutput struct {
	_       struct{} `cbor:",toarray"`
	Value   int64
	Address []byte
}

// DBexists checks to see if a database was created at path.
func DBexists(path string) bool {
	if _, err := os.Stat(filepath.Join(path, "MANIFEST")); os.IsNotExist(err) {
		return false
	}
	return true
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})

	db, err := openDB(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func outpointKey(op ledger.Outpoint) []byte {
	key := make([]byte, outpointKeyLength)
	copy(key, utxoPrefix)
	copy(key[prefixLength:], op.Hash[:])
	binary.BigEndian.PutUint32(key[prefixLength+chainhash.HashSize:], op.Index)
	return key
}

func parseOutpointKey(key []byte) (ledger.Outpoint, error) {
	if len(key) != outpointKeyLength {
		return ledger.Outpoint{}, fmt.Errorf("bad outpoint key length %d", len(key))
	}
	var op ledger.Outpoint
	copy(op.Hash[:], key[prefixLength:prefixLength+chainhash.HashSize])
	op.Index = binary.BigEndian.Uint32(key[prefixLength+chainhash.HashSize:])
	return op, nil
}

func encodeEpoch(epoch uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], epoch)
	return b[:]
}

func readEpoch(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(epochKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, ErrNotInitialized
		}
		return 0, err
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read epoch: %w", err)
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("corrupt epoch record of %d bytes", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func writeDiff(txn *badger.Txn, diff *ledger.UtxoDiff) error {
	for _, op := range diff.Removed() {
		if err := txn.Delete(outpointKey(op)); err != nil {
			return err
		}
	}
	for _, op := range diff.Added() {
		out := diff.ToAdd[op]
		val, err := cbor.Marshal(storedOutput{Value: int64(out.Value), Address: out.Address})
		if err != nil {
			return fmt.Errorf("encode output %v: %w", op, err)
		}
		if err := txn.Set(outpointKey(op), val); err != nil {
			return err
		}
	}
	return nil
}

// InitLedger creates the ledger at epoch zero holding the outputs of the
// funding transaction.
func (s *Store) InitLedger(funding *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	diff := ledger.NewUtxoDiff()
	for i, out := range funding.Outputs() {
		diff.ToAdd[ledger.NewOutpoint(funding.Hash(), uint32(i))] = out
	}

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := readEpoch(txn)
		switch {
		case err == nil:
			return ErrExists
		case !errors.Is(err, ErrNotInitialized):
			return err
		}

		if err := writeDiff(txn, diff); err != nil {
			return err
		}
		return txn.Set(epochKey, encodeEpoch(0))
	})
}

// Commit writes diff as epoch, which must be the epoch following the
// committed one.  It satisfies ledger.Persister.
func (s *Store) Commit(epoch uint64, diff *ledger.UtxoDiff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		committed, err := readEpoch(txn)
		if err != nil {
			return err
		}
		if epoch != committed+1 {
			return fmt.Errorf("%w: got %d, committed %d", ErrEpochMismatch,
				epoch, committed)
		}

		if err := writeDiff(txn, diff); err != nil {
			return err
		}
		return txn.Set(epochKey, encodeEpoch(epoch))
	})
	if err != nil {
		return fmt.Errorf("commit epoch %d: %w", epoch, err)
	}

	log.Debugf("Stored epoch %d: %d spent, %d created", epoch,
		len(diff.ToRemove), len(diff.ToAdd))
	return nil
}

// Load reads the committed pool and its epoch.
func (s *Store) Load() (*ledger.UtxoSet, uint64, error) {
	pool := ledger.NewUtxoSet()
	var epoch uint64

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if epoch, err = readEpoch(txn); err != nil {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(utxoPrefix); it.ValidForPrefix(utxoPrefix); it.Next() {
			item := it.Item()
			op, err := parseOutpointKey(item.KeyCopy(nil))
			if err != nil {
				return err
			}

			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var stored storedOutput
			if err := cbor.Unmarshal(val, &stored); err != nil {
				return fmt.Errorf("decode output %v: %w", op, err)
			}

			pool.Add(op, ledger.TxOutput{
				Value:   ledger.Amount(stored.Value),
				Address: stored.Address,
			})
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return pool, epoch, nil
}

// Epoch returns the number of the last committed epoch.
func (s *Store) Epoch() (uint64, error) {
	var epoch uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		epoch, err = readEpoch(txn)
		return err
	})
	return epoch, err
}

// CountOutputs returns the number of unspent outputs stored.
func (s *Store) CountOutputs() (int, error) {
	counter := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(utxoPrefix); it.ValidForPrefix(utxoPrefix); it.Next() {
			counter++
		}
		return nil
	})

	return counter, err
}

func retry(dir string, originalOpts badger.Options) (*badger.DB, error) {
	lockPath := filepath.Join(dir, "LOCK")
	if err := os.Remove(lockPath); err != nil {
		return nil, fmt.Errorf(`removing "LOCK": %s`, err)
	}
	retryOpts := originalOpts
	retryOpts.Truncate = true
	db, err := badger.Open(retryOpts)
	return db, err
}

func openDB(dir string, opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err == nil {
		return db, nil
	}

	if strings.Contains(err.Error(), "LOCK") {
		db, retryErr := retry(dir, opts)
		if retryErr == nil {
			log.Infof("Database unlocked, value log truncated")
			return db, nil
		}
		log.Errorf("Could not unlock database: %v", retryErr)
	}
	return nil, err
}
