package ledger

import (
	"fmt"
	"sort"
)

// UtxoView is read access to a set of unspent transaction outputs.
type UtxoView interface {
	// Contains reports whether the outpoint is spendable in this view.
	Contains(op Outpoint) bool

	// Get returns the output stored at op.
	Get(op Outpoint) (TxOutput, bool)
}

// UtxoSet maps outpoints to the outputs they identify.  Presence of an
// outpoint means it can be spent now.  UtxoSet is not safe for concurrent
// mutation; concurrent readers are fine once it is no longer written.
type UtxoSet struct {
	entries map[Outpoint]TxOutput
}

// NewUtxoSet returns an empty set.
func NewUtxoSet() *UtxoSet {
	return &UtxoSet{entries: make(map[Outpoint]TxOutput)}
}

// Clone returns a deep copy of the set.
func (s *UtxoSet) Clone() *UtxoSet {
	clone := &UtxoSet{entries: make(map[Outpoint]TxOutput, len(s.entries))}
	for op, out := range s.entries {
		clone.entries[op] = out.Clone()
	}
	return clone
}

func (s *UtxoSet) Contains(op Outpoint) bool {
	_, ok := s.entries[op]
	return ok
}

func (s *UtxoSet) Get(op Outpoint) (TxOutput, bool) {
	out, ok := s.entries[op]
	if !ok {
		return TxOutput{}, false
	}
	return out.Clone(), true
}

// Add stores out at op, replacing any previous entry.
func (s *UtxoSet) Add(op Outpoint, out TxOutput) {
	s.entries[op] = out.Clone()
}

// Remove deletes op.  Removing a missing outpoint has no effect.
func (s *UtxoSet) Remove(op Outpoint) {
	delete(s.entries, op)
}

// Len returns the number of unspent outputs.
func (s *UtxoSet) Len() int {
	return len(s.entries)
}

// Outpoints returns every outpoint in the set in ascending order.
func (s *UtxoSet) Outpoints() []Outpoint {
	ops := make([]Outpoint, 0, len(s.entries))
	for op := range s.entries {
		ops = append(ops, op)
	}
	sortOutpoints(ops)
	return ops
}

// AddTransactionOutputs stores every output of tx under (tx hash, index).
func (s *UtxoSet) AddTransactionOutputs(tx *Transaction) {
	hash := tx.Hash()
	for i, out := range tx.outputs {
		s.Add(NewOutpoint(hash, uint32(i)), out)
	}
}

// ApplyDiff removes every outpoint the diff spends and then adds every
// output it creates.
func (s *UtxoSet) ApplyDiff(diff *UtxoDiff) {
	for op := range diff.ToRemove {
		s.Remove(op)
	}
	for op, out := range diff.ToAdd {
		s.Add(op, out)
	}
}

// Balance sums the outputs locked to address.
func (s *UtxoSet) Balance(address []byte) (Amount, error) {
	var total Amount
	for _, out := range s.entries {
		if string(out.Address) != string(address) {
			continue
		}
		var err error
		if total, err = total.Add(out.Value); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// UtxoDiff is the net change an epoch makes to the pool it started from.
type UtxoDiff struct {
	ToAdd    map[Outpoint]TxOutput
	ToRemove map[Outpoint]struct{}
}

// NewUtxoDiff returns an empty diff.
func NewUtxoDiff() *UtxoDiff {
	return &UtxoDiff{
		ToAdd:    make(map[Outpoint]TxOutput),
		ToRemove: make(map[Outpoint]struct{}),
	}
}

// Added returns the created outpoints in ascending order.
func (d *UtxoDiff) Added() []Outpoint {
	ops := make([]Outpoint, 0, len(d.ToAdd))
	for op := range d.ToAdd {
		ops = append(ops, op)
	}
	sortOutpoints(ops)
	return ops
}

// Removed returns the spent outpoints in ascending order.
func (d *UtxoDiff) Removed() []Outpoint {
	ops := make([]Outpoint, 0, len(d.ToRemove))
	for op := range d.ToRemove {
		ops = append(ops, op)
	}
	sortOutpoints(ops)
	return ops
}

// IsEmpty reports whether the diff changes nothing.
func (d *UtxoDiff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

func sortOutpoints(ops []Outpoint) {
	sort.Slice(ops, func(i, j int) bool { return ops[i].Less(ops[j]) })
}

// utxoOverlay records spends and creations on top of a base view without
// touching it.  The base must not change while the overlay is in use.
type utxoOverlay struct {
	base UtxoView
	diff *UtxoDiff
}

func newUtxoOverlay(base UtxoView) *utxoOverlay {
	return &utxoOverlay{base: base, diff: NewUtxoDiff()}
}

func (v *utxoOverlay) Contains(op Outpoint) bool {
	if _, ok := v.diff.ToAdd[op]; ok {
		return true
	}
	if _, ok := v.diff.ToRemove[op]; ok {
		return false
	}
	return v.base.Contains(op)
}

func (v *utxoOverlay) Get(op Outpoint) (TxOutput, bool) {
	if out, ok := v.diff.ToAdd[op]; ok {
		return out.Clone(), true
	}
	if _, ok := v.diff.ToRemove[op]; ok {
		return TxOutput{}, false
	}
	return v.base.Get(op)
}

func (v *utxoOverlay) spend(op Outpoint) {
	delete(v.diff.ToAdd, op)
	if v.base.Contains(op) {
		v.diff.ToRemove[op] = struct{}{}
	}
}

// connectTransaction spends every input of tx and adds every output.  It
// refuses to overwrite an unspent output and in that case leaves the overlay
// unchanged.  The caller must have validated tx against this overlay.
func (v *utxoOverlay) connectTransaction(tx *Transaction) error {
	hash := tx.Hash()
	for i := range tx.outputs {
		op := NewOutpoint(hash, uint32(i))
		if v.Contains(op) {
			str := fmt.Sprintf("transaction %v would overwrite unspent output %v",
				hash, op)
			return ruleError(ErrOverwriteTx, str)
		}
	}

	for _, in := range tx.inputs {
		v.spend(in.PreviousOutPoint)
	}
	for i, out := range tx.outputs {
		v.diff.ToAdd[NewOutpoint(hash, uint32(i))] = out.Clone()
	}

	return nil
}
