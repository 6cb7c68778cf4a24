package docstore

import "fmt"

// MaxBatchWrites is the largest number of writes one batch may carry.
const MaxBatchWrites = 500

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type writeOp struct {
	kind      opKind
	path      string
	fields    Fields
	merge     bool
	mustExist bool
}

// Batch collects writes that are committed together as one call. It is not a
// transaction: there are no reads and no preconditions beyond MustExist.
type Batch struct {
	ops []writeOp
}

// Len returns the number of queued writes
func (b *Batch) Len() int {
	return len(b.ops)
}

// Set queues a set, see Store.Set
func (b *Batch) Set(path string, fields Fields, merge bool) error {
	return b.add(writeOp{kind: opSet, path: path, fields: fields, merge: merge})
}

// Update queues a merge update that stamps updatedAt, see Store.Update
func (b *Batch) Update(path string, fields Fields, opts ...WriteOption) error {
	o := applyWriteOptions(opts)
	return b.add(writeOp{kind: opUpdate, path: path, fields: fields, merge: true, mustExist: o.mustExist})
}

// Delete queues a document delete
func (b *Batch) Delete(path string) error {
	return b.add(writeOp{kind: opDelete, path: path})
}

func (b *Batch) add(op writeOp) error {
	if len(b.ops) >= MaxBatchWrites {
		return fmt.Errorf("%w (%d)", ErrBatchFull, MaxBatchWrites)
	}
	if _, _, err := SplitPath(op.path); err != nil {
		return err
	}
	b.ops = append(b.ops, op)
	return nil
}
