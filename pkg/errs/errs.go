// Package errs defines loom's error taxonomy: fail-fast ProgrammingErrors,
// debug-assertable ContractViolations, and the ShardError a parallel run's
// Waiter surfaces. The join engine produces no error of its own — it only
// passes on a handler's error — and a missing entity is an ordinary "not in
// the intersection" outcome, not a fault.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel ProgrammingErrors. These indicate a caller wired the API
// incorrectly; they are never retried or swallowed internally.
var (
	// ErrMismatchedBatch is returned by ComponentCollection.Apply when the
	// batch's source brand doesn't match the collection applying it.
	ErrMismatchedBatch = errors.New("loom: batch was produced by a different collection")

	// ErrSchemeMismatch is returned when partitioned collections handed to
	// one parallel run disagree on shard count. The schemes themselves are
	// not compared: two different schemes with equal shard counts are
	// accepted.
	ErrSchemeMismatch = errors.New("loom: collections disagree on partitioning scheme")

	// ErrPartitionedRunSubset names the misuse of RunSubset against a
	// Partitioned collection. No function returns it: Partitioned collections
	// do not implement component.Source, so that call does not compile.
	ErrPartitionedRunSubset = errors.New("loom: run_subset is not valid on partitioned collections")
)

// Sentinel ContractViolations. These are debug-assertable misuse of a handle
// or change batch within a single handler invocation.
var (
	// ErrForeignHandler names the use of a handle outside the run that
	// issued it, or against a collection it wasn't bound to. No handle checks
	// for this misuse and no function returns this error.
	ErrForeignHandler = errors.New("loom: handle used outside its issuing run")

	// ErrDoubleUnbind is the value a handle panics with when its Unbind is
	// called a second time.
	ErrDoubleUnbind = errors.New("loom: entity unbound twice in one handler invocation")
)

// ShardError wraps the first failure observed in a parallel run, identifying
// which shard produced it. A Waiter.Wait surfaces exactly one ShardError even
// if multiple shards failed; the others are logged and discarded per the
// partial-progress policy in the specification.
type ShardError struct {
	Shard int
	Err   error
}

func (e *ShardError) Error() string {
	return fmt.Sprintf("loom: shard %d failed: %v", e.Shard, e.Err)
}

func (e *ShardError) Unwrap() error { return e.Err }
