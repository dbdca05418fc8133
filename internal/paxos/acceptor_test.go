package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

func newTestAcceptor() *Acceptor {
	return NewAcceptor(clock.New(), heap.New(0))
}

func TestPrepareStrictlyGreaterPromises(t *testing.T) {
	a := newTestAcceptor()
	promised, _ := a.Prepare(5)
	assert.True(t, promised)

	promised, highest := a.Prepare(5)
	assert.False(t, promised, "equal proposal number must be rejected by prepare")
	assert.Equal(t, uint64(5), highest)

	promised, _ = a.Prepare(6)
	assert.True(t, promised)
}

func TestAcceptAllowsEqualToPromised(t *testing.T) {
	a := newTestAcceptor()
	a.Prepare(5)

	// accept accepts >=, the deliberate asymmetry with prepare's strict >.
	ok := a.Accept(5, transport.Job{JobID: 1, Priority: 3})
	assert.True(t, ok)
	assert.Equal(t, uint64(5), a.Snapshot().AcceptedProposal)
}

func TestAcceptRejectsBelowPromised(t *testing.T) {
	a := newTestAcceptor()
	a.Prepare(10)

	ok := a.Accept(4, transport.Job{JobID: 1, Priority: 3})
	assert.False(t, ok)
	assert.Nil(t, a.Snapshot().AcceptedValue)
}

// P1: a follower never accepts a value with a proposal number less than
// the last value it promised.
func TestNeverAcceptsBelowLastPromise(t *testing.T) {
	a := newTestAcceptor()
	a.Prepare(100)
	for n := uint64(0); n < 100; n++ {
		assert.False(t, a.Accept(n, transport.Job{JobID: n}))
	}
}

func TestCommitInsertsIntoLocalHeap(t *testing.T) {
	h := heap.New(0)
	a := NewAcceptor(clock.New(), h)

	a.Prepare(1)
	require.True(t, a.Accept(1, transport.Job{JobID: 42, Priority: 7}))

	a.Commit(1, true)

	node, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, uint64(42), node.JobID)
	assert.Nil(t, a.Snapshot().AcceptedValue)
}

func TestCommitFalseDiscardsAcceptedValue(t *testing.T) {
	h := heap.New(0)
	a := NewAcceptor(clock.New(), h)

	a.Prepare(1)
	require.True(t, a.Accept(1, transport.Job{JobID: 42, Priority: 7}))

	a.Commit(1, false)

	assert.Equal(t, 0, h.Len())
	assert.Nil(t, a.Snapshot().AcceptedValue)
}

func TestCommitIgnoresMismatchedProposal(t *testing.T) {
	h := heap.New(0)
	a := NewAcceptor(clock.New(), h)

	a.Prepare(1)
	require.True(t, a.Accept(1, transport.Job{JobID: 42, Priority: 7}))

	a.Commit(99, true)

	assert.Equal(t, 0, h.Len())
}

func TestRecomputeAgingDecaysHeapUnderLock(t *testing.T) {
	h := heap.New(1)
	a := NewAcceptor(clock.New(), h)

	a.Prepare(1)
	require.True(t, a.Accept(1, transport.Job{JobID: 42, Priority: 7}))
	a.Commit(1, true)

	a.RecomputeAging(10)

	node, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, uint32(0), node.EffectivePriority, "priority 7 committed at tick 2 and aged 8 ticks at factor 1 clamps to 0")
}

func TestHigherPrepareDuringAcceptedPreservesValue(t *testing.T) {
	h := heap.New(0)
	a := NewAcceptor(clock.New(), h)

	a.Prepare(1)
	require.True(t, a.Accept(1, transport.Job{JobID: 42, Priority: 7}))

	// standard Paxos: a higher prepare must preserve accepted_proposal
	// and accepted_value, not clear them.
	promised, _ := a.Prepare(5)
	assert.True(t, promised)
	assert.Equal(t, uint64(1), a.Snapshot().AcceptedProposal)
	require.NotNil(t, a.Snapshot().AcceptedValue)
	assert.Equal(t, uint64(42), a.Snapshot().AcceptedValue.JobID)
}
