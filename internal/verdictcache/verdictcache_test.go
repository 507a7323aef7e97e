package verdictcache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
	"github.com/agentstation/conflictmap/pkg/logging"
)

type countingReasoner struct {
	calls atomic.Int32
	err   error
}

func (c *countingReasoner) Name() string { return "counting/v1" }

func (c *countingReasoner) Judge(_ context.Context, req validation.Request) (conflicts.Verdict, error) {
	c.calls.Add(1)
	if c.err != nil {
		return conflicts.Verdict{}, c.err
	}
	return conflicts.Verdict{
		SameEntity: req.BeneficiaryName == req.ContributorName,
		Reason:     "compared " + req.ContributorName,
		Confidence: conflicts.ConfidenceMedium,
		KeyFactors: []string{"name"},
	}, nil
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	req := validation.Request{SchemaVersion: "v1", BeneficiaryName: "Acme", ContributorName: "Acme Inc"}
	key := Key("counting/v1", req)

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, errors.ErrCacheMiss)

	want := conflicts.Verdict{SameEntity: true, Reason: "dba", Confidence: conflicts.ConfidenceHigh}
	require.NoError(t, s.Put(ctx, key, "counting/v1", req, want))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKeyDependsOnReasonerAndRequest(t *testing.T) {
	req := validation.Request{SchemaVersion: "v1", BeneficiaryName: "Acme", ContributorName: "Acme Inc"}
	other := req
	other.ContextNotes = "different notes"

	assert.Equal(t, Key("a", req), Key("a", req))
	assert.NotEqual(t, Key("a", req), Key("b", req))
	assert.NotEqual(t, Key("a", req), Key("a", other))
	assert.Len(t, Key("a", req), 64)
}

func TestCachingReasoner(t *testing.T) {
	ctx := context.Background()
	next := &countingReasoner{}
	r := Wrap(next, openMemory(t)).WithLogger(logging.NewNopLogger())

	req := validation.Request{SchemaVersion: "v1", BeneficiaryName: "Acme", ContributorName: "Acme"}
	first, err := r.Judge(ctx, req)
	require.NoError(t, err)
	second, err := r.Judge(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, "counting/v1", r.Name())
}

func TestCachingReasonerDoesNotStoreFailures(t *testing.T) {
	ctx := context.Background()
	next := &countingReasoner{err: fmt.Errorf("boom")}
	store := openMemory(t)
	r := Wrap(next, store).WithLogger(logging.NewNopLogger())

	req := validation.Request{SchemaVersion: "v1", BeneficiaryName: "Acme", ContributorName: "Beta"}
	_, err := r.Judge(ctx, req)
	assert.Error(t, err)
	_, err = r.Judge(ctx, req)
	assert.Error(t, err)

	assert.Equal(t, int32(2), next.calls.Load())
	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "verdicts.db")
	req := validation.Request{SchemaVersion: "v1", BeneficiaryName: "Acme", ContributorName: "Acme"}

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, Key("r", req), "r", req, conflicts.Verdict{SameEntity: true, Reason: "x", Confidence: conflicts.ConfidenceLow}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, Key("r", req))
	require.NoError(t, err)
	assert.Equal(t, conflicts.ConfidenceLow, got.Confidence)
}
