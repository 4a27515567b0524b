package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

const (
	mainCatalog   domain.CatalogID = 1
	secondCatalog domain.CatalogID = 2
)

func newTestPairStore(t *testing.T) (*PairStore, *memTable) {
	t.Helper()
	table := newMemTable()
	return NewPairStore(table, mainCatalog, secondCatalog, nil), table
}

func TestSetSynchronizedID_PersistsBothDirections(t *testing.T) {
	ctx := context.Background()

	for l := domain.LayerSubject; l <= domain.LayerSpecificKnowledge; l++ {
		t.Run(l.String(), func(t *testing.T) {
			store, table := newTestPairStore(t)

			require.NoError(t, store.SetSynchronizedID(ctx, l, 10, 20, true))

			got, err := store.GetSynchronizedID(ctx, l, 10, false)
			require.NoError(t, err)
			assert.Equal(t, 20, got)

			back, err := store.GetSynchronizedID(ctx, l, 20, true)
			require.NoError(t, err)
			assert.Equal(t, 10, back)

			assert.Len(t, table.pairs, 1)
			assert.Zero(t, table.findPeerCalls, "cached entries must not hit the table")
		})
	}
}

func TestSetSynchronizedID_OverridesCachedMiss(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestPairStore(t)

	miss, err := store.GetSynchronizedID(ctx, domain.LayerTheme, 7, true)
	require.NoError(t, err)
	require.Equal(t, domain.NoID, miss)

	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerTheme, 3, 7, true))

	back, err := store.GetSynchronizedID(ctx, domain.LayerTheme, 7, true)
	require.NoError(t, err)
	assert.Equal(t, 3, back)
}

func TestSpecificKnowledgeSharesKnowledgeSlot(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestPairStore(t)

	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerSpecificKnowledge, 4, 40, true))

	got, err := store.GetSynchronizedID(ctx, domain.LayerKnowledge, 4, false)
	require.NoError(t, err)
	assert.Equal(t, 40, got)
}

func TestGetSynchronizedID_ResolvesFromTableAndCaches(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)
	table.seed(domain.LayerPackage, mainCatalog, 5, secondCatalog, 50)

	got, err := store.GetSynchronizedID(ctx, domain.LayerPackage, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	back, err := store.GetSynchronizedID(ctx, domain.LayerPackage, 50, true)
	require.NoError(t, err)
	assert.Equal(t, 5, back)
	assert.Equal(t, 1, table.findPeerCalls, "mirror direction should be filled by the first lookup")
}

func TestGetSynchronizedID_MissIsCachedWithoutWrite(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)

	for range 3 {
		got, err := store.GetSynchronizedID(ctx, domain.LayerSubject, 99, false)
		require.NoError(t, err)
		assert.Equal(t, domain.NoID, got)
	}

	assert.Equal(t, 1, table.findPeerCalls)
	assert.Empty(t, table.handles, "a lookup must not create handles")
	assert.Zero(t, table.insertCalls)
}

func TestGetSynchronizedID_TableErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)
	table.findErr = errors.New("connection refused")

	_, err := store.GetSynchronizedID(ctx, domain.LayerSubject, 1, false)
	require.Error(t, err)

	table.findErr = nil
	table.seed(domain.LayerSubject, mainCatalog, 1, secondCatalog, 11)

	got, err := store.GetSynchronizedID(ctx, domain.LayerSubject, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 11, got)
}

func TestSetSynchronizedID_ConstraintFailureIsBenign(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)
	table.insertErr = fmt.Errorf("UNIQUE constraint failed: %w", ports.ErrConstraint)

	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerTheme, 1, 2, true))

	got, err := store.GetSynchronizedID(ctx, domain.LayerTheme, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestSetSynchronizedID_DoublePairIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)

	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerTheme, 1, 2, true))
	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerTheme, 1, 2, true))

	assert.Len(t, table.pairs, 1)
	assert.Equal(t, 2, table.insertCalls)
}

func TestSetSynchronizedID_OtherFailureRevertsToNoID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(*memTable)
	}{
		{"insert fails", func(tb *memTable) { tb.insertErr = errors.New("disk I/O error") }},
		{"handle creation fails", func(tb *memTable) { tb.createErr = errors.New("database is locked") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, table := newTestPairStore(t)
			tt.setup(table)

			err := store.SetSynchronizedID(ctx, domain.LayerPackage, 1, 2, true)
			require.Error(t, err)
			assert.False(t, errors.Is(err, ports.ErrConstraint))

			got, err := store.GetSynchronizedID(ctx, domain.LayerPackage, 1, false)
			require.NoError(t, err)
			assert.Equal(t, domain.NoID, got)
		})
	}
}

func TestSetSynchronizedID_WithoutPersistOnlyTouchesCache(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)

	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerTheme, 1, 2, false))

	got, err := store.GetSynchronizedID(ctx, domain.LayerTheme, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Empty(t, table.handles)
	assert.Zero(t, table.insertCalls)
}

func TestDeletePair_ClearsBothDirections(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)

	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerKnowledge, 8, 80, true))
	require.NoError(t, store.DeletePair(ctx, domain.LayerKnowledge, 8))

	got, err := store.GetSynchronizedID(ctx, domain.LayerKnowledge, 8, false)
	require.NoError(t, err)
	assert.Equal(t, domain.NoID, got)

	back, err := store.GetSynchronizedID(ctx, domain.LayerKnowledge, 80, true)
	require.NoError(t, err)
	assert.Equal(t, domain.NoID, back)
	assert.Empty(t, table.pairs)
}

func TestDeletePair_UnpairedIsNoop(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)
	table.deleteErr = errors.New("should not be called")

	require.NoError(t, store.DeletePair(ctx, domain.LayerTheme, 3))
}

func TestDeletePair_MatchesEitherHandleOrder(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)

	// stored with the target handle first
	second, _ := table.CreateHandle(ctx, secondCatalog, domain.LayerTheme, 30)
	first, _ := table.CreateHandle(ctx, mainCatalog, domain.LayerTheme, 3)
	table.pairs[ports.HandlePair{First: second, Second: first}] = true

	require.NoError(t, store.DeletePair(ctx, domain.LayerTheme, 3))
	assert.Empty(t, table.pairs)
}

func TestSaveAll_SingleBatch(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)

	n, err := store.SaveAll(ctx, domain.LayerPackage, []AcceptedPair{
		{SourceID: 1, TargetID: 10},
		{SourceID: 2, TargetID: 20},
		{SourceID: 3, TargetID: domain.NoID},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, table.batchCalls)
	assert.Zero(t, table.insertCalls)

	for src, tgt := range map[int]int{1: 10, 2: 20} {
		got, err := store.GetSynchronizedID(ctx, domain.LayerPackage, src, false)
		require.NoError(t, err)
		assert.Equal(t, tgt, got)

		back, err := store.GetSynchronizedID(ctx, domain.LayerPackage, tgt, true)
		require.NoError(t, err)
		assert.Equal(t, src, back)
	}
}

func TestSaveAll_FailureRollsBackCache(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)
	table.batchErr = errors.New("connection reset")

	_, err := store.SaveAll(ctx, domain.LayerPackage, []AcceptedPair{{SourceID: 1, TargetID: 10}})
	require.Error(t, err)

	got, err := store.GetSynchronizedID(ctx, domain.LayerPackage, 1, false)
	require.NoError(t, err)
	assert.Equal(t, domain.NoID, got)

	back, err := store.GetSynchronizedID(ctx, domain.LayerPackage, 10, true)
	require.NoError(t, err)
	assert.Equal(t, domain.NoID, back)
}

func TestSwitchRoles_IsInvolution(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestPairStore(t)
	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerTheme, 1, 2, true))

	store.SwitchRoles()
	assert.Equal(t, secondCatalog, store.Source())
	assert.Equal(t, mainCatalog, store.Target())

	got, err := store.GetSynchronizedID(ctx, domain.LayerTheme, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "the former mirror is now the forward direction")

	store.SwitchRoles()
	assert.Equal(t, mainCatalog, store.Source())
	assert.Equal(t, secondCatalog, store.Target())

	got, err = store.GetSynchronizedID(ctx, domain.LayerTheme, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestSwitchRoles_PersistsUnderSwappedCatalogs(t *testing.T) {
	ctx := context.Background()
	store, table := newTestPairStore(t)

	store.SwitchRoles()
	require.NoError(t, store.SetSynchronizedID(ctx, domain.LayerPackage, 20, 10, true))

	_, ok, err := table.FindHandle(ctx, secondCatalog, domain.LayerPackage, 20)
	require.NoError(t, err)
	assert.True(t, ok)

	store.SwitchRoles()
	fresh := NewPairStore(table, mainCatalog, secondCatalog, nil)
	got, err := fresh.GetSynchronizedID(ctx, domain.LayerPackage, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 20, got)
}
