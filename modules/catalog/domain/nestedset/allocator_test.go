package nestedset_test

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecove/catalog/modules/catalog/domain/nestedset"
)

func mustBounds(t *testing.T, f *nestedset.Forest, id uuid.UUID) (int, int) {
	t.Helper()
	n, ok := f.Get(id)
	require.True(t, ok, "node %s should exist", id)
	return n.Left, n.Right
}

func TestForest_InsertScenario(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)

	electronics := uuid.New()
	_, err := f.Insert(electronics, nil)
	require.NoError(t, err)
	l, r := mustBounds(t, f, electronics)
	assert.Equal(t, 1, l)
	assert.Equal(t, 2, r)

	laptops := uuid.New()
	_, err = f.Insert(laptops, &electronics)
	require.NoError(t, err)
	l, r = mustBounds(t, f, electronics)
	assert.Equal(t, 1, l)
	assert.Equal(t, 4, r)
	l, r = mustBounds(t, f, laptops)
	assert.Equal(t, 2, l)
	assert.Equal(t, 3, r)

	phones := uuid.New()
	_, err = f.Insert(phones, &electronics)
	require.NoError(t, err)
	l, r = mustBounds(t, f, electronics)
	assert.Equal(t, 1, l)
	assert.Equal(t, 6, r)
	l, r = mustBounds(t, f, laptops)
	assert.Equal(t, 2, l)
	assert.Equal(t, 3, r)
	l, r = mustBounds(t, f, phones)
	assert.Equal(t, 4, l)
	assert.Equal(t, 5, r)

	// Moving Laptops under Phones keeps both inside Electronics.
	_, err = f.Move(laptops, &phones)
	require.NoError(t, err)
	require.NoError(t, f.Validate())

	el, er := mustBounds(t, f, electronics)
	pl, pr := mustBounds(t, f, phones)
	ll, lr := mustBounds(t, f, laptops)
	assert.True(t, pl < ll && lr < pr, "phones [%d,%d] should contain laptops [%d,%d]", pl, pr, ll, lr)
	assert.True(t, el < pl && pr < er, "electronics [%d,%d] should contain phones [%d,%d]", el, er, pl, pr)
	assert.True(t, el < ll && lr < er, "electronics [%d,%d] should contain laptops [%d,%d]", el, er, ll, lr)
}

func TestForest_InsertReportsShiftedNodes(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	_, err := f.Insert(root, nil)
	require.NoError(t, err)

	child := uuid.New()
	change, err := f.Insert(child, &root)
	require.NoError(t, err)

	require.Len(t, change.Inserted, 1)
	assert.Equal(t, child, change.Inserted[0].ID)
	require.Len(t, change.Updated, 1)
	assert.Equal(t, root, change.Updated[0].ID)
	assert.Equal(t, 4, change.Updated[0].Right)
}

func TestForest_InsertUnknownParent(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	missing := uuid.New()
	_, err := f.Insert(uuid.New(), &missing)
	require.ErrorIs(t, err, nestedset.ErrNotFound)
}

func TestForest_MoveCycle(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	child := uuid.New()
	grandchild := uuid.New()
	_, err := f.Insert(root, nil)
	require.NoError(t, err)
	_, err = f.Insert(child, &root)
	require.NoError(t, err)
	_, err = f.Insert(grandchild, &child)
	require.NoError(t, err)

	_, err = f.Move(root, &grandchild)
	require.ErrorIs(t, err, nestedset.ErrCycle)

	_, err = f.Move(root, &child)
	require.ErrorIs(t, err, nestedset.ErrCycle)

	_, err = f.Move(child, &child)
	require.ErrorIs(t, err, nestedset.ErrCycle)
}

func TestForest_MoveToRoot(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	child := uuid.New()
	grandchild := uuid.New()
	_, err := f.Insert(root, nil)
	require.NoError(t, err)
	_, err = f.Insert(child, &root)
	require.NoError(t, err)
	_, err = f.Insert(grandchild, &child)
	require.NoError(t, err)

	_, err = f.Move(child, nil)
	require.NoError(t, err)
	require.NoError(t, f.Validate())

	moved, _ := f.Get(child)
	assert.Nil(t, moved.ParentID)

	// Subtree order survives the move.
	sub, err := f.Subtree(child)
	require.NoError(t, err)
	require.Len(t, sub, 2)
	assert.Equal(t, child, sub[0].ID)
	assert.Equal(t, grandchild, sub[1].ID)
}

func TestForest_DeleteCascade(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	a := uuid.New()
	b := uuid.New()
	aa := uuid.New()
	for _, ins := range []struct {
		id     uuid.UUID
		parent *uuid.UUID
	}{
		{root, nil}, {a, &root}, {b, &root}, {aa, &a},
	} {
		_, err := f.Insert(ins.id, ins.parent)
		require.NoError(t, err)
	}

	change, err := f.Delete(a, nestedset.PolicyCascade)
	require.NoError(t, err)
	require.NoError(t, f.Validate())

	assert.Len(t, change.Deleted, 2, "a and aa should both be gone")
	assert.Len(t, f.Nodes(), 2, "total node count decreases by exactly the subtree size")

	_, err = f.Subtree(a)
	require.ErrorIs(t, err, nestedset.ErrNotFound)
}

func TestForest_DeletePromote(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	mid := uuid.New()
	leaf := uuid.New()
	for _, ins := range []struct {
		id     uuid.UUID
		parent *uuid.UUID
	}{
		{root, nil}, {mid, &root}, {leaf, &mid},
	} {
		_, err := f.Insert(ins.id, ins.parent)
		require.NoError(t, err)
	}

	change, err := f.Delete(mid, nestedset.PolicyPromote)
	require.NoError(t, err)
	require.NoError(t, f.Validate())

	assert.Equal(t, []uuid.UUID{mid}, change.Deleted)
	promoted, _ := f.Get(leaf)
	require.NotNil(t, promoted.ParentID)
	assert.Equal(t, root, *promoted.ParentID)
}

func TestForest_DeleteRequiresPolicy(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	child := uuid.New()
	_, err := f.Insert(root, nil)
	require.NoError(t, err)
	_, err = f.Insert(child, &root)
	require.NoError(t, err)

	_, err = f.Delete(root, nestedset.PolicyNone)
	require.ErrorIs(t, err, nestedset.ErrNotEmpty)

	// Leaves delete without a policy.
	_, err = f.Delete(child, nestedset.PolicyNone)
	require.NoError(t, err)
	require.NoError(t, f.Validate())
}

func TestForest_AncestorsRootToLeaf(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	mid := uuid.New()
	leaf := uuid.New()
	for _, ins := range []struct {
		id     uuid.UUID
		parent *uuid.UUID
	}{
		{root, nil}, {mid, &root}, {leaf, &mid},
	} {
		_, err := f.Insert(ins.id, ins.parent)
		require.NoError(t, err)
	}

	chain, err := f.Ancestors(leaf)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, root, chain[0].ID)
	assert.Equal(t, mid, chain[1].ID)
}

func TestForest_SubtreePreorderIncludesRootFirst(t *testing.T) {
	t.Parallel()

	f := nestedset.NewForest(nil)
	root := uuid.New()
	a := uuid.New()
	b := uuid.New()
	aa := uuid.New()
	for _, ins := range []struct {
		id     uuid.UUID
		parent *uuid.UUID
	}{
		{root, nil}, {a, &root}, {b, &root}, {aa, &a},
	} {
		_, err := f.Insert(ins.id, ins.parent)
		require.NoError(t, err)
	}

	sub, err := f.Subtree(root)
	require.NoError(t, err)
	require.Len(t, sub, 4)
	assert.Equal(t, root, sub[0].ID)
	assert.Equal(t, a, sub[1].ID)
	assert.Equal(t, aa, sub[2].ID)
	assert.Equal(t, b, sub[3].ID)
}

// Randomized churn: whatever sequence of inserts, moves, and deletes runs,
// the nesting invariants must hold after every step.
func TestForest_RandomizedInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	f := nestedset.NewForest(nil)
	var ids []uuid.UUID

	pick := func() uuid.UUID { return ids[rng.Intn(len(ids))] }

	for step := 0; step < 400; step++ {
		switch op := rng.Intn(10); {
		case op < 5 || len(ids) < 2:
			id := uuid.New()
			var parent *uuid.UUID
			if len(ids) > 0 && rng.Intn(4) > 0 {
				p := pick()
				parent = &p
			}
			_, err := f.Insert(id, parent)
			require.NoError(t, err)
			ids = append(ids, id)
		case op < 8:
			target := pick()
			var parent *uuid.UUID
			if rng.Intn(5) > 0 {
				p := pick()
				parent = &p
			}
			if _, err := f.Move(target, parent); err != nil {
				require.ErrorIs(t, err, nestedset.ErrCycle)
			}
		default:
			target := pick()
			policy := nestedset.PolicyCascade
			if rng.Intn(2) == 0 {
				policy = nestedset.PolicyPromote
			}
			change, err := f.Delete(target, policy)
			require.NoError(t, err)
			gone := make(map[uuid.UUID]bool, len(change.Deleted))
			for _, d := range change.Deleted {
				gone[d] = true
			}
			kept := ids[:0]
			for _, id := range ids {
				if !gone[id] {
					kept = append(kept, id)
				}
			}
			ids = kept
		}
		require.NoError(t, f.Validate(), "invariants broken at step %d", step)
	}
}

func TestParseDeletePolicy(t *testing.T) {
	t.Parallel()

	p, err := nestedset.ParseDeletePolicy("CASCADE")
	require.NoError(t, err)
	assert.Equal(t, nestedset.PolicyCascade, p)

	p, err = nestedset.ParseDeletePolicy("PROMOTE")
	require.NoError(t, err)
	assert.Equal(t, nestedset.PolicyPromote, p)

	p, err = nestedset.ParseDeletePolicy("")
	require.NoError(t, err)
	assert.Equal(t, nestedset.PolicyNone, p)

	_, err = nestedset.ParseDeletePolicy("DROP")
	require.Error(t, err)
}
