package bbolt

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corey/mamdani/internal/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Run history: save/list newest first, per-system scoping, prune, delete.
// Expectation: runs survive restarts; nothing but runs is ever written.
// =============================================================================

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// makeRun creates a realistic run at the given offset (seconds) from a fixed epoch.
func makeRun(system string, n int) *ports.RunRecord {
	rec := &ports.RunRecord{
		ID:     fmt.Sprintf("run-%03d", n),
		System: system,
		At:     time.Unix(1700000000+int64(n), 0).UnixNano(),
		Inputs: map[string]float64{
			"tempo_espera":        float64(n),
			"fator_utilizacao":    0.3,
			"numero_funcionarios": 30,
		},
		ElapsedNs: 41000,
	}
	if n%5 == 4 {
		rec.Failures = map[string]string{"numero_pecas": "no rule produced a non-zero degree"}
	} else {
		rec.Outputs = map[string]float64{"numero_pecas": 150 + float64(n)}
	}
	return rec
}

func TestStore_SaveList_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	original := makeRun("pecas", 1)
	require.NoError(t, store.SaveRun(original))

	runs, err := store.ListRuns("pecas", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	if diff := cmp.Diff(original, runs[0]); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_FailedRunKeepsNoOutputs(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveRun(makeRun("pecas", 4)))

	runs, err := store.ListRuns("pecas", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Failed())
	assert.Empty(t, runs[0].Outputs)
	assert.Equal(t, "no rule produced a non-zero degree", runs[0].Failures["numero_pecas"])
}

func TestStore_NewestFirstAndLimit(t *testing.T) {
	store, _ := newTestStore(t)
	// Insert out of order; keys sort by time, not insertion.
	for _, n := range []int{3, 1, 7, 5, 2} {
		require.NoError(t, store.SaveRun(makeRun("pecas", n)))
	}

	runs, err := store.ListRuns("pecas", 0)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"run-007", "run-005", "run-003", "run-002", "run-001"}, ids)

	runs, err = store.ListRuns("pecas", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-007", runs[0].ID)
	assert.Equal(t, "run-005", runs[1].ID)
}

func TestStore_SystemScoped(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveRun(makeRun("pecas", 1)))
	require.NoError(t, store.SaveRun(makeRun("tipping", 2)))
	require.NoError(t, store.SaveRun(makeRun("pecas", 3)))

	pecas, err := store.ListRuns("pecas", 0)
	require.NoError(t, err)
	assert.Len(t, pecas, 2)

	tipping, err := store.ListRuns("tipping", 0)
	require.NoError(t, err)
	require.Len(t, tipping, 1)
	assert.Equal(t, "tipping", tipping[0].System)

	all, err := store.ListRuns("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-003", all[0].ID)
	assert.Equal(t, "run-002", all[1].ID)

	limited, err := store.ListRuns("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	missing, err := store.ListRuns("nope", 0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStore_EmptyStore(t *testing.T) {
	store, _ := newTestStore(t)
	runs, err := store.ListRuns("", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	n, err := store.PruneRuns("pecas", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_SaveRun_Rejects(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.SaveRun(nil))
	assert.Error(t, store.SaveRun(&ports.RunRecord{ID: "x"}))
	assert.Error(t, store.SaveRun(&ports.RunRecord{System: "pecas"}))
}

func TestStore_PruneRuns(t *testing.T) {
	store, _ := newTestStore(t)
	for n := 0; n < 10; n++ {
		require.NoError(t, store.SaveRun(makeRun("pecas", n)))
	}
	require.NoError(t, store.SaveRun(makeRun("tipping", 0)))

	removed, err := store.PruneRuns("pecas", 3)
	require.NoError(t, err)
	assert.Equal(t, 7, removed)

	runs, err := store.ListRuns("pecas", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-009", runs[0].ID)
	assert.Equal(t, "run-007", runs[2].ID)

	// Other systems untouched.
	tipping, err := store.ListRuns("tipping", 0)
	require.NoError(t, err)
	assert.Len(t, tipping, 1)

	// Nothing to prune.
	removed, err = store.PruneRuns("pecas", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestStore_DeleteRuns(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveRun(makeRun("pecas", 1)))
	require.NoError(t, store.SaveRun(makeRun("tipping", 2)))

	require.NoError(t, store.DeleteRuns("pecas"))
	runs, err := store.ListRuns("pecas", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	// Idempotent.
	require.NoError(t, store.DeleteRuns("pecas"))
	require.NoError(t, store.DeleteRuns("never-existed"))

	require.NoError(t, store.DeleteRuns(""))
	all, err := store.ListRuns("", 0)
	require.NoError(t, err)
	assert.Empty(t, all)
	require.NoError(t, store.DeleteRuns(""))
}

func TestStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restart.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	for n := 0; n < 4; n++ {
		require.NoError(t, store.SaveRun(makeRun("pecas", n)))
	}
	require.NoError(t, store.Close())

	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	runs, err := store2.ListRuns("pecas", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestStore_ConcurrentSaves(t *testing.T) {
	store, _ := newTestStore(t)
	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, store.SaveRun(makeRun("pecas", n)))
		}(n)
	}
	wg.Wait()

	runs, err := store.ListRuns("pecas", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 20)
}

func TestStore_OpenTimeout_ErrorMessage(t *testing.T) {
	// A second open of a held database times out with a wrapped error.
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	defer store1.Close()

	start := time.Now()
	_, err = NewStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunKey_SortsChronologically(t *testing.T) {
	early := runKey(&ports.RunRecord{ID: "b", At: -5})
	late := runKey(&ports.RunRecord{ID: "a", At: 10})
	assert.Less(t, string(early), string(late))

	at, err := runKeyTime(late)
	require.NoError(t, err)
	assert.Equal(t, int64(10), at)

	_, err = runKeyTime([]byte{1, 2})
	assert.Error(t, err)
}
