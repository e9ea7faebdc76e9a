package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_RowOrderAndPerRowErrors(t *testing.T) {
	e := NewEvaluator(EvaluatorConfig{Name: "pecas", System: pecas(t)})

	rows := make([]map[string]float64, 40)
	for i := range rows {
		rows[i] = pecasDefaults
	}
	rows[7] = map[string]float64{"tempo_espera": 65, "fator_utilizacao": 0.5, "numero_funcionarios": 50}
	rows[21] = map[string]float64{"bogus": 1}

	results, stats, err := e.Batch(context.Background(), rows, 4)
	require.NoError(t, err)
	require.Len(t, results, len(rows))

	for i, r := range results {
		assert.Equal(t, i, r.Row)
		require.NotNil(t, r.Eval, "row %d", i)
		switch i {
		case 7, 21:
			assert.Error(t, r.Err, "row %d", i)
		default:
			require.NoError(t, r.Err, "row %d", i)
			assert.InDelta(t, 150, r.Eval.Record.Outputs["numero_pecas"], 1e-9)
		}
	}

	assert.Equal(t, 40, stats.Rows)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, int64(40), stats.Latency.TotalCount())
	assert.LessOrEqual(t, stats.Quantile(50), stats.Quantile(99))
	assert.Greater(t, stats.Quantile(100), time.Duration(0))
}

func TestBatch_WorkersFloor(t *testing.T) {
	e := NewEvaluator(EvaluatorConfig{Name: "pecas", System: pecas(t)})
	results, stats, err := e.Batch(context.Background(), []map[string]float64{pecasDefaults}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 0, stats.Failed)
}

func TestBatch_Empty(t *testing.T) {
	e := NewEvaluator(EvaluatorConfig{Name: "pecas", System: pecas(t)})
	results, stats, err := e.Batch(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, stats.Rows)
}

func TestBatch_Cancelled(t *testing.T) {
	e := NewEvaluator(EvaluatorConfig{Name: "pecas", System: pecas(t)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []map[string]float64{pecasDefaults, pecasDefaults, pecasDefaults}
	results, _, err := e.Batch(ctx, rows, 2)
	assert.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.Nil(t, r.Eval)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
