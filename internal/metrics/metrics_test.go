package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(ScansTotal.WithLabelValues(ResultClean))
	ScansTotal.WithLabelValues(ResultClean).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ScansTotal.WithLabelValues(ResultClean)))

	MatchFailuresTotal.WithLabelValues(ReasonTimeout).Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(MatchFailuresTotal.WithLabelValues(ReasonTimeout)), 1.0)
}

func TestWriteTextfile(t *testing.T) {
	FindingsTotal.WithLabelValues("Paystack").Inc()
	p := filepath.Join(t.TempDir(), "securelog.prom")
	require.NoError(t, WriteTextfile(p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `securelog_findings_total{detector="Paystack"}`)
}
