package ledger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEpochMetrics(t *testing.T) {
	alice := newTestWallet(t)
	bob := newTestWallet(t)
	pool, ops := genesis(t, pay(alice, 100))

	good := spend(t, alice, ops, pay(bob, 93))
	late := spend(t, alice, ops, pay(bob, 99))

	h := New(pool, nil)

	epochs := testutil.ToFloat64(prometheusLedgerEpochs)
	admitted := testutil.ToFloat64(prometheusLedgerAdmitted)
	fees := testutil.ToFloat64(prometheusLedgerFees)
	missing := testutil.ToFloat64(
		prometheusLedgerRejected.WithLabelValues(ErrMissingInput.String()))

	require.Len(t, h.HandleEpoch([]*Transaction{late, good}), 1)

	require.Equal(t, epochs+1, testutil.ToFloat64(prometheusLedgerEpochs))
	require.Equal(t, admitted+1, testutil.ToFloat64(prometheusLedgerAdmitted))
	require.Equal(t, fees+7, testutil.ToFloat64(prometheusLedgerFees))
	require.Equal(t, missing+1, testutil.ToFloat64(
		prometheusLedgerRejected.WithLabelValues(ErrMissingInput.String())))
	require.Equal(t, float64(1), testutil.ToFloat64(prometheusLedgerPoolSize))
}
