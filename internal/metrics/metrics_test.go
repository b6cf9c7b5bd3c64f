package metrics

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
	"github.com/dmitrijs2005/stakeledger/internal/server/locks"
)

var _ ledger.Meter = (*LedgerMeter)(nil)

func TestLedgerMeter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMeter(reg)

	m.Operation(ledger.OpDeposit, nil)
	m.Operation(ledger.OpDeposit, nil)
	m.Operation(ledger.OpWithdraw, fmt.Errorf("item 1: %w", ledger.ErrNotOwner))
	m.Deposited(3)
	m.Withdrawn(1)
	m.RewardsPaid(uint256.NewInt(1500))
	m.TotalDeposited(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("deposit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("withdraw", "not_owner")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.deposited))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.rewards))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.total))

	expected := `
# HELP stakeledger_total_deposited Items currently deposited.
# TYPE stakeledger_total_deposited gauge
stakeledger_total_deposited 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "stakeledger_total_deposited"))
}

func TestResult(t *testing.T) {
	tests := map[error]string{
		nil:                              "ok",
		ledger.ErrAlreadyStaked:          "already_staked",
		ledger.ErrNoRewards:              "no_rewards",
		ledger.ErrArithmeticOverflow:     "overflow",
		ledger.ErrReentrantCall:          "reentrant",
		ledger.ErrUnauthorized:           "unauthorized",
		ledger.ErrDuplicateItem:          "invalid",
		errors.New("connection refused"): "error",
	}
	for err, want := range tests {
		assert.Equal(t, want, Result(err), "%v", err)
	}
	assert.Equal(t, "locked", Result(fmt.Errorf("lock items: %w", locks.ErrLocked)))
	assert.Equal(t, "external", Result(fmt.Errorf("x: %w: %w", ledger.ErrExternalService, errors.New("timeout"))))
}

func TestHandler_ServesCompressed(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewLedgerMeter(reg).TotalDeposited(7)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")

	// a transport that does not transparently decompress
	resp, err := (&http.Transport{DisableCompression: true}).RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "stakeledger_total_deposited 7")

	resp2, err := http.Get(srv.URL + "/other")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
