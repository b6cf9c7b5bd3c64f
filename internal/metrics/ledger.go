// Package metrics exposes ledger activity to Prometheus.
package metrics

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
	"github.com/dmitrijs2005/stakeledger/internal/server/locks"
)

const namespace = "stakeledger"

// LedgerMeter implements ledger.Meter with Prometheus collectors.
type LedgerMeter struct {
	operations *prometheus.CounterVec
	deposited  prometheus.Counter
	withdrawn  prometheus.Counter
	rewards    prometheus.Counter
	total      prometheus.Gauge
}

func NewLedgerMeter(reg prometheus.Registerer) *LedgerMeter {
	m := &LedgerMeter{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger mutations by operation and result.",
		}, []string{"op", "result"}),
		deposited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_deposited_total",
			Help:      "Items moved into the vault.",
		}),
		withdrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_withdrawn_total",
			Help:      "Items returned to holders.",
		}),
		rewards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_paid_total",
			Help:      "Reward units paid out. Approximate above 2^53.",
		}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_deposited",
			Help:      "Items currently deposited.",
		}),
	}
	reg.MustRegister(m.operations, m.deposited, m.withdrawn, m.rewards, m.total)
	return m
}

func (m *LedgerMeter) Operation(op string, err error) {
	m.operations.WithLabelValues(op, Result(err)).Inc()
}

func (m *LedgerMeter) Deposited(n int) { m.deposited.Add(float64(n)) }
func (m *LedgerMeter) Withdrawn(n int) { m.withdrawn.Add(float64(n)) }

func (m *LedgerMeter) RewardsPaid(amount *uint256.Int) {
	m.rewards.Add(amount.Float64())
}

func (m *LedgerMeter) TotalDeposited(n uint64) { m.total.Set(float64(n)) }

// Result maps an operation error onto a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledger.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ledger.ErrAlreadyStaked):
		return "already_staked"
	case errors.Is(err, ledger.ErrNoRewards):
		return "no_rewards"
	case errors.Is(err, ledger.ErrArithmeticOverflow):
		return "overflow"
	case errors.Is(err, ledger.ErrExternalService):
		return "external"
	case errors.Is(err, ledger.ErrReentrantCall):
		return "reentrant"
	case errors.Is(err, locks.ErrLocked):
		return "locked"
	case errors.Is(err, ledger.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ledger.ErrEmptyBatch), errors.Is(err, ledger.ErrDuplicateItem), errors.Is(err, ledger.ErrInvalidItem):
		return "invalid"
	default:
		return "error"
	}
}
