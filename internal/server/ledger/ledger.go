// Package ledger implements the staking reward ledger: custody records for
// deposited items, time-based reward accrual, and the deposit / withdraw /
// harvest transitions that keep accrued accounting consistent.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/logging"
	"github.com/dmitrijs2005/stakeledger/internal/server/events"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

// Operation names reported to the Meter.
const (
	OpDeposit        = "deposit"
	OpWithdraw       = "withdraw"
	OpHarvest        = "harvest"
	OpSetRewardRate  = "set_reward_rate"
	OpEmergencyDrain = "emergency_drain"
)

// Meter receives operation outcomes.
type Meter interface {
	Operation(op string, err error)
	Deposited(n int)
	Withdrawn(n int)
	RewardsPaid(amount *uint256.Int)
	TotalDeposited(n uint64)
}

type nopMeter struct{}

func (nopMeter) Operation(string, error)  {}
func (nopMeter) Deposited(int)            {}
func (nopMeter) Withdrawn(int)            {}
func (nopMeter) RewardsPaid(*uint256.Int) {}
func (nopMeter) TotalDeposited(uint64)    {}

type nopLocker struct{}

func (nopLocker) Lock(context.Context, []string) (func(), error) { return func() {}, nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, []events.Event) error { return nil }

// Accounts names the ledger's own identities at the external services.
type Accounts struct {
	// Vault holds custody of deposited items.
	Vault string
	// Operating pays out rewards.
	Operating string
}

type Option func(*Ledger)

func WithPublisher(p events.Publisher) Option { return func(l *Ledger) { l.publisher = p } }
func WithLocker(lk Locker) Option             { return func(l *Ledger) { l.locker = lk } }
func WithMeter(m Meter) Option                { return func(l *Ledger) { l.meter = m } }
func WithClock(now func() time.Time) Option   { return func(l *Ledger) { l.now = now } }

func WithLogger(lg logging.Logger) Option {
	return func(l *Ledger) { l.logger = lg.With("module", "ledger") }
}

// Ledger is the stake ledger. Mutations are serialized by section, a
// single-slot semaphore acquired under the caller's context; reads go
// straight to the store.
type Ledger struct {
	section *semaphore.Weighted

	store     Store
	custody   Custody
	treasury  Treasury
	publisher events.Publisher
	locker    Locker
	meter     Meter
	logger    logging.Logger
	now       func() time.Time

	accounts Accounts
}

func New(store Store, custody Custody, treasury Treasury, accounts Accounts, opts ...Option) *Ledger {
	l := &Ledger{
		section:   semaphore.NewWeighted(1),
		store:     store,
		custody:   custody,
		treasury:  treasury,
		publisher: nopPublisher{},
		locker:    nopLocker{},
		meter:     nopMeter{},
		logger:    logging.Nop{},
		now:       time.Now,
		accounts:  accounts,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Init applies the construction-time rate once. Later restarts keep the
// persisted rate.
func (l *Ledger) Init(ctx context.Context, ratePerDay *uint256.Int) error {
	var total uint64
	err := l.store.Update(ctx, func(ctx context.Context, r Records) error {
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		total = st.TotalDeposited
		if st.Initialized {
			return nil
		}
		st.RewardRatePerSecond = RatePerSecond(ratePerDay)
		st.Initialized = true
		l.logger.Info(ctx, "reward rate initialized", "per_day", ratePerDay.Dec(), "per_second", st.RewardRatePerSecond.Dec())
		return r.SaveState(ctx, st)
	})
	if err != nil {
		return err
	}
	l.meter.TotalDeposited(total)
	return nil
}

// begin enters the critical section for one mutating call. A call carrying
// the mark of a running mutation is rejected; any other call waits for the
// section no longer than ctx allows. The returned release is idempotent.
func (l *Ledger) begin(ctx context.Context, items []string) (context.Context, func(), error) {
	if entered(ctx) {
		return nil, nil, ErrReentrantCall
	}
	if items != nil {
		if err := checkBatch(items); err != nil {
			return nil, nil, err
		}
	}

	if err := l.section.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("enter critical section: %w", err)
	}
	release, err := l.locker.Lock(ctx, items)
	if err != nil {
		l.section.Release(1)
		return nil, nil, fmt.Errorf("lock items: %w", err)
	}
	var once sync.Once
	return enter(ctx), func() {
		once.Do(func() {
			release()
			l.section.Release(1)
		})
	}, nil
}

func checkBatch(items []string) error {
	if len(items) == 0 {
		return ErrEmptyBatch
	}
	seen := make(map[string]struct{}, len(items))
	for _, id := range items {
		if id == "" {
			return ErrInvalidItem
		}
		if _, dup := seen[id]; dup {
			return itemErr(id, ErrDuplicateItem)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Deposit moves custody of every item from caller into the vault and opens
// an accrual record for each. The batch commits entirely or not at all.
func (l *Ledger) Deposit(ctx context.Context, items []string, caller string) (err error) {
	defer func() { l.meter.Operation(OpDeposit, err) }()

	ctx, done, err := l.begin(ctx, items)
	if err != nil {
		return err
	}
	defer done()

	now := l.now().Unix()
	var (
		moved []string
		total uint64
	)
	err = l.store.Update(ctx, func(ctx context.Context, r Records) error {
		for _, id := range items {
			_, found, err := r.Get(ctx, id)
			if err != nil {
				return err
			}
			if found {
				return itemErr(id, ErrAlreadyStaked)
			}
			owner, err := l.custody.OwnerOf(ctx, id)
			if err != nil {
				return itemErr(id, externalErr("owner lookup", err))
			}
			if owner != caller {
				return itemErr(id, ErrNotOwner)
			}
		}

		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		for _, id := range items {
			if err := l.custody.Transfer(ctx, id, caller, l.accounts.Vault); err != nil {
				return itemErr(id, externalErr("custody transfer", err))
			}
			moved = append(moved, id)
			if err := r.Insert(ctx, models.Stake{ItemID: id, Holder: caller, DepositedAt: now}); err != nil {
				return err
			}
		}
		st.TotalDeposited += uint64(len(items))
		total = st.TotalDeposited
		return r.SaveState(ctx, st)
	})
	if err != nil {
		l.compensate(ctx, moved, l.accounts.Vault, caller)
		l.logger.Info(ctx, "deposit failed", "holder", caller, "items", len(items), "error", err)
		return err
	}
	done()

	evs := make([]events.Event, 0, len(items))
	for _, id := range items {
		evs = append(evs, events.Deposited(caller, id, now))
	}
	l.publish(ctx, evs)
	l.meter.Deposited(len(items))
	l.meter.TotalDeposited(total)
	l.logger.Info(ctx, "deposited", "holder", caller, "items", len(items), "total_deposited", total)
	return nil
}

// Withdraw pays the unpaid accrual of every item in one transfer, returns
// custody to caller and removes the records.
func (l *Ledger) Withdraw(ctx context.Context, items []string, caller string) (paid *uint256.Int, err error) {
	defer func() { l.meter.Operation(OpWithdraw, err) }()

	ctx, done, err := l.begin(ctx, items)
	if err != nil {
		return nil, err
	}
	defer done()

	now := l.now().Unix()
	var (
		reward    = new(uint256.Int)
		returned  []string
		paidOut   bool
		remaining uint64
	)
	err = l.store.Update(ctx, func(ctx context.Context, r Records) error {
		stakes, err := held(ctx, r, items, caller)
		if err != nil {
			return err
		}
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		if err := sumAccrued(stakes, now, st.RewardRatePerSecond, reward); err != nil {
			return err
		}

		for _, s := range stakes {
			if err := r.Delete(ctx, s.ItemID); err != nil {
				return err
			}
		}
		if st.TotalDeposited < uint64(len(stakes)) {
			return fmt.Errorf("total deposited %d below %d records: %w", st.TotalDeposited, len(stakes), common.ErrorInternal)
		}
		st.TotalDeposited -= uint64(len(stakes))
		remaining = st.TotalDeposited
		if err := r.SaveState(ctx, st); err != nil {
			return err
		}

		for _, s := range stakes {
			if err := l.custody.Transfer(ctx, s.ItemID, l.accounts.Vault, caller); err != nil {
				return itemErr(s.ItemID, externalErr("custody transfer", err))
			}
			returned = append(returned, s.ItemID)
		}
		if !reward.IsZero() {
			if err := l.treasury.Transfer(ctx, caller, reward); err != nil {
				return externalErr("reward transfer", err)
			}
			paidOut = true
		}
		return nil
	})
	if err != nil {
		l.compensate(ctx, returned, caller, l.accounts.Vault)
		if paidOut {
			l.logger.Error(ctx, "reward paid but withdraw not committed", "holder", caller, "amount", reward.Dec(), "error", err)
		}
		l.logger.Info(ctx, "withdraw failed", "holder", caller, "items", len(items), "error", err)
		return nil, err
	}
	done()

	evs := make([]events.Event, 0, len(items)+1)
	for _, id := range items {
		evs = append(evs, events.Withdrawn(caller, id, now))
	}
	if !reward.IsZero() {
		evs = append(evs, events.RewardClaimed(caller, reward.Dec(), now))
		l.meter.RewardsPaid(reward)
	}
	l.publish(ctx, evs)
	l.meter.Withdrawn(len(items))
	l.meter.TotalDeposited(remaining)
	l.logger.Info(ctx, "withdrawn", "holder", caller, "items", len(items), "reward", reward.Dec())
	return reward, nil
}

// Harvest pays the unpaid accrual of every item and restarts each accrual
// clock at now. The items stay deposited.
func (l *Ledger) Harvest(ctx context.Context, items []string, caller string) (paid *uint256.Int, err error) {
	defer func() { l.meter.Operation(OpHarvest, err) }()

	ctx, done, err := l.begin(ctx, items)
	if err != nil {
		return nil, err
	}
	defer done()

	now := l.now().Unix()
	var (
		reward  = new(uint256.Int)
		paidOut bool
	)
	err = l.store.Update(ctx, func(ctx context.Context, r Records) error {
		stakes, err := held(ctx, r, items, caller)
		if err != nil {
			return err
		}
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		if err := sumAccrued(stakes, now, st.RewardRatePerSecond, reward); err != nil {
			return err
		}
		if reward.IsZero() {
			return ErrNoRewards
		}

		for _, s := range stakes {
			if err := r.Touch(ctx, s.ItemID, now); err != nil {
				return err
			}
		}
		if err := l.treasury.Transfer(ctx, caller, reward); err != nil {
			return externalErr("reward transfer", err)
		}
		paidOut = true
		return nil
	})
	if err != nil {
		if paidOut {
			l.logger.Error(ctx, "reward paid but harvest not committed", "holder", caller, "amount", reward.Dec(), "error", err)
		}
		l.logger.Info(ctx, "harvest failed", "holder", caller, "items", len(items), "error", err)
		return nil, err
	}
	done()

	l.publish(ctx, []events.Event{events.RewardClaimed(caller, reward.Dec(), now)})
	l.meter.RewardsPaid(reward)
	l.logger.Info(ctx, "harvested", "holder", caller, "items", len(items), "reward", reward.Dec())
	return reward, nil
}

// Accrual returns the unpaid reward of one item, zero when it is not
// deposited.
func (l *Ledger) Accrual(ctx context.Context, itemID string) (*uint256.Int, error) {
	now := l.now().Unix()
	var out *uint256.Int
	err := l.view(ctx, func(ctx context.Context, r Records) error {
		s, found, err := r.Get(ctx, itemID)
		if err != nil {
			return err
		}
		if !found {
			out = new(uint256.Int)
			return nil
		}
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		out, err = Accrued(s.DepositedAt, now, st.RewardRatePerSecond)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Holdings lists the items currently deposited by holder, ordered by id.
func (l *Ledger) Holdings(ctx context.Context, holder string) ([]models.Stake, error) {
	var out []models.Stake
	err := l.view(ctx, func(ctx context.Context, r Records) error {
		var err error
		out, err = r.ByHolder(ctx, holder)
		return err
	})
	return out, err
}

// PendingRewards sums the unpaid accrual over every item of holder.
func (l *Ledger) PendingRewards(ctx context.Context, holder string) (*uint256.Int, error) {
	now := l.now().Unix()
	total := new(uint256.Int)
	err := l.view(ctx, func(ctx context.Context, r Records) error {
		stakes, err := r.ByHolder(ctx, holder)
		if err != nil {
			return err
		}
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		return sumAccrued(stakes, now, st.RewardRatePerSecond, total)
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// Stats returns the current global state.
func (l *Ledger) Stats(ctx context.Context) (models.LedgerState, error) {
	var st models.LedgerState
	err := l.view(ctx, func(ctx context.Context, r Records) error {
		var err error
		st, err = r.State(ctx)
		return err
	})
	return st, err
}

// Export captures every record and the global state in one consistent read.
func (l *Ledger) Export(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{TakenAt: l.now().Unix()}
	err := l.view(ctx, func(ctx context.Context, r Records) error {
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		stakes, err := r.All(ctx)
		if err != nil {
			return err
		}
		snap.RewardRatePerSecond = st.RewardRatePerSecond.Dec()
		snap.TotalDeposited = st.TotalDeposited
		snap.Stakes = stakes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// CheckConsistency verifies that the stored deposit count matches the
// number of records.
func (l *Ledger) CheckConsistency(ctx context.Context) error {
	return l.view(ctx, func(ctx context.Context, r Records) error {
		n, err := r.Count(ctx)
		if err != nil {
			return err
		}
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		if n != st.TotalDeposited {
			return fmt.Errorf("total deposited %d, records %d: %w", st.TotalDeposited, n, common.ErrorInternal)
		}
		return nil
	})
}

// SetRewardRate replaces the per-second rate with perDay / 86400. Already
// paid rewards are unaffected; unpaid time accrues at the new rate.
func (l *Ledger) SetRewardRate(ctx context.Context, p Principal, perDay *uint256.Int) (rate *uint256.Int, err error) {
	defer func() { l.meter.Operation(OpSetRewardRate, err) }()

	if !p.Admin {
		return nil, ErrUnauthorized
	}
	ctx, done, err := l.begin(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer done()

	rate = RatePerSecond(perDay)
	err = l.store.Update(ctx, func(ctx context.Context, r Records) error {
		st, err := r.State(ctx)
		if err != nil {
			return err
		}
		st.RewardRatePerSecond = rate.Clone()
		st.Initialized = true
		return r.SaveState(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info(ctx, "reward rate updated", "admin", p.ID, "per_day", perDay.Dec(), "per_second", rate.Dec())
	return rate, nil
}

// EmergencyDrain sends the whole operating balance to the administrator,
// whatever holders are still owed.
func (l *Ledger) EmergencyDrain(ctx context.Context, p Principal) (drained *uint256.Int, err error) {
	defer func() { l.meter.Operation(OpEmergencyDrain, err) }()

	if !p.Admin {
		return nil, ErrUnauthorized
	}
	ctx, done, err := l.begin(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer done()

	balance, err := l.treasury.BalanceOf(ctx, l.accounts.Operating)
	if err != nil {
		return nil, externalErr("balance lookup", err)
	}
	if balance.IsZero() {
		return balance, nil
	}
	if err := l.treasury.Transfer(ctx, p.ID, balance); err != nil {
		return nil, externalErr("drain transfer", err)
	}
	l.logger.Warn(ctx, "operating account drained", "admin", p.ID, "amount", balance.Dec())
	return balance, nil
}

// view runs a read. Reads from inside a running mutation are rejected as
// they would observe uncommitted state.
func (l *Ledger) view(ctx context.Context, fn func(ctx context.Context, r Records) error) error {
	if entered(ctx) {
		return ErrReentrantCall
	}
	return l.store.View(ctx, fn)
}

// held loads the records of items and checks each is held by caller.
func held(ctx context.Context, r Records, items []string, caller string) ([]models.Stake, error) {
	out := make([]models.Stake, 0, len(items))
	for _, id := range items {
		s, found, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found || s.Holder != caller {
			return nil, itemErr(id, ErrNotOwner)
		}
		out = append(out, s)
	}
	return out, nil
}

func sumAccrued(stakes []models.Stake, now int64, rate *uint256.Int, sum *uint256.Int) error {
	for _, s := range stakes {
		v, err := Accrued(s.DepositedAt, now, rate)
		if err != nil {
			return itemErr(s.ItemID, err)
		}
		if err := addChecked(sum, v); err != nil {
			return err
		}
	}
	return nil
}

// compensate moves custody of items back after a failed batch. It runs even
// when the caller's context is already cancelled.
func (l *Ledger) compensate(ctx context.Context, items []string, from, to string) {
	if len(items) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for i := len(items) - 1; i >= 0; i-- {
		if err := l.custody.Transfer(ctx, items[i], from, to); err != nil {
			l.logger.Error(ctx, "custody compensation failed", "item", items[i], "from", from, "to", to, "error", err)
		}
	}
}

func (l *Ledger) publish(ctx context.Context, evs []events.Event) {
	if err := l.publisher.Publish(context.WithoutCancel(ctx), evs); err != nil {
		l.logger.Warn(ctx, "event publish failed", "events", len(evs), "error", err)
	}
}
