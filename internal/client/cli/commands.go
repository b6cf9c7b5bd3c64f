package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/server/auth"
	"github.com/dmitrijs2005/stakeledger/internal/server/events"
)

func needItems(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one item id is required", ErrUsage)
	}
	return nil
}

func optionalHolder(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: too many arguments", ErrUsage)
	}
}

func noArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected arguments", ErrUsage)
	}
	return nil
}

func (a *App) deposit(ctx context.Context, args []string) error {
	if err := needItems(args); err != nil {
		return err
	}
	n, err := a.api.Deposit(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deposited %d item(s)\n", n)
	return nil
}

func (a *App) withdraw(ctx context.Context, args []string) error {
	if err := needItems(args); err != nil {
		return err
	}
	paid, err := a.api.Withdraw(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "withdrew %d item(s), reward paid: %s\n", len(args), paid)
	return nil
}

func (a *App) harvest(ctx context.Context, args []string) error {
	if err := needItems(args); err != nil {
		return err
	}
	paid, err := a.api.Harvest(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "reward paid: %s\n", paid)
	return nil
}

func (a *App) accrual(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: exactly one item id is required", ErrUsage)
	}
	v, err := a.api.Accrual(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, v)
	return nil
}

func (a *App) holdings(ctx context.Context, args []string) error {
	holder, err := optionalHolder(args)
	if err != nil {
		return err
	}
	stakes, err := a.api.Holdings(ctx, holder)
	if err != nil {
		return err
	}
	if len(stakes) == 0 {
		fmt.Fprintln(a.out, "no items deposited")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tDEPOSITED AT")
	for _, s := range stakes {
		fmt.Fprintf(tw, "%s\t%s\n", s.ItemID, time.Unix(s.DepositedAt, 0).UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func (a *App) pending(ctx context.Context, args []string) error {
	holder, err := optionalHolder(args)
	if err != nil {
		return err
	}
	v, err := a.api.PendingRewards(ctx, holder)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, v)
	return nil
}

func (a *App) stats(ctx context.Context, args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	st, err := a.api.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "reward rate per second: %s\ntotal deposited: %d\n", st.RewardRatePerSecond, st.TotalDeposited)
	return nil
}

func (a *App) setRate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: the per-day rate is required", ErrUsage)
	}
	rate, err := a.api.SetRewardRate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "reward rate per second: %s\n", rate)
	return nil
}

func (a *App) drain(ctx context.Context, args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	v, err := a.api.EmergencyDrain(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "drained: %s\n", v)
	return nil
}

func (a *App) snapshot(ctx context.Context, args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	snap, err := a.api.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "snapshot of %d stake(s) saved to %s\n", snap.Stakes, snap.Location)
	return nil
}

func (a *App) events(ctx context.Context, args []string) error {
	var (
		f    events.Filter
		kind string
	)
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.Holder, "holder", "", "holder")
	fs.StringVar(&f.ItemID, "item", "", "item id")
	fs.StringVar(&kind, "kind", "", "deposited, withdrawn or reward_claimed")
	fs.IntVar(&f.Limit, "limit", 0, "maximum number of events")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	f.Kind = events.Kind(kind)

	evs, err := a.api.Events(ctx, f)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tHOLDER\tITEM\tAMOUNT")
	for _, e := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339), e.Kind, e.Holder, e.ItemID, e.Amount)
	}
	return tw.Flush()
}

func (a *App) ping(ctx context.Context, args []string) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

// token mints an access token locally from the shared secret.
func (a *App) token(_ context.Context, args []string) error {
	var subject, role string
	ttl := a.config.TokenValidity

	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&subject, "sub", "", "holder or administrator identity")
	fs.StringVar(&role, "role", common.RoleHolder, "holder or admin")
	fs.DurationVar(&ttl, "ttl", ttl, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if subject == "" {
		return fmt.Errorf("%w: -sub is required", ErrUsage)
	}

	secret, err := GetSecret(os.Stderr)
	if err != nil {
		return err
	}
	defer clear(secret)

	tok, err := auth.GenerateToken(subject, role, secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok)
	return nil
}
