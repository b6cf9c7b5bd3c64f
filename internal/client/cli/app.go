// Package cli implements the stakectl command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/stakeledger/internal/client/client"
	"github.com/dmitrijs2005/stakeledger/internal/client/config"
	"github.com/dmitrijs2005/stakeledger/internal/rpc"
	"github.com/dmitrijs2005/stakeledger/internal/server/events"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// LedgerAPI is what the commands need from the server.
type LedgerAPI interface {
	Deposit(ctx context.Context, items []string) (int, error)
	Withdraw(ctx context.Context, items []string) (string, error)
	Harvest(ctx context.Context, items []string) (string, error)
	Accrual(ctx context.Context, itemID string) (string, error)
	Holdings(ctx context.Context, holder string) ([]models.Stake, error)
	PendingRewards(ctx context.Context, holder string) (string, error)
	Stats(ctx context.Context) (*rpc.StatsResponse, error)
	SetRewardRate(ctx context.Context, perDay string) (string, error)
	EmergencyDrain(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (*rpc.SnapshotResponse, error)
	Events(ctx context.Context, f events.Filter) ([]events.Event, error)
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    LedgerAPI
	out    io.Writer
	closer io.Closer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.AccessToken, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{config: c, api: apiClient, out: os.Stdout, closer: apiClient}, nil
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"deposit":  {"deposit <id>...", (*App).deposit},
	"withdraw": {"withdraw <id>...", (*App).withdraw},
	"harvest":  {"harvest <id>...", (*App).harvest},
	"accrual":  {"accrual <id>", (*App).accrual},
	"holdings": {"holdings [holder]", (*App).holdings},
	"pending":  {"pending [holder]", (*App).pending},
	"stats":    {"stats", (*App).stats},
	"set-rate": {"set-rate <per-day>", (*App).setRate},
	"drain":    {"drain", (*App).drain},
	"snapshot": {"snapshot", (*App).snapshot},
	"events":   {"events [-holder h] [-item id] [-kind k] [-limit n]", (*App).events},
	"ping":     {"ping", (*App).ping},
	"token":    {"token -sub <subject> [-role holder|admin] [-ttl 15m]", (*App).token},
}

var order = []string{
	"deposit", "withdraw", "harvest", "accrual", "holdings", "pending", "stats",
	"set-rate", "drain", "snapshot", "events", "ping", "token",
}

// Run executes one command. args excludes the global flags.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		a.usage()
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	err := cmd.run(a, ctx, args[1:])
	if errors.Is(err, ErrUsage) {
		fmt.Fprintf(a.out, "usage: stakectl %s\n", cmd.usage)
	}
	return err
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "usage: stakectl [-a addr] [-t token] [-w seconds] [-c config.json] <command> [args]")
	fmt.Fprintln(a.out, "commands:")
	for _, name := range order {
		fmt.Fprintf(a.out, "  %s\n", commands[name].usage)
	}
}
