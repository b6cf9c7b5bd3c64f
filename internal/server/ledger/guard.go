package ledger

import "context"

type guardKey struct{}

// enter marks ctx as belonging to a running mutation. The marked context is
// what external collaborators receive, so a collaborator that calls back into
// the ledger with it is detected.
func enter(ctx context.Context) context.Context {
	return context.WithValue(ctx, guardKey{}, struct{}{})
}

func entered(ctx context.Context) bool {
	return ctx.Value(guardKey{}) != nil
}
