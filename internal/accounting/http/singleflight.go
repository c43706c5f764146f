package accountinghttp

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// flightGroup collapses identical concurrent report builds into one store read.
type flightGroup struct {
	group singleflight.Group
}

// do runs fn once per key among concurrent callers. The build ignores the
// leader's cancellation; each caller stops waiting when its own context ends.
func (g *flightGroup) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	ch := g.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	}
}

func reportKey(kind string, companyID int64, parts ...any) string {
	return fmt.Sprintf("%s:%d:%v", kind, companyID, parts)
}
