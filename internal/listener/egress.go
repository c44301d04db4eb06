package listener

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/julien6387/supvisors/pkg/logging"
)

const defaultEgressWorkers = 4

// egressTask is a deferred RPC dispatch, queued by the ingress loop and
// drained by the egress actor pool so a slow peer never blocks event
// ingestion.
type egressTask func(ctx context.Context)

// egress bounds the deferred-RPC worker pool with errgroup, propagating
// cancellation to a fixed number of workers instead of one goroutine per
// item.
type egress struct {
	tasks chan egressTask
	group *errgroup.Group
}

func newEgress(ctx context.Context, workers int) *egress {
	if workers <= 0 {
		workers = defaultEgressWorkers
	}
	group, groupCtx := errgroup.WithContext(ctx)
	e := &egress{tasks: make(chan egressTask, 256)}
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case task, ok := <-e.tasks:
					if !ok {
						return nil
					}
					task(groupCtx)
				}
			}
		})
	}
	e.group = group
	return e
}

// submit enqueues a task, dropping it with a warning if the queue is full
// rather than blocking the ingress loop.
func (e *egress) submit(task egressTask) {
	select {
	case e.tasks <- task:
	default:
		logging.Warn("listener", "egress queue full, dropping deferred RPC")
	}
}

// close closes the queue and waits for every worker to exit. Workers keep
// taking queued tasks until the queue is empty, unless the pool's context
// is cancelled first, in which case tasks still queued are not run.
func (e *egress) close() error {
	close(e.tasks)
	return e.group.Wait()
}
