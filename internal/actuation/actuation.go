// FilePath: internal/actuation/actuation.go
package actuation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Pusher writes a pin value to the device cloud.
type Pusher interface {
	UpdatePin(ctx context.Context, pin string, value float64) error
}

// Dispatcher pushes pin commands to the device cloud from a bounded queue.
// Enqueue never blocks; a full queue drops the command.
type Dispatcher struct {
	pusher  Pusher
	queue   chan job
	workers int
	timeout time.Duration

	wg      sync.WaitGroup
	started atomic.Bool
	stopped atomic.Bool

	pushed  atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// job is a queued command. done is set for synchronous pushes only.
type job struct {
	cmd  models.PinCommand
	done chan error
}

// Stats are the dispatcher counters since start.
type Stats struct {
	Queued  int   `json:"queued"`
	Pushed  int64 `json:"pushed"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

func New(pusher Pusher, cfg config.ActuationConfig) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	timeout := cfg.PushTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		pusher:  pusher,
		queue:   make(chan job, size),
		workers: workers,
		timeout: timeout,
	}
}

// Start launches the workers. They stop after ctx is cancelled and the
// queue has been drained; Wait blocks until then.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	nuts.L.Infof("[Actuation] Started %d worker(s), queue size %d", d.workers, cap(d.queue))
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue schedules commands for a best-effort push.
func (d *Dispatcher) Enqueue(cmds ...models.PinCommand) {
	for _, cmd := range cmds {
		select {
		case d.queue <- job{cmd: cmd}:
		default:
			d.dropped.Add(1)
			nuts.L.Warnf("[Actuation] Queue full, dropping %s=%v", cmd.Pin, cmd.Value)
		}
	}
}

// PushNow pushes synchronously. While the workers run, the push waits
// behind the commands already queued, so the cloud receives them first.
// Without running workers it pushes inline, bounded by the push timeout.
func (d *Dispatcher) PushNow(ctx context.Context, pin string, value float64) error {
	if !d.started.Load() || d.stopped.Load() {
		return d.push(ctx, pin, value)
	}

	j := job{cmd: models.PinCommand{Pin: pin, Value: value}, done: make(chan error, 1)}
	ahead := len(d.queue)
	select {
	case d.queue <- j:
	default:
		nuts.L.Warnf("[Actuation] Queue full, pushing %s=%v ahead of queued commands", pin, value)
		return d.push(ctx, pin, value)
	}

	wait := time.NewTimer(time.Duration(ahead+1) * d.timeout)
	defer wait.Stop()

	select {
	case err := <-j.done:
		return err
	case <-wait.C:
		return fmt.Errorf("push of %s timed out behind %d queued command(s)", pin, ahead)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) push(ctx context.Context, pin string, value float64) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.pusher.UpdatePin(ctx, pin, value); err != nil {
		d.failed.Add(1)
		return err
	}
	d.pushed.Add(1)
	return nil
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:  len(d.queue),
		Pushed:  d.pushed.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case j := <-d.queue:
			d.run(j)
		case <-ctx.Done():
			d.stopped.Store(true)
			for {
				select {
				case j := <-d.queue:
					d.run(j)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) run(j job) {
	err := d.push(context.Background(), j.cmd.Pin, j.cmd.Value)
	if j.done != nil {
		j.done <- err
		return
	}
	if err != nil {
		nuts.L.Errorf("[Actuation] Failed to push %s=%v: %v", j.cmd.Pin, j.cmd.Value, err)
	}
}
