package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/amonks/rerun/internal/mutex"
	"github.com/amonks/rerun/internal/styles"
	"github.com/amonks/rerun/internal/watcher"
	"github.com/amonks/rerun/tasks"
	"golang.org/x/sync/errgroup"
)

// A Watch re-runs tasks when files matching its rules change.
//
// Triggers coalesce: while the tasks for a rule are running, any number of
// further changes matching that rule queue up exactly one more run. Rules
// are served in the order they were first triggered, one run at a time.
type Watch struct {
	r     *Runner
	rules []tasks.WatchRule

	mu      *mutex.Mutex
	pending []int
	queued  map[int]bool
	wake    chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Watch prepares a Watch for the given rules. Nothing is watched until
// [Watch.Start] is called.
func (r *Runner) Watch(rules ...tasks.WatchRule) *Watch {
	return &Watch{
		r:      r,
		rules:  rules,
		mu:     mutex.New("watch"),
		queued: map[int]bool{},
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start begins watching. It returns once every pattern is being watched, or
// with an error if any rule names an unplannable task or any pattern can't
// be watched, in which case nothing is left running.
//
// The watch runs until ctx is canceled or [Watch.Stop] is called.
func (w *Watch) Start(ctx context.Context) error {
	for _, rule := range w.rules {
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("%w: rule for %s has no patterns", tasks.ErrInvalidWatch, strings.Join(rule.Tasks, ", "))
		}
		for _, id := range rule.Tasks {
			if _, err := w.r.library.Plan(id); err != nil {
				return err
			}
		}
	}

	type stream struct {
		rule    int
		pattern string
		c       <-chan []watcher.EventInfo
	}
	var (
		streams []stream
		stops   []func()
	)
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}
	for i, rule := range w.rules {
		for _, pattern := range rule.Patterns {
			path := pattern
			if !filepath.IsAbs(path) {
				path = filepath.Join(w.r.dir, path)
			}
			c, stop, err := watcher.Watch(path)
			if err != nil {
				stopAll()
				return fmt.Errorf("%w: can't watch '%s': %w", tasks.ErrInvalidWatch, pattern, err)
			}
			stops = append(stops, stop)
			streams = append(streams, stream{i, path, c})
			w.r.printf(InternalTaskWatch, styles.Log, "watching '%s' for %s", pattern, strings.Join(rule.Tasks, ", "))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range streams {
		g.Go(func() error {
			for evs := range s.c {
				if len(evs) == 0 {
					continue
				}
				w.trigger(s.rule, evs)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		// Stopping closes every stream, which ends the forwarders above.
		stopAll()
		return nil
	})
	g.Go(func() error {
		return w.loop(gctx)
	})

	go func() {
		err := g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		w.err = err
		close(w.done)
	}()

	return nil
}

// trigger queues rule i, unless it's already queued.
func (w *Watch) trigger(i int, evs []watcher.EventInfo) {
	var paths []string
	for _, ev := range evs {
		paths = append(paths, ev.Path)
	}

	mu := w.mu.Lock("trigger")
	already := w.queued[i]
	if !already {
		w.queued[i] = true
		w.pending = append(w.pending, i)
	}
	mu.Unlock()

	if already {
		w.r.printf(InternalTaskWatch, styles.Log, "%s changed; %s already queued", strings.Join(paths, ", "), strings.Join(w.rules[i].Tasks, ", "))
	} else {
		w.r.printf(InternalTaskWatch, styles.Log, "%s changed; queueing %s", strings.Join(paths, ", "), strings.Join(w.rules[i].Tasks, ", "))
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued rule. Once a rule is popped, new changes
// matching it queue it again.
func (w *Watch) next() (int, bool) {
	defer w.mu.Lock("next").Unlock()

	if len(w.pending) == 0 {
		return 0, false
	}
	i := w.pending[0]
	w.pending = w.pending[1:]
	delete(w.queued, i)
	return i, true
}

func (w *Watch) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.wake:
		}

		for {
			i, ok := w.next()
			if !ok {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			w.runRule(ctx, i)
		}
	}
}

// runRule runs a rule's tasks in order, stopping at the first failure. A
// failure is logged and the watch carries on.
func (w *Watch) runRule(ctx context.Context, i int) {
	for _, id := range w.rules[i].Tasks {
		err := w.r.Run(ctx, id)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			w.r.printf(InternalTaskWatch, styles.Failure, "%s; waiting for changes", err)
			return
		}
	}
	w.r.printf(InternalTaskWatch, styles.Log, "waiting for changes")
}

// Stop ends the watch. It waits for any run in progress to be canceled and
// for every watcher to be released.
func (w *Watch) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	<-w.done
	return w.err
}

// Done is closed once the watch has fully stopped.
func (w *Watch) Done() <-chan struct{} {
	return w.done
}
