package framework

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is used when Loop.Interval is not set.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers periodically on a single goroutine.
// Anything not safe for concurrent use (e.g. a bus driver) can be
// confined to the controllers and fed through PostMessage.
type Loop struct {
	// Interval is consulted before every wait, so it may change at
	// runtime.
	Interval func() time.Duration

	controllers []Controller
	runners     []Runnable

	messages messageList
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx      context.Context
	time     time.Time
	ticked   bool
	messages messageList
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

type messageItem struct {
	msg  Message
	next *messageItem
}

func (l *messageList) append(item *messageItem) {
	item.next = nil
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) take() *messageList {
	taken := &messageList{head: l.head, tail: l.tail}
	l.head, l.tail = nil, nil
	return taken
}

type loopCtxKey struct{}

// LoopCtlFrom gets LoopControl from the context passed to runners.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey{}).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{wakeUpCh: make(chan struct{}, 1)}
}

// WithInterval sets a fixed interval.
func (l *Loop) WithInterval(d time.Duration) *Loop {
	l.Interval = func() time.Duration { return d }
	return l
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers, run in order of registration.
// Controllers which are also Runnable are started with the loop.
func (l *Loop) AddController(ctls ...Controller) *Loop {
	l.controllers = append(l.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnables started and stopped with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	runCtx, cancel := context.WithCancel(context.WithValue(ctx, loopCtxKey{}, LoopControl(l)))
	runner := NewRunnerWith(runCtx)
	runner.Go(l.runners...)
	defer func() {
		cancel()
		if err := runner.Wait(); err != nil {
			glog.Errorf("loop runners: %v", err)
		}
	}()

	timer := time.NewTimer(l.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-runner.Failed():
			cancel()
			return runner.Wait()
		case <-timer.C:
			l.runIteration(runCtx, true)
			timer.Reset(l.interval())
		case <-l.wakeUpCh:
			l.runIteration(runCtx, false)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop
// until SIGINT/SIGTERM.
func (l *Loop) RunOrFail() {
	runner := NewRunner().HandleSignals()
	if err := l.Run(runner.Context); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}

// RunOnce runs a single ticked iteration, for tests and one-shot tools.
func (l *Loop) RunOnce(ctx context.Context) {
	l.runIteration(context.WithValue(ctx, loopCtxKey{}, LoopControl(l)), true)
}

// RunTriggered runs a single iteration the way TriggerNext does, with
// Ticked false.
func (l *Loop) RunTriggered(ctx context.Context) {
	l.runIteration(context.WithValue(ctx, loopCtxKey{}, LoopControl(l)), false)
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) interval() time.Duration {
	if l.Interval != nil {
		if d := l.Interval(); d > 0 {
			return d
		}
	}
	return DefaultInterval
}

func (l *Loop) runIteration(ctx context.Context, ticked bool) {
	iter := &loopIteration{Loop: l, ctx: ctx, time: time.Now(), ticked: ticked}
	l.lock.Lock()
	iter.messages = *l.messages.take()
	l.lock.Unlock()
	for _, ctl := range l.controllers {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
	if iter.messages.head != nil {
		glog.V(2).Info("unprocessed messages dropped")
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Ticked() bool {
	return t.ticked
}

func (t *loopIteration) ProcessMessages(fn func(Message) bool) {
	var remains messageList
	pending := t.messages.take()
	for item := pending.head; item != nil; {
		next := item.next
		if !fn(item.msg) {
			remains.append(item)
		}
		item = next
	}
	t.messages = remains
}
