/* Copyright 2026 Almadar, Inc.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package trait

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/almadar-io/orbital/eval"
)

// The scheduler uses a single time.Timer to implement all managed
// ticks.  When an alarm is added, it goes into a list ordered by
// ascending trigger time; whenever the head of that list changes, the
// internal timer is replaced with one that waits until the new head's
// time.  A Scheduler is designed to manage a few hundred alarms, not
// many thousands.  Don't expect much quality of service when many
// alarms fire within a narrow window.

var (
	ErrTooMany        = errors.New("too many alarms")
	ErrIdExists       = errors.New("id exists")
	ErrNotRunning     = errors.New("not running")
	ErrAlreadyRunning = errors.New("already running")
)

const (
	notRunning = int64(iota)
	schedRunning
)

// Alarm represents some work to be done in the future.
type Alarm struct {
	// Id is unique across all alarms managed by one Scheduler.
	Id string

	// F is the work to be performed.  The alarm is passed back to
	// make it a little easier to write general work functions.
	F func(context.Context, *Alarm)

	// At is the desired time to execute F.
	At time.Time
}

// Scheduler is a managed set of Alarms.
//
// You need to Run the Scheduler before calling Add.
type Scheduler struct {
	Max int

	sync.Mutex
	up      chan *Alarm
	backlog []*Alarm
	running int64
	ready   chan bool
}

// NewScheduler makes a scheduler with the given maximum number of
// pending alarms.
func NewScheduler(max int) *Scheduler {
	initial := max / 4
	if initial < 8 {
		initial = 8
	}
	return &Scheduler{
		Max:     max,
		up:      make(chan *Alarm, 32),
		backlog: make([]*Alarm, 0, initial),
		ready:   make(chan bool, 1),
	}
}

// Run starts the scheduler in the current goroutine.  This method
// must be running to use the instance.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.IsRunning() {
		return ErrAlreadyRunning
	}

	// timer waits for the current head of the backlog.  Replaced
	// whenever a new alarm becomes next in line.
	var timer *time.Timer

	atomic.StoreInt64(&s.running, schedRunning)
	s.ready <- true
LOOP:
	for {
		select {
		case <-ctx.Done():
			break LOOP
		case a := <-s.up:
			if timer != nil {
				timer.Stop()
			}
			d := time.Until(a.At)
			timer = time.AfterFunc(d, func() {
				s.Rem(a.Id) // We are optimistic.
				go a.F(ctx, a)
			})
		}
	}

	if timer != nil {
		timer.Stop()
	}
	<-s.ready
	atomic.StoreInt64(&s.running, notRunning)

	return nil
}

// IsRunning tries to report whether Run is currently executing.
func (s *Scheduler) IsRunning() bool {
	return atomic.LoadInt64(&s.running) == schedRunning
}

// Wait blocks until the scheduler is ready or the timeout elapses.
func (s *Scheduler) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case ok := <-s.ready:
		s.ready <- ok
		return true
	}
}

// Add adds an alarm.
func (s *Scheduler) Add(a *Alarm) error {
	if !s.IsRunning() {
		return ErrNotRunning
	}

	s.Lock()

	var err error
	if len(s.backlog) == s.Max {
		err = ErrTooMany
	} else {
		for _, x := range s.backlog {
			if x.Id == a.Id {
				err = ErrIdExists
				break
			}
		}

		if err == nil {
			n := len(s.backlog)
			i := sort.Search(n, func(i int) bool {
				return s.backlog[i].At.After(a.At)
			})

			// Try to avoid leaks ...
			switch i {
			case 0:
				s.backlog = append(s.backlog, nil)
				copy(s.backlog[1:], s.backlog)
				s.backlog[0] = a
				s.reset()
			case n:
				s.backlog = append(s.backlog, a)
			default:
				s.backlog = append(s.backlog, nil)
				copy(s.backlog[i+1:], s.backlog[i:])
				s.backlog[i] = a
			}
		}
	}

	s.Unlock()

	return err
}

// Rem removes an alarm by id.
func (s *Scheduler) Rem(id string) error {
	if !s.IsRunning() {
		return ErrNotRunning
	}

	s.Lock()
	n := len(s.backlog)
LOOP:
	for i, a := range s.backlog {
		if a.Id == id {
			// Try to avoid leaks.
			s.backlog[i] = nil
			switch i {
			case 0:
				s.backlog = s.backlog[1:]
				s.reset()
				break LOOP
			case n - 1:
				s.backlog = s.backlog[0:i]
				break LOOP
			default:
				head := s.backlog[0:i]
				tail := s.backlog[i+1:]
				s.backlog = append(head, tail...)
				break LOOP
			}
		}
	}
	s.Unlock()

	return nil
}

// reset indirectly replaces the internal timer with one for the new
// head of the backlog.
func (s *Scheduler) reset() {
	if 0 < len(s.backlog) {
		s.up <- s.backlog[0]
	}
}

// next computes a tick's next firing time after now: the cron
// schedule wins if given, otherwise the fixed interval.
func (t *Tick) next(now time.Time) (time.Time, error) {
	if t.Schedule != "" {
		expr, err := cronexpr.Parse(t.Schedule)
		if err != nil {
			return time.Time{}, err
		}
		return expr.Next(now), nil
	}
	return now.Add(time.Duration(t.IntervalMs) * time.Millisecond), nil
}

// StartTicks arms all of an instance's ticks on the scheduler.  Each
// tick re-arms itself after firing, until ctx is done.
func (e *Engine) StartTicks(ctx context.Context, s *Scheduler, inst *Instance) error {
	for _, tick := range inst.Trait.Ticks {
		if err := e.armTick(ctx, s, inst, tick); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) armTick(ctx context.Context, s *Scheduler, inst *Instance, tick *Tick) error {
	at, err := tick.next(e.now())
	if err != nil {
		return err
	}
	return s.Add(&Alarm{
		Id: inst.Id + "/" + tick.Name,
		At: at,
		F: func(ctx context.Context, _ *Alarm) {
			e.fireTick(ctx, inst, tick)
			if ctx.Err() != nil {
				return
			}
			if err := e.armTick(ctx, s, inst, tick); err != nil && err != ErrNotRunning {
				e.warn("tick re-arm failed",
					"instance", inst.Id,
					"tick", tick.Name,
					"error", err)
			}
		},
	})
}

// fireTick evaluates one tick: guard, then ordered effects, holding
// the instance lock so tick effects never interleave with an
// in-flight event's effect list for the same instance.
func (e *Engine) fireTick(ctx context.Context, inst *Instance, tick *Tick) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	pass, err := e.guard(ctx, inst, tick.Guard, nil)
	if err != nil {
		if e.StrictGuards {
			e.warn("tick guard failed",
				"instance", inst.Id, "tick", tick.Name, "error", err)
			return
		}
		e.warn("tick guard error treated as false",
			"instance", inst.Id, "tick", tick.Name, "error", err)
		return
	}
	if !pass {
		return
	}

	env := e.env(inst, nil).WithHandlers(e.wrap(inst))
	for _, effect := range tick.Effects {
		if _, err := eval.Eval(ctx, effect, env); err != nil {
			e.warn("tick effect failed",
				"instance", inst.Id, "tick", tick.Name, "error", err)
			return
		}
	}
}
