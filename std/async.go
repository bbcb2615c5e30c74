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

package std

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/almadar-io/orbital/eval"
)

// The async combinators are the evaluator's only suspension points.
// Everything else in the operator library is synchronous.

// TimeoutError is the distinguished failure produced by
// async/timeout, distinct from any failure of the raced effect
// itself.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return "timeout after " + e.After.String()
}

// flowTable is the process-wide debounce/throttle state, keyed by
// event name.  It is deliberately shared across evaluations (that is
// the whole point of debouncing), created once, guarded by a single
// mutex, and cleared by ResetFlows on shutdown or between tests.
type flowTable struct {
	mu       sync.Mutex
	debounce map[string]*time.Timer
	throttle map[string]time.Time
}

var flows = &flowTable{
	debounce: make(map[string]*time.Timer),
	throttle: make(map[string]time.Time),
}

// ResetFlows stops all pending debounce timers and forgets all
// throttle timestamps.
func ResetFlows() {
	flows.mu.Lock()
	for name, timer := range flows.debounce {
		timer.Stop()
		delete(flows.debounce, name)
	}
	for name := range flows.throttle {
		delete(flows.throttle, name)
	}
	flows.mu.Unlock()
}

type settled struct {
	v   interface{}
	err error
}

func init() {
	eval.Register("async/delay", opDelay)
	eval.Register("async/timeout", opTimeout)
	eval.Register("async/debounce", opDebounce)
	eval.Register("async/throttle", opThrottle)
	eval.Register("async/retry", opRetry)
	eval.Register("async/race", opRace)
	eval.Register("async/all", opAll)
	eval.Register("async/sequence", opSequence)
}

func msArg(ctx context.Context, op string, args []interface{}, pos int, env *eval.Ctx) (time.Duration, error) {
	if len(args) <= pos {
		return 0, &eval.MissingArg{Op: op, Pos: pos}
	}
	v, err := eval.Eval(ctx, args[pos], env)
	if err != nil {
		return 0, err
	}
	return time.Duration(eval.Num(v)) * time.Millisecond, nil
}

// opDelay suspends the calling evaluation for the given milliseconds,
// then resumes with no value.
func opDelay(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	d, err := msArg(ctx, "async/delay", args, 0, env)
	if err != nil {
		return nil, err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// opTimeout races an effect against a timer.  If the timer wins, the
// combinator fails with a TimeoutError; the effect's own eventual
// completion is not awaited further (and not cancelled).
func opTimeout(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	if len(args) < 1 {
		return nil, &eval.MissingArg{Op: "async/timeout", Pos: 0}
	}
	d, err := msArg(ctx, "async/timeout", args, 1, env)
	if err != nil {
		return nil, err
	}

	ch := make(chan settled, 1)
	go func() {
		v, err := eval.Eval(ctx, args[0], env)
		ch <- settled{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case s := <-ch:
		return s.v, s.err
	case <-timer.C:
		return nil, &TimeoutError{After: d}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// opDebounce (re)arms a per-event-name timer.  Only the last call
// within any window survives; when the timer expires, the named event
// is emitted through the context's Emit handler.
func opDebounce(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	name, err := evalString(ctx, "async/debounce", args, 0, env)
	if err != nil {
		return nil, err
	}
	d, err := msArg(ctx, "async/debounce", args, 1, env)
	if err != nil {
		return nil, err
	}

	h := env.Handlers

	flows.mu.Lock()
	if pending, have := flows.debounce[name]; have {
		pending.Stop()
	}
	flows.debounce[name] = time.AfterFunc(d, func() {
		flows.mu.Lock()
		delete(flows.debounce, name)
		flows.mu.Unlock()
		if h != nil && h.Emit != nil {
			h.Emit(name, nil)
		}
	})
	flows.mu.Unlock()

	return nil, nil
}

// opThrottle emits the named event unless a call for the same name
// fired within the window; dropped calls return false, fired calls
// true.
func opThrottle(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	name, err := evalString(ctx, "async/throttle", args, 0, env)
	if err != nil {
		return nil, err
	}
	d, err := msArg(ctx, "async/throttle", args, 1, env)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	flows.mu.Lock()
	last, have := flows.throttle[name]
	if have && now.Sub(last) < d {
		flows.mu.Unlock()
		return false, nil
	}
	flows.throttle[name] = now
	flows.mu.Unlock()

	if h := env.Handlers; h != nil && h.Emit != nil {
		h.Emit(name, nil)
	}
	return true, nil
}

// opRetry attempts an effect up to opts.attempts times, sleeping per
// the backoff policy between attempts.  Success returns immediately;
// once attempts are exhausted the last error is rethrown.
func opRetry(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	if len(args) < 1 {
		return nil, &eval.MissingArg{Op: "async/retry", Pos: 0}
	}

	attempts, backoff, base := 3, "exponential", 100*time.Millisecond
	if 1 < len(args) {
		v, err := eval.Eval(ctx, args[1], env)
		if err != nil {
			return nil, err
		}
		if opts := eval.ToMap(v); opts != nil {
			if x, have := opts["attempts"]; have {
				attempts = int(eval.Num(x))
			}
			if x, have := opts["backoff"]; have {
				backoff = eval.Str(x)
			}
			if x, have := opts["baseDelay"]; have {
				base = time.Duration(eval.Num(x)) * time.Millisecond
			}
		}
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := eval.Eval(ctx, args[0], env)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		var d time.Duration
		switch backoff {
		case "fixed":
			d = base
		case "linear":
			d = base * time.Duration(i+1)
		default: // exponential
			d = time.Duration(float64(base) * math.Pow(2, float64(i)))
		}
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// opRace evaluates all effects concurrently and settles with
// whichever finishes first.  Losers are not cancelled, only ignored.
func opRace(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	if len(args) == 0 {
		return nil, &eval.MissingArg{Op: "async/race", Pos: 0}
	}
	ch := make(chan settled, len(args))
	for _, a := range args {
		go func(a interface{}) {
			v, err := eval.Eval(ctx, a, env)
			ch <- settled{v, err}
		}(a)
	}
	select {
	case s := <-ch:
		return s.v, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// opAll evaluates all effects concurrently and resolves with the
// results in argument order, or fails as soon as any effect fails.
func opAll(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	type indexed struct {
		i int
		settled
	}
	ch := make(chan indexed, len(args))
	for i, a := range args {
		go func(i int, a interface{}) {
			v, err := eval.Eval(ctx, a, env)
			ch <- indexed{i, settled{v, err}}
		}(i, a)
	}
	acc := make([]interface{}, len(args))
	for n := 0; n < len(args); n++ {
		select {
		case s := <-ch:
			if s.err != nil {
				return nil, s.err
			}
			acc[s.i] = s.v
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return acc, nil
}

// opSequence evaluates strictly one at a time, in order, collecting
// results; a failure stops the sequence and propagates.
func opSequence(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	acc := make([]interface{}, 0, len(args))
	for _, a := range args {
		v, err := eval.Eval(ctx, a, env)
		if err != nil {
			return nil, err
		}
		acc = append(acc, v)
	}
	return acc, nil
}
