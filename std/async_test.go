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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/almadar-io/orbital/eval"
)

// emitRecorder collects emitted events behind a mutex so timer
// goroutines can write safely.
type emitRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *emitRecorder) emit(event string, payload map[string]interface{}) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *emitRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

func testEnv(rec *emitRecorder) *eval.Ctx {
	env := eval.Minimal(nil, nil, "", 0)
	env.Handlers = &eval.Handlers{Emit: rec.emit}
	return env
}

func TestDelay(t *testing.T) {
	env := eval.Minimal(nil, nil, "", 0)
	start := time.Now()
	v, err := eval.Eval(context.Background(), []interface{}{"async/delay", float64(30)}, env)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("wanted nil, got %#v", v)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("resumed too early: %v", elapsed)
	}
}

func TestDelayCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := eval.Eval(ctx, []interface{}{"async/delay", float64(5000)}, eval.Minimal(nil, nil, "", 0))
	if err == nil {
		t.Fatal("wanted cancellation error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancel did not interrupt the delay")
	}
}

func TestDebounceCollapses(t *testing.T) {
	defer ResetFlows()
	rec := &emitRecorder{}
	env := testEnv(rec)
	ctx := context.Background()

	// Three calls inside 10ms collapse to one emit roughly 50ms
	// after the last call.
	call := []interface{}{"async/debounce", "E", float64(50)}
	for i := 0; i < 3; i++ {
		if _, err := eval.Eval(ctx, call, env); err != nil {
			t.Fatal(err)
		}
		time.Sleep(3 * time.Millisecond)
	}

	time.Sleep(20 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("emitted before the window closed: %v", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 || got[0] != "E" {
		t.Fatalf("wanted exactly one E, got %v", got)
	}
}

func TestDebounceIndependentNames(t *testing.T) {
	defer ResetFlows()
	rec := &emitRecorder{}
	env := testEnv(rec)
	ctx := context.Background()

	eval.Eval(ctx, []interface{}{"async/debounce", "A", float64(20)}, env)
	eval.Eval(ctx, []interface{}{"async/debounce", "B", float64(20)}, env)

	time.Sleep(60 * time.Millisecond)
	got := rec.snapshot()
	if len(got) != 2 {
		t.Fatalf("wanted both A and B, got %v", got)
	}
}

func TestThrottle(t *testing.T) {
	defer ResetFlows()
	rec := &emitRecorder{}
	env := testEnv(rec)
	ctx := context.Background()

	call := []interface{}{"async/throttle", "T", float64(100)}
	fired, err := eval.Eval(ctx, call, env)
	if err != nil {
		t.Fatal(err)
	}
	if fired != true {
		t.Fatal("first call should fire")
	}
	if fired, _ = eval.Eval(ctx, call, env); fired != false {
		t.Fatal("second call inside the window should drop")
	}
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("wanted one T, got %v", got)
	}
}

func TestRetryAttempts(t *testing.T) {
	attempts := 0
	eval.Register("test/flaky", func(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
		attempts++
		return nil, errors.New("boom")
	})

	opts := map[string]interface{}{
		"attempts":  float64(3),
		"backoff":   "fixed",
		"baseDelay": float64(10),
	}
	_, err := eval.Eval(context.Background(),
		[]interface{}{"async/retry", []interface{}{"test/flaky"}, opts},
		eval.Minimal(nil, nil, "", 0))
	if err == nil || err.Error() != "boom" {
		t.Fatalf("wanted the last error rethrown, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("wanted exactly 3 attempts, got %d", attempts)
	}
}

func TestRetrySucceedsEarly(t *testing.T) {
	attempts := 0
	eval.Register("test/second-try", func(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("not yet")
		}
		return "ok", nil
	})

	opts := map[string]interface{}{"backoff": "fixed", "baseDelay": float64(1)}
	v, err := eval.Eval(context.Background(),
		[]interface{}{"async/retry", []interface{}{"test/second-try"}, opts},
		eval.Minimal(nil, nil, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if v != "ok" || attempts != 2 {
		t.Fatalf("wanted ok after 2 attempts, got %v after %d", v, attempts)
	}
}

func TestTimeoutWins(t *testing.T) {
	_, err := eval.Eval(context.Background(),
		[]interface{}{"async/timeout",
			[]interface{}{"async/delay", float64(5000)},
			float64(20)},
		eval.Minimal(nil, nil, "", 0))
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("wanted TimeoutError, got %v", err)
	}
}

func TestTimeoutLoses(t *testing.T) {
	v, err := eval.Eval(context.Background(),
		[]interface{}{"async/timeout",
			[]interface{}{"+", float64(1), float64(2)},
			float64(1000)},
		eval.Minimal(nil, nil, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if v != float64(3) {
		t.Fatalf("wanted 3, got %#v", v)
	}
}

func TestRace(t *testing.T) {
	v, err := eval.Eval(context.Background(),
		[]interface{}{"async/race",
			[]interface{}{"do", []interface{}{"async/delay", float64(200)}, "slow"},
			[]interface{}{"do", []interface{}{"async/delay", float64(10)}, "fast"}},
		eval.Minimal(nil, nil, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if v != "fast" {
		t.Fatalf("wanted fast, got %#v", v)
	}
}

func TestAll(t *testing.T) {
	v, err := eval.Eval(context.Background(),
		[]interface{}{"async/all",
			[]interface{}{"do", []interface{}{"async/delay", float64(30)}, "a"},
			[]interface{}{"do", []interface{}{"async/delay", float64(5)}, "b"}},
		eval.Minimal(nil, nil, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	got, is := v.([]interface{})
	if !is || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("wanted results in argument order, got %#v", v)
	}
}

func TestAllFailFast(t *testing.T) {
	eval.Register("test/fail", func(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
		return nil, errors.New("nope")
	})
	start := time.Now()
	_, err := eval.Eval(context.Background(),
		[]interface{}{"async/all",
			[]interface{}{"async/delay", float64(2000)},
			[]interface{}{"test/fail"}},
		eval.Minimal(nil, nil, "", 0))
	if err == nil {
		t.Fatal("wanted an error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("did not fail fast")
	}
}

func TestSequence(t *testing.T) {
	order := []string{}
	eval.Register("test/mark", func(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
		v, err := eval.Eval(ctx, args[0], env)
		if err != nil {
			return nil, err
		}
		order = append(order, eval.Str(v))
		return v, nil
	})
	v, err := eval.Eval(context.Background(),
		[]interface{}{"async/sequence",
			[]interface{}{"test/mark", "one"},
			[]interface{}{"test/mark", "two"}},
		eval.Minimal(nil, nil, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := v.([]interface{})
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("wanted collected results, got %#v", v)
	}
	if len(order) != 2 || order[0] != "one" {
		t.Fatalf("wanted strict order, got %v", order)
	}
}
