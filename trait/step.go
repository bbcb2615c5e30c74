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
	"log/slog"
	"strings"
	"time"

	"github.com/almadar-io/orbital/eval"
)

// Engine executes traits: it selects transitions, evaluates guards,
// fires ordered effects, and changes instance state.
type Engine struct {
	// Handlers receive the effects fired by transitions and ticks.
	// Entity mutation is applied to the instance first and then
	// forwarded (if a handler is present).
	Handlers *eval.Handlers

	// Singletons maps names to shared entity instances, reachable
	// by name from any expression.
	Singletons map[string]map[string]interface{}

	// Logger, if set, records swallowed guard errors, tick fires,
	// and effect failures.
	Logger *slog.Logger

	// StrictGuards makes a guard evaluation error fail the
	// dispatch.  The default treats a guard error as "guard false"
	// (logged at warn), keeping the machine live under malformed
	// config.
	StrictGuards bool

	// Clock supplies @now.  Defaults to time.Now.
	Clock func() time.Time
}

// NewEngine makes an engine with the given effect handlers.
func NewEngine(h *eval.Handlers) *Engine {
	return &Engine{
		Handlers:   h,
		Singletons: map[string]map[string]interface{}{},
	}
}

// Attach installs the trait's singleton entity seeds into the engine,
// once per name.
func (e *Engine) Attach(t *Trait) {
	if e.Singletons == nil {
		e.Singletons = map[string]map[string]interface{}{}
	}
	for name, seed := range t.SingletonSeed() {
		if _, have := e.Singletons[name]; !have {
			e.Singletons[name] = seed
		}
	}
}

// Stride is the result of dispatching one event to one instance.
type Stride struct {
	// Event is the dispatched event name.
	Event string

	// Fired reports whether any transition fired.  An event with
	// no matching transition (or all guards false) is not an
	// error; it just doesn't fire.
	Fired bool

	// From and To are the state names before and after.  Equal
	// when the transition does not change state.
	From string
	To   string

	// Transition is the transition that fired, if any.
	Transition *Transition
}

// Dispatch processes one event for one instance to completion:
// transition selection, guard evaluation, ordered effects, state
// change.  One event or tick per instance is in flight at a time.
func (e *Engine) Dispatch(ctx context.Context, inst *Instance, event string, payload map[string]interface{}) (*Stride, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return e.dispatch(ctx, inst, event, payload)
}

func (e *Engine) dispatch(ctx context.Context, inst *Instance, event string, payload map[string]interface{}) (*Stride, error) {
	stride := &Stride{
		Event: event,
		From:  inst.State,
		To:    inst.State,
	}

	for _, tr := range inst.Trait.Machine.Transitions {
		if tr.Event != event || !tr.Matches(inst.State) {
			continue
		}

		pass, err := e.guard(ctx, inst, tr.Guard, payload)
		if err != nil {
			if e.StrictGuards {
				return nil, err
			}
			e.warn("guard error treated as false",
				"trait", inst.Trait.Name,
				"instance", inst.Id,
				"event", event,
				"error", err)
			continue
		}
		if !pass {
			continue
		}

		env := e.env(inst, payload).WithHandlers(e.wrap(inst))
		for _, effect := range tr.Effects {
			if _, err := eval.Eval(ctx, effect, env); err != nil {
				return nil, err
			}
		}

		if tr.To != "" {
			inst.State = tr.To
		}
		stride.Fired = true
		stride.To = inst.State
		stride.Transition = tr
		return stride, nil
	}

	return stride, nil
}

// guard evaluates a transition guard against a handler-less context,
// so effectful subexpressions in a guard cannot fire.
func (e *Engine) guard(ctx context.Context, inst *Instance, guard interface{}, payload map[string]interface{}) (bool, error) {
	if guard == nil {
		return true, nil
	}
	v, err := eval.Eval(ctx, guard, e.env(inst, payload))
	if err != nil {
		return false, err
	}
	return eval.Truthy(v), nil
}

// env builds the evaluation context for one instance and payload.
func (e *Engine) env(inst *Instance, payload map[string]interface{}) *eval.Ctx {
	singletons := make(map[string]map[string]interface{}, len(e.Singletons)+1)
	for name, m := range e.Singletons {
		singletons[name] = m
	}
	singletons["trait"] = map[string]interface{}{
		"name":     inst.Trait.Name,
		"category": inst.Trait.Category,
	}

	return &eval.Ctx{
		Entity:     inst.Entity,
		Payload:    payload,
		State:      inst.State,
		Now:        e.now().UnixMilli(),
		Config:     inst.Config,
		Singletons: singletons,
	}
}

// wrap layers instance-local entity mutation under the engine's
// handlers: a mutate-entity change map is applied to the instance's
// entity first, then forwarded.
func (e *Engine) wrap(inst *Instance) *eval.Handlers {
	h := eval.Handlers{}
	if e.Handlers != nil {
		h = *e.Handlers
	}
	forward := h.MutateEntity
	h.MutateEntity = func(changes map[string]interface{}) {
		applyChanges(inst.Entity, changes)
		if forward != nil {
			forward(changes)
		}
	}
	return &h
}

// applyChanges writes a dot-path change map into an entity, creating
// intermediate maps as needed.
func applyChanges(entity map[string]interface{}, changes map[string]interface{}) {
	for path, v := range changes {
		segs := strings.Split(path, ".")
		at := entity
		for _, seg := range segs[:len(segs)-1] {
			next, is := at[seg].(map[string]interface{})
			if !is {
				next = map[string]interface{}{}
				at[seg] = next
			}
			at = next
		}
		at[segs[len(segs)-1]] = v
	}
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Engine) warn(msg string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Warn(msg, args...)
	}
}
