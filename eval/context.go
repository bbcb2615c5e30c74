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

package eval

import (
	"context"
	"strings"
)

// Handlers is the set of injected effect callbacks.  Every field is
// optional; an effect operator whose handler is nil is a silent
// no-op, which makes it safe to evaluate effectful expressions for
// guard checking.
type Handlers struct {
	MutateEntity func(changes map[string]interface{})
	Emit         func(event string, payload map[string]interface{})
	Navigate     func(route string, params map[string]interface{})
	Persist      func(ctx context.Context, action string, data map[string]interface{}) (interface{}, error)
	Notify       func(message string, severity string)
	Spawn        func(entityType string, props map[string]interface{})
	Despawn      func(entityID string)
	CallService  func(ctx context.Context, service, method string, params map[string]interface{}) (interface{}, error)
	RenderUI     func(slot, pattern string, props map[string]interface{}, priority float64)
	Fetch        func(ctx context.Context, entityType string, opts map[string]interface{}) (interface{}, error)
}

// Ctx is the value bundle that an expression is evaluated against.
//
// A root Ctx is created per evaluation (per incoming event).  Nested
// scopes derive children via Child; "locals" is the only axis of
// scoping, so everything else is inherited by reference.  By
// convention nothing mutates a Ctx during evaluation; entity data
// changes only through the MutateEntity handler.
type Ctx struct {
	// Entity is the instance currently in scope.
	Entity map[string]interface{}

	// Payload is the triggering event's data.
	Payload map[string]interface{}

	// State is the current state name.
	State string

	// Now is an epoch-millisecond timestamp.  It is supplied, not
	// computed, so that evaluation is deterministic.
	Now int64

	// User optionally carries role/permission data.
	User map[string]interface{}

	// Config carries the instance's trait configuration.
	Config map[string]interface{}

	// Singletons maps names to other named entity instances.
	Singletons map[string]map[string]interface{}

	// Locals is the lexical scope populated by let and lambda
	// bindings.  Locals shadow core roots and singleton names
	// identically.
	Locals map[string]interface{}

	// Handlers, if present, execute side effects.
	Handlers *Handlers
}

// Minimal makes a handler-less context with the given data.
func Minimal(entity, payload map[string]interface{}, state string, now int64) *Ctx {
	return &Ctx{
		Entity:  entity,
		Payload: payload,
		State:   state,
		Now:     now,
	}
}

// Child derives a context for a nested scope.  The parent's locals
// are copied and then overlaid with newLocals (later wins); the
// parent is never mutated, so sibling scopes cannot observe each
// other's bindings.
func (c *Ctx) Child(newLocals map[string]interface{}) *Ctx {
	kid := *c
	kid.Locals = make(map[string]interface{}, len(c.Locals)+len(newLocals))
	for name, v := range c.Locals {
		kid.Locals[name] = v
	}
	for name, v := range newLocals {
		kid.Locals[name] = v
	}
	return &kid
}

// WithHandlers returns a copy of the context with the given handlers
// overlaid.  Used to inject real side-effect execution into an
// otherwise handler-less context.
func (c *Ctx) WithHandlers(h *Handlers) *Ctx {
	kid := *c
	kid.Handlers = h
	return &kid
}

// Resolve resolves a binding string against the context.
//
// Missing roots, missing keys, and path descent into non-maps all
// resolve to nil; Resolve never fails.  Locals are consulted first
// and shadow everything else.
func (c *Ctx) Resolve(binding string) interface{} {
	if !strings.HasPrefix(binding, "@") {
		return nil
	}
	parts := strings.Split(binding[1:], ".")
	root := parts[0]

	var at interface{}
	if v, have := c.Locals[root]; have {
		at = v
	} else {
		switch root {
		case "entity":
			at = c.Entity
		case "payload":
			at = c.Payload
		case "state":
			at = c.State
		case "now":
			at = c.Now
		case "user":
			at = c.User
		case "config":
			at = c.Config
		default:
			if m, have := c.Singletons[root]; have {
				at = m
			} else {
				return nil
			}
		}
	}

	for _, seg := range parts[1:] {
		if at == nil {
			return nil
		}
		m, is := at.(map[string]interface{})
		if !is {
			// Path navigation into a non-map (e.g.
			// "@state.x") resolves to nil.
			return nil
		}
		at = m[seg]
	}

	return at
}
