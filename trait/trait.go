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

// Package trait implements declarative behavior templates: named state
// machines whose guards, effects, and ticks are expressions evaluated
// by the eval package.
//
// A Trait is a template, not a live instance.  One trait is applied to
// many Instances, each carrying its own entity data and state name;
// the trait definition itself is immutable and shared.
package trait

import (
	"errors"
	"fmt"
)

// Trait is a specification used to build instances.
//
// A trait gives the structure of the behavior.  This data does not
// include any state (such as an instance's current state name or
// entity data).
type Trait struct {
	// Name is the generic name for this behavior.  Something like
	// "std/Pagination".
	Name string `json:"name" yaml:"name"`

	// Category groups related behaviors ("collection", "ui", ...).
	Category string `json:"category,omitempty" yaml:",omitempty"`

	// Doc is general documentation about how this trait works.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// DataEntities names the entity schemas this trait carries.
	// Per-instance entities seed each new instance's entity map;
	// singleton entities are shared by name across instances.
	DataEntities map[string]*EntitySpec `json:"dataEntities,omitempty" yaml:"dataEntities,omitempty"`

	// Machine is the structure of the state machine.
	Machine *Machine `json:"stateMachine,omitempty" yaml:"stateMachine,omitempty"`

	// Ticks are periodically re-evaluated guarded effect lists,
	// independent of discrete events.
	Ticks []*Tick `json:"ticks,omitempty" yaml:",omitempty"`

	// Config maps parameter names to their specifications.  A
	// parameter is really just a config value that's provided (or
	// defaulted) when an instance is created.
	Config map[string]*ParamSpec `json:"configSchema,omitempty" yaml:"configSchema,omitempty"`
}

// EntitySpec is the schema for one data entity carried by a trait.
type EntitySpec struct {
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Singleton entities are process/page-scoped and reachable by
	// name from any context; everything else is per-instance.
	Singleton bool `json:"singleton,omitempty" yaml:",omitempty"`

	Fields []FieldSpec `json:"fields,omitempty" yaml:",omitempty"`
}

// FieldSpec describes one field of a data entity.
type FieldSpec struct {
	Name    string      `json:"name" yaml:"name"`
	Type    string      `json:"type,omitempty" yaml:",omitempty"`
	Default interface{} `json:"default,omitempty" yaml:",omitempty"`
}

// ParamSpec is the specification for a single configuration
// parameter.
type ParamSpec struct {
	Doc      string      `json:"doc,omitempty" yaml:",omitempty"`
	Type     string      `json:"type,omitempty" yaml:",omitempty"`
	Required bool        `json:"required,omitempty" yaml:",omitempty"`
	Default  interface{} `json:"default,omitempty" yaml:",omitempty"`
}

// Machine is a trait's state machine: a state catalog, an event
// catalog, and an ordered transition list.
type Machine struct {
	// States maps state names to their specs.  Exactly one state
	// is marked initial.
	States map[string]*StateSpec `json:"states" yaml:"states"`

	// Events is the catalog of event names this machine consumes.
	Events []string `json:"events,omitempty" yaml:",omitempty"`

	// Transitions is the list (ordered) of possible transitions.
	// On dispatch the first matching transition whose guard passes
	// wins; order is significant.
	Transitions []*Transition `json:"transitions" yaml:"transitions"`
}

// StateSpec describes one state.
type StateSpec struct {
	Doc       string `json:"doc,omitempty" yaml:",omitempty"`
	IsInitial bool   `json:"isInitial,omitempty" yaml:"isInitial,omitempty"`
}

// Wildcard as a Transition.From matches any current state.
const Wildcard = "*"

// Transition is a possible reaction to an event.
type Transition struct {
	// From is one state name, a list of state names, or the
	// wildcard "*" meaning any current state.
	From interface{} `json:"from,omitempty" yaml:",omitempty"`

	// To is the name of the next state.  Empty means the state
	// does not change.
	To string `json:"to,omitempty" yaml:",omitempty"`

	// Event is the triggering event name.
	Event string `json:"event" yaml:"event"`

	// Guard is an optional expression that must evaluate truthy
	// for the transition to fire.
	Guard interface{} `json:"guard,omitempty" yaml:",omitempty"`

	// Effects is the ordered list of effect expressions executed
	// only if the guard passes.
	Effects []interface{} `json:"effects,omitempty" yaml:",omitempty"`
}

// Matches reports whether this transition can fire from the given
// state.
func (t *Transition) Matches(state string) bool {
	switch from := t.From.(type) {
	case nil:
		return true
	case string:
		return from == Wildcard || from == state
	case []interface{}:
		for _, x := range from {
			if s, is := x.(string); is && s == state {
				return true
			}
		}
		return false
	case []string:
		for _, s := range from {
			if s == state {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Tick is a periodically re-evaluated guarded effect list.
type Tick struct {
	Name string `json:"name" yaml:"name"`

	// IntervalMs is the firing interval in milliseconds.
	IntervalMs float64 `json:"intervalMs,omitempty" yaml:"intervalMs,omitempty"`

	// Schedule is an optional cron expression used instead of
	// IntervalMs.
	Schedule string `json:"schedule,omitempty" yaml:",omitempty"`

	Guard   interface{}   `json:"guard,omitempty" yaml:",omitempty"`
	Effects []interface{} `json:"effects,omitempty" yaml:",omitempty"`
}

// ValidationError reports a structural problem with a trait.
type ValidationError struct {
	Trait  string
	Detail string
}

func (e *ValidationError) Error() string {
	return "trait " + e.Trait + ": " + e.Detail
}

func (t *Trait) invalid(format string, args ...interface{}) error {
	return &ValidationError{Trait: t.Name, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks a trait's structure: a named machine with exactly
// one initial state, transitions that reference known states and
// events, and ticks with a firing schedule.
func (t *Trait) Validate() error {
	if t.Name == "" {
		return errors.New("trait has no name")
	}
	if t.Machine == nil {
		return t.invalid("no state machine")
	}
	if len(t.Machine.States) == 0 {
		return t.invalid("no states")
	}

	initials := 0
	for _, s := range t.Machine.States {
		if s != nil && s.IsInitial {
			initials++
		}
	}
	if initials != 1 {
		return t.invalid("wanted exactly one initial state, have %d", initials)
	}

	events := map[string]bool{}
	for _, e := range t.Machine.Events {
		events[e] = true
	}

	for i, tr := range t.Machine.Transitions {
		if tr.Event == "" {
			return t.invalid("transition %d has no event", i)
		}
		if 0 < len(events) && !events[tr.Event] {
			return t.invalid("transition %d event %q not in event catalog", i, tr.Event)
		}
		for _, from := range t.fromStates(tr) {
			if from == Wildcard {
				continue
			}
			if _, have := t.Machine.States[from]; !have {
				return t.invalid("transition %d from unknown state %q", i, from)
			}
		}
		if tr.To != "" {
			if _, have := t.Machine.States[tr.To]; !have {
				return t.invalid("transition %d to unknown state %q", i, tr.To)
			}
		}
	}

	for i, tick := range t.Ticks {
		if tick.Name == "" {
			return t.invalid("tick %d has no name", i)
		}
		if tick.IntervalMs <= 0 && tick.Schedule == "" {
			return t.invalid("tick %q has neither intervalMs nor schedule", tick.Name)
		}
	}

	return nil
}

func (t *Trait) fromStates(tr *Transition) []string {
	switch from := tr.From.(type) {
	case string:
		return []string{from}
	case []interface{}:
		acc := make([]string, 0, len(from))
		for _, x := range from {
			if s, is := x.(string); is {
				acc = append(acc, s)
			}
		}
		return acc
	case []string:
		return from
	default:
		return nil
	}
}

// InitialState returns the name of the machine's initial state.
func (t *Trait) InitialState() string {
	if t.Machine == nil {
		return ""
	}
	for name, s := range t.Machine.States {
		if s != nil && s.IsInitial {
			return name
		}
	}
	return ""
}
