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
	"sync"

	"github.com/google/uuid"
)

// ConfigError reports a problem applying a trait's config schema at
// instance creation.
type ConfigError struct {
	Trait  string
	Param  string
	Detail string
}

func (e *ConfigError) Error() string {
	return "trait " + e.Trait + " config " + e.Param + ": " + e.Detail
}

// Instance is one live application of a trait: its own entity data
// and current state name, sharing the (immutable) trait definition.
type Instance struct {
	// Id is a unique identifier for this instance.
	Id string `json:"id"`

	Trait *Trait `json:"-"`

	// State is the current state name.
	State string `json:"state"`

	// Entity is this instance's data, seeded from the trait's
	// per-instance data-entity defaults and mutated only through
	// the mutate-entity effect.
	Entity map[string]interface{} `json:"entity"`

	// Config is the instance's validated configuration: supplied
	// values overlaid on schema defaults.
	Config map[string]interface{} `json:"config"`

	// One in-flight event or tick per instance at a time.
	mu sync.Mutex
}

// NewInstance validates config against the trait's schema, applies
// defaults, seeds entity data, and puts the instance in the machine's
// initial state.
func NewInstance(t *Trait, config map[string]interface{}) (*Instance, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	cfg := make(map[string]interface{}, len(t.Config))
	for name, p := range t.Config {
		if v, have := config[name]; have {
			cfg[name] = v
			continue
		}
		if p.Required {
			return nil, &ConfigError{Trait: t.Name, Param: name, Detail: "required"}
		}
		if p.Default != nil {
			cfg[name] = p.Default
		}
	}
	// Pass through supplied values the schema doesn't mention.
	for name, v := range config {
		if _, have := cfg[name]; !have {
			cfg[name] = v
		}
	}

	entity := map[string]interface{}{}
	for _, spec := range t.DataEntities {
		if spec == nil || spec.Singleton {
			continue
		}
		for _, f := range spec.Fields {
			entity[f.Name] = f.Default
		}
	}

	return &Instance{
		Id:     uuid.NewString(),
		Trait:  t,
		State:  t.InitialState(),
		Entity: entity,
		Config: cfg,
	}, nil
}

// SingletonSeed builds the initial data for the trait's singleton
// entities, keyed by entity name.  The engine installs these into its
// singleton map once per name.
func (t *Trait) SingletonSeed() map[string]map[string]interface{} {
	acc := map[string]map[string]interface{}{}
	for name, spec := range t.DataEntities {
		if spec == nil || !spec.Singleton {
			continue
		}
		m := map[string]interface{}{}
		for _, f := range spec.Fields {
			m[f.Name] = f.Default
		}
		acc[name] = m
	}
	return acc
}
