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

package catalog

import (
	"github.com/almadar-io/orbital/trait"
)

// The standard templates.  Each is a fresh copy per call so that a
// caller customizing one cannot alias another's definition.

func expr(xs ...interface{}) []interface{} { return xs }

// Pagination pages a collection: page advances only while more pages
// exist, per totalItems/pageSize.
func Pagination() *trait.Trait {
	lastPage := expr("ceil", expr("/", "@config.totalItems", "@config.pageSize"))
	return &trait.Trait{
		Name:     "std/Pagination",
		Category: "collection",
		DataEntities: map[string]*trait.EntitySpec{
			"pagination": {
				Fields: []trait.FieldSpec{
					{Name: "page", Type: "number", Default: float64(1)},
				},
			},
		},
		Config: map[string]*trait.ParamSpec{
			"pageSize":   {Type: "number", Default: float64(10)},
			"totalItems": {Type: "number", Required: true},
		},
		Machine: &trait.Machine{
			States: map[string]*trait.StateSpec{
				"active": {IsInitial: true},
			},
			Events: []string{"NEXT_PAGE", "PREV_PAGE", "GO_TO_PAGE"},
			Transitions: []*trait.Transition{
				{
					From:  "active",
					Event: "NEXT_PAGE",
					Guard: expr("<", "@entity.page", lastPage),
					Effects: []interface{}{
						expr("increment", "@entity.page"),
						expr("emit", "PAGE_CHANGED",
							map[string]interface{}{"page": "@entity.page"}),
					},
				},
				{
					From:  "active",
					Event: "PREV_PAGE",
					Guard: expr(">", "@entity.page", float64(1)),
					Effects: []interface{}{
						expr("decrement", "@entity.page"),
						expr("emit", "PAGE_CHANGED",
							map[string]interface{}{"page": "@entity.page"}),
					},
				},
				{
					From:  "active",
					Event: "GO_TO_PAGE",
					Guard: expr("and",
						expr(">=", "@payload.page", float64(1)),
						expr("<=", "@payload.page", lastPage)),
					Effects: []interface{}{
						expr("set", "@entity.page", "@payload.page"),
						expr("emit", "PAGE_CHANGED",
							map[string]interface{}{"page": "@entity.page"}),
					},
				},
			},
		},
	}
}

// Selection tracks selected ids.  In "single" mode a new selection
// replaces the old one; in "multiple" mode ids accumulate without
// duplicates.
func Selection() *trait.Trait {
	return &trait.Trait{
		Name:     "std/Selection",
		Category: "collection",
		DataEntities: map[string]*trait.EntitySpec{
			"selection": {
				Fields: []trait.FieldSpec{
					{Name: "selected", Type: "array", Default: []interface{}{}},
				},
			},
		},
		Config: map[string]*trait.ParamSpec{
			"mode": {Type: "string", Default: "multiple"},
		},
		Machine: &trait.Machine{
			States: map[string]*trait.StateSpec{
				"active": {IsInitial: true},
			},
			Events: []string{"SELECT", "DESELECT", "CLEAR"},
			Transitions: []*trait.Transition{
				{
					From:  "active",
					Event: "SELECT",
					Guard: expr("=", "@config.mode", "single"),
					Effects: []interface{}{
						expr("set", "@entity.selected",
							expr("concat", "@payload.id")),
						expr("emit", "SELECTION_CHANGED",
							map[string]interface{}{"selected": "@entity.selected"}),
					},
				},
				{
					From:  "active",
					Event: "SELECT",
					Effects: []interface{}{
						expr("set", "@entity.selected",
							expr("if",
								expr("includes", "@entity.selected", "@payload.id"),
								"@entity.selected",
								expr("concat", "@entity.selected", "@payload.id"))),
						expr("emit", "SELECTION_CHANGED",
							map[string]interface{}{"selected": "@entity.selected"}),
					},
				},
				{
					From:  "active",
					Event: "DESELECT",
					Effects: []interface{}{
						expr("set", "@entity.selected",
							expr("filter", "@entity.selected",
								expr("fn", "x", expr("!=", "@x", "@payload.id")))),
						expr("emit", "SELECTION_CHANGED",
							map[string]interface{}{"selected": "@entity.selected"}),
					},
				},
				{
					From:  "active",
					Event: "CLEAR",
					Effects: []interface{}{
						expr("set", "@entity.selected", []interface{}{}),
						expr("emit", "SELECTION_CHANGED",
							map[string]interface{}{"selected": "@entity.selected"}),
					},
				},
			},
		},
	}
}

// Sort toggles direction when the same field is sorted again and
// resets to ascending on a new field.
func Sort() *trait.Trait {
	return &trait.Trait{
		Name:     "std/Sort",
		Category: "collection",
		DataEntities: map[string]*trait.EntitySpec{
			"sort": {
				Fields: []trait.FieldSpec{
					{Name: "field", Type: "string", Default: nil},
					{Name: "direction", Type: "string", Default: "asc"},
				},
			},
		},
		Machine: &trait.Machine{
			States: map[string]*trait.StateSpec{
				"active": {IsInitial: true},
			},
			Events: []string{"TOGGLE_SORT", "CLEAR_SORT"},
			Transitions: []*trait.Transition{
				{
					From:  "active",
					Event: "TOGGLE_SORT",
					Guard: expr("=", "@entity.field", "@payload.field"),
					Effects: []interface{}{
						expr("set", "@entity.direction",
							expr("if",
								expr("=", "@entity.direction", "asc"),
								"desc", "asc")),
						expr("emit", "SORT_CHANGED", map[string]interface{}{
							"field":     "@entity.field",
							"direction": "@entity.direction",
						}),
					},
				},
				{
					From:  "active",
					Event: "TOGGLE_SORT",
					Effects: []interface{}{
						expr("set", "@entity.field", "@payload.field"),
						expr("set", "@entity.direction", "asc"),
						expr("emit", "SORT_CHANGED", map[string]interface{}{
							"field":     "@entity.field",
							"direction": "@entity.direction",
						}),
					},
				},
				{
					From:  "active",
					Event: "CLEAR_SORT",
					Effects: []interface{}{
						expr("set", "@entity.field", nil),
						expr("set", "@entity.direction", "asc"),
					},
				},
			},
		},
	}
}

// Filter maintains a key-value filter map.
func Filter() *trait.Trait {
	return &trait.Trait{
		Name:     "std/Filter",
		Category: "collection",
		DataEntities: map[string]*trait.EntitySpec{
			"filter": {
				Fields: []trait.FieldSpec{
					{Name: "filters", Type: "object", Default: map[string]interface{}{}},
				},
			},
		},
		Machine: &trait.Machine{
			States: map[string]*trait.StateSpec{
				"active": {IsInitial: true},
			},
			Events: []string{"SET_FILTER", "REMOVE_FILTER", "CLEAR_FILTERS"},
			Transitions: []*trait.Transition{
				{
					From:  "active",
					Event: "SET_FILTER",
					Effects: []interface{}{
						expr("set", "@entity.filters",
							expr("obj/merge", "@entity.filters",
								expr("obj/of", "@payload.key", "@payload.value"))),
						expr("emit", "FILTERS_CHANGED",
							map[string]interface{}{"filters": "@entity.filters"}),
					},
				},
				{
					From:  "active",
					Event: "REMOVE_FILTER",
					Effects: []interface{}{
						expr("set", "@entity.filters",
							expr("obj/omit", "@entity.filters",
								expr("concat", "@payload.key"))),
						expr("emit", "FILTERS_CHANGED",
							map[string]interface{}{"filters": "@entity.filters"}),
					},
				},
				{
					From:  "active",
					Event: "CLEAR_FILTERS",
					Effects: []interface{}{
						expr("set", "@entity.filters", expr("obj/of")),
						expr("emit", "FILTERS_CHANGED",
							map[string]interface{}{"filters": "@entity.filters"}),
					},
				},
			},
		},
	}
}

// Search debounces query input and emits SEARCH once the query is
// long enough.
func Search() *trait.Trait {
	return &trait.Trait{
		Name:     "std/Search",
		Category: "collection",
		DataEntities: map[string]*trait.EntitySpec{
			"search": {
				Fields: []trait.FieldSpec{
					{Name: "query", Type: "string", Default: ""},
				},
			},
		},
		Config: map[string]*trait.ParamSpec{
			"minLength":  {Type: "number", Default: float64(2)},
			"debounceMs": {Type: "number", Default: float64(300)},
		},
		Machine: &trait.Machine{
			States: map[string]*trait.StateSpec{
				"idle":      {IsInitial: true},
				"searching": {},
			},
			Events: []string{"INPUT", "SUBMIT", "RESULTS", "CLEAR"},
			Transitions: []*trait.Transition{
				{
					From:  trait.Wildcard,
					Event: "INPUT",
					Effects: []interface{}{
						expr("set", "@entity.query", "@payload.query"),
						expr("when",
							expr(">=",
								expr("str/length", "@entity.query"),
								"@config.minLength"),
							expr("async/debounce", "SEARCH", "@config.debounceMs")),
					},
				},
				{
					From:  "idle",
					To:    "searching",
					Event: "SUBMIT",
					Guard: expr(">=",
						expr("str/length", "@entity.query"),
						"@config.minLength"),
					Effects: []interface{}{
						expr("emit", "SEARCH",
							map[string]interface{}{"query": "@entity.query"}),
					},
				},
				{
					From:  "searching",
					To:    "idle",
					Event: "RESULTS",
				},
				{
					From:  trait.Wildcard,
					To:    "idle",
					Event: "CLEAR",
					Effects: []interface{}{
						expr("set", "@entity.query", ""),
					},
				},
			},
		},
	}
}

// Toggle is a two-state switch.
func Toggle() *trait.Trait {
	return &trait.Trait{
		Name:     "std/Toggle",
		Category: "ui",
		Machine: &trait.Machine{
			States: map[string]*trait.StateSpec{
				"off": {IsInitial: true},
				"on":  {},
			},
			Events: []string{"TOGGLE", "TURN_ON", "TURN_OFF"},
			Transitions: []*trait.Transition{
				{
					From: "off", To: "on", Event: "TOGGLE",
					Effects: []interface{}{
						expr("emit", "TOGGLED",
							map[string]interface{}{"on": true}),
					},
				},
				{
					From: "on", To: "off", Event: "TOGGLE",
					Effects: []interface{}{
						expr("emit", "TOGGLED",
							map[string]interface{}{"on": false}),
					},
				},
				{From: "off", To: "on", Event: "TURN_ON"},
				{From: "on", To: "off", Event: "TURN_OFF"},
			},
		},
	}
}
