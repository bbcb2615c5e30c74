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

	"github.com/almadar-io/orbital/sexpr"
)

// Effect operators evaluate their arguments and then invoke exactly
// one context-provided handler.  A missing handler makes the effect a
// silent no-op (not an error), so the same expression tree can be
// evaluated safely for guard checking.  Retry and ordering policy are
// never decided here; that is layered on by async combinators or by a
// trait's ordered effect list.

// targetPath parses an unevaluated effect target such as
// "@entity.page" and returns its dot-joined path below the root.
func targetPath(op string, args []interface{}) (string, error) {
	if len(args) < 1 {
		return "", &MissingArg{op, 0}
	}
	s, is := args[0].(string)
	if !is || !sexpr.IsBinding(s) {
		return "", &BadArg{op, 0, "binding target"}
	}
	b, err := sexpr.ParseBinding(s)
	if err != nil {
		return "", err
	}
	if len(b.Path) == 0 {
		return "", &BadArg{op, 0, "binding target with a path"}
	}
	return strings.Join(b.Path, "."), nil
}

func evalEffect(ctx context.Context, op string, args []interface{}, env *Ctx) (interface{}, error) {
	h := env.Handlers

	switch op {
	case "set":
		path, err := targetPath(op, args)
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, &MissingArg{op, 1}
		}
		v, err := Eval(ctx, args[1], env)
		if err != nil {
			return nil, err
		}
		if h != nil && h.MutateEntity != nil {
			h.MutateEntity(map[string]interface{}{path: v})
		}
		return v, nil

	case "increment", "decrement":
		path, err := targetPath(op, args)
		if err != nil {
			return nil, err
		}
		by := float64(1)
		if 1 < len(args) {
			v, err := Eval(ctx, args[1], env)
			if err != nil {
				return nil, err
			}
			by = Num(v)
		}
		if op == "decrement" {
			by = -by
		}
		next := Num(env.Resolve(args[0].(string))) + by
		if h != nil && h.MutateEntity != nil {
			h.MutateEntity(map[string]interface{}{path: next})
		}
		return next, nil

	case "emit":
		event, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		payload, err := optionalMap(ctx, args, 1, env)
		if err != nil {
			return nil, err
		}
		if h != nil && h.Emit != nil {
			h.Emit(event, payload)
		}
		return nil, nil

	case "navigate":
		route, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		params, err := optionalMap(ctx, args, 1, env)
		if err != nil {
			return nil, err
		}
		if h != nil && h.Navigate != nil {
			h.Navigate(route, params)
		}
		return nil, nil

	case "notify":
		message, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		severity := ""
		if 1 < len(args) {
			if severity, err = stringArg(ctx, op, args, 1, env); err != nil {
				return nil, err
			}
		}
		if h != nil && h.Notify != nil {
			h.Notify(message, severity)
		}
		return nil, nil

	case "spawn":
		entityType, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		props, err := optionalMap(ctx, args, 1, env)
		if err != nil {
			return nil, err
		}
		if h != nil && h.Spawn != nil {
			h.Spawn(entityType, props)
		}
		return nil, nil

	case "despawn":
		id := ""
		if 0 < len(args) {
			var err error
			if id, err = stringArg(ctx, op, args, 0, env); err != nil {
				return nil, err
			}
		}
		if h != nil && h.Despawn != nil {
			h.Despawn(id)
		}
		return nil, nil

	case "render-ui":
		slot, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		pattern, err := stringArg(ctx, op, args, 1, env)
		if err != nil {
			return nil, err
		}
		props, err := optionalMap(ctx, args, 2, env)
		if err != nil {
			return nil, err
		}
		priority := float64(0)
		if 3 < len(args) {
			v, err := Eval(ctx, args[3], env)
			if err != nil {
				return nil, err
			}
			priority = Num(v)
		}
		if h != nil && h.RenderUI != nil {
			h.RenderUI(slot, pattern, props, priority)
		}
		return nil, nil

	case "persist":
		action, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		data, err := optionalMap(ctx, args, 1, env)
		if err != nil {
			return nil, err
		}
		if h == nil || h.Persist == nil {
			return nil, nil
		}
		return h.Persist(ctx, action, data)

	case "call-service":
		service, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		method, err := stringArg(ctx, op, args, 1, env)
		if err != nil {
			return nil, err
		}
		params, err := optionalMap(ctx, args, 2, env)
		if err != nil {
			return nil, err
		}
		if h == nil || h.CallService == nil {
			return nil, nil
		}
		return h.CallService(ctx, service, method, params)

	case "fetch":
		entityType, err := stringArg(ctx, op, args, 0, env)
		if err != nil {
			return nil, err
		}
		opts, err := optionalMap(ctx, args, 1, env)
		if err != nil {
			return nil, err
		}
		if h == nil || h.Fetch == nil {
			return nil, nil
		}
		return h.Fetch(ctx, entityType, opts)
	}

	return nil, &UnknownOp{op}
}

// optionalMap evaluates args[pos] (if present) as a map payload.
// Effect payloads are the one place where binding strings inside a
// literal map are resolved, recursively, so that payloads like
// {"page": "@entity.page"} do what they look like.  The core
// evaluator itself still passes object literals through verbatim.
func optionalMap(ctx context.Context, args []interface{}, pos int, env *Ctx) (map[string]interface{}, error) {
	if len(args) <= pos {
		return nil, nil
	}
	v, err := Eval(ctx, args[pos], env)
	if err != nil {
		return nil, err
	}
	m := ToMap(v)
	if m == nil {
		return nil, nil
	}
	return ToMap(resolveDeep(m, env)), nil
}

func resolveDeep(x interface{}, env *Ctx) interface{} {
	switch v := x.(type) {
	case string:
		if sexpr.IsBinding(v) {
			return env.Resolve(v)
		}
		return v
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(v))
		for k, e := range v {
			acc[k] = resolveDeep(e, env)
		}
		return acc
	case []interface{}:
		acc := make([]interface{}, len(v))
		for i, e := range v {
			acc[i] = resolveDeep(e, env)
		}
		return acc
	default:
		return x
	}
}
