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

// Package eval implements the recursive S-expression evaluator: the
// core operator families (arithmetic, comparison, logic, control,
// collection, effects) plus an open registry for namespaced
// "module/name" operators contributed by package std or by the host.
package eval

import (
	"context"
	"sync"

	"github.com/almadar-io/orbital/sexpr"
)

// OpFunc implements a registered operator.  Arguments arrive
// unevaluated so that an operator controls its own evaluation order
// (short-circuiting, lambdas, suspension).  Most operators just call
// EvalArgs first.
type OpFunc func(ctx context.Context, args []interface{}, env *Ctx) (interface{}, error)

var (
	opsMu sync.RWMutex
	ops   = make(map[string]OpFunc)
)

// Register adds an operator to the open registry.  Standard-library
// modules register themselves under "module/name" keys; hosts may add
// their own.  Later registrations win.
func Register(name string, f OpFunc) {
	opsMu.Lock()
	ops[name] = f
	opsMu.Unlock()
}

func lookup(name string) (OpFunc, bool) {
	opsMu.RLock()
	f, have := ops[name]
	opsMu.RUnlock()
	return f, have
}

// Eval evaluates an expression against a context.
//
// Atoms evaluate to themselves, except binding strings, which resolve
// against env.  Object literals pass through verbatim; bindings
// nested inside them are not resolved automatically.  Calls dispatch
// on the operator name: core built-ins first, then the open registry.
func Eval(ctx context.Context, expr interface{}, env *Ctx) (interface{}, error) {
	if !sexpr.IsCall(expr) {
		if s, is := expr.(string); is && sexpr.IsBinding(s) {
			return env.Resolve(s), nil
		}
		return expr, nil
	}

	op := sexpr.Operator(expr)
	args := sexpr.Args(expr)

	switch op {
	case "+", "-", "*", "/", "%",
		"abs", "min", "max", "floor", "ceil", "round", "clamp":
		return evalArith(ctx, op, args, env)
	case "=", "!=", "<", ">", "<=", ">=":
		return evalCompare(ctx, op, args, env)
	case "and", "or", "not", "if":
		return evalLogic(ctx, op, args, env)
	case "let", "do", "when", "fn":
		return evalControl(ctx, op, args, env)
	case "map", "filter", "find", "count", "sum",
		"first", "last", "nth", "concat", "includes", "empty":
		return evalCollection(ctx, op, args, env)
	case "set", "increment", "decrement",
		"emit", "navigate", "persist", "notify",
		"spawn", "despawn", "call-service", "render-ui", "fetch":
		return evalEffect(ctx, op, args, env)
	}

	if f, have := lookup(op); have {
		return f(ctx, args, env)
	}

	return nil, &UnknownOp{op}
}

// EvalArgs evaluates each argument in order.
func EvalArgs(ctx context.Context, args []interface{}, env *Ctx) ([]interface{}, error) {
	acc := make([]interface{}, len(args))
	for i, a := range args {
		v, err := Eval(ctx, a, env)
		if err != nil {
			return nil, err
		}
		acc[i] = v
	}
	return acc, nil
}

// Closure is the value of a "fn" expression.  It captures a snapshot
// of the defining scope's locals (never a live back-pointer), plus
// the defining context's data and handlers by reference.
type Closure struct {
	Params []string
	Body   interface{}
	env    *Ctx
}

// Call invokes the closure with one argument value.
//
// A single parameter binds the whole argument.  Multiple parameters
// bind positionally against an array-shaped argument; a non-array
// argument is wrapped as if it were a one-element array.
func (f *Closure) Call(ctx context.Context, arg interface{}) (interface{}, error) {
	binds := make(map[string]interface{}, len(f.Params))
	if len(f.Params) == 1 {
		binds[f.Params[0]] = arg
	} else {
		xs, is := arg.([]interface{})
		if !is {
			xs = []interface{}{arg}
		}
		for i, p := range f.Params {
			if i < len(xs) {
				binds[p] = xs[i]
			} else {
				binds[p] = nil
			}
		}
	}
	return Eval(ctx, f.Body, f.env.Child(binds))
}

func evalControl(ctx context.Context, op string, args []interface{}, env *Ctx) (interface{}, error) {
	switch op {
	case "let":
		// Bindings evaluate against the original context in
		// declaration order (no forward reference), then the
		// body sees all of them at once.
		if len(args) < 2 {
			return nil, &MissingArg{op, len(args)}
		}
		pairs, is := args[0].([]interface{})
		if !is {
			return nil, &BadArg{op, 0, "binding list"}
		}
		binds := make(map[string]interface{}, len(pairs))
		for i, p := range pairs {
			pair, is := p.([]interface{})
			if !is || len(pair) < 2 {
				return nil, &BadArg{op, i, "[name value] pair"}
			}
			name, is := pair[0].(string)
			if !is {
				return nil, &BadArg{op, i, "binding name"}
			}
			v, err := Eval(ctx, pair[1], env)
			if err != nil {
				return nil, err
			}
			binds[name] = v
		}
		return Eval(ctx, args[1], env.Child(binds))

	case "do":
		var last interface{}
		for _, a := range args {
			v, err := Eval(ctx, a, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case "when":
		if len(args) < 1 {
			return nil, &MissingArg{op, 0}
		}
		cond, err := Eval(ctx, args[0], env)
		if err != nil {
			return nil, err
		}
		if !Truthy(cond) {
			return nil, nil
		}
		for _, a := range args[1:] {
			if _, err := Eval(ctx, a, env); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case "fn":
		// Not evaluated eagerly: returns a closure over the
		// defining context.
		if len(args) < 2 {
			return nil, &MissingArg{op, len(args)}
		}
		var params []string
		switch p := args[0].(type) {
		case string:
			params = []string{p}
		case []interface{}:
			for i, x := range p {
				s, is := x.(string)
				if !is {
					return nil, &BadArg{op, i, "parameter name"}
				}
				params = append(params, s)
			}
		default:
			return nil, &BadArg{op, 0, "parameter name or list"}
		}
		return &Closure{
			Params: params,
			Body:   args[1],
			env:    env.Child(nil),
		}, nil
	}

	return nil, &UnknownOp{op}
}

func evalLogic(ctx context.Context, op string, args []interface{}, env *Ctx) (interface{}, error) {
	switch op {
	case "and":
		// Short-circuits eagerly: arguments after the deciding
		// one are never evaluated, which matters because they
		// may carry effects.
		for _, a := range args {
			v, err := Eval(ctx, a, env)
			if err != nil {
				return nil, err
			}
			if !Truthy(v) {
				return false, nil
			}
		}
		return true, nil

	case "or":
		for _, a := range args {
			v, err := Eval(ctx, a, env)
			if err != nil {
				return nil, err
			}
			if Truthy(v) {
				return true, nil
			}
		}
		return false, nil

	case "not":
		if len(args) < 1 {
			return nil, &MissingArg{op, 0}
		}
		v, err := Eval(ctx, args[0], env)
		if err != nil {
			return nil, err
		}
		return !Truthy(v), nil

	case "if":
		if len(args) < 2 {
			return nil, &MissingArg{op, len(args)}
		}
		cond, err := Eval(ctx, args[0], env)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return Eval(ctx, args[1], env)
		}
		if 2 < len(args) {
			return Eval(ctx, args[2], env)
		}
		return nil, nil
	}

	return nil, &UnknownOp{op}
}

// closureArg evaluates args[pos] and requires a *Closure.
func closureArg(ctx context.Context, op string, args []interface{}, pos int, env *Ctx) (*Closure, error) {
	if len(args) <= pos {
		return nil, &MissingArg{op, pos}
	}
	v, err := Eval(ctx, args[pos], env)
	if err != nil {
		return nil, err
	}
	f, is := v.(*Closure)
	if !is {
		return nil, &NotAFunction{op}
	}
	return f, nil
}

// stringArg evaluates args[pos] and requires a string.
func stringArg(ctx context.Context, op string, args []interface{}, pos int, env *Ctx) (string, error) {
	if len(args) <= pos {
		return "", &MissingArg{op, pos}
	}
	v, err := Eval(ctx, args[pos], env)
	if err != nil {
		return "", err
	}
	s, is := v.(string)
	if !is {
		return "", &BadArg{op, pos, "string"}
	}
	return s, nil
}
