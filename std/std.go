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

// Package std contributes the namespaced standard-library operators
// (str/, num/, coll/, obj/, time/, format/, valid/) and the async
// combinator family (async/) to the eval registry.
//
// Import for side effects:
//
//	import _ "github.com/almadar-io/orbital/std"
package std

import (
	"context"

	"github.com/almadar-io/orbital/eval"
)

// register installs a table of operators.
func register(table map[string]eval.OpFunc) {
	for name, f := range table {
		eval.Register(name, f)
	}
}

// evalN evaluates all arguments and checks that at least n are
// present.
func evalN(ctx context.Context, op string, args []interface{}, n int, env *eval.Ctx) ([]interface{}, error) {
	vs, err := eval.EvalArgs(ctx, args, env)
	if err != nil {
		return nil, err
	}
	if len(vs) < n {
		return nil, &eval.MissingArg{Op: op, Pos: len(vs)}
	}
	return vs, nil
}

// evalString evaluates args[pos] and requires a string.
func evalString(ctx context.Context, op string, args []interface{}, pos int, env *eval.Ctx) (string, error) {
	if len(args) <= pos {
		return "", &eval.MissingArg{Op: op, Pos: pos}
	}
	v, err := eval.Eval(ctx, args[pos], env)
	if err != nil {
		return "", err
	}
	s, is := v.(string)
	if !is {
		return "", &eval.BadArg{Op: op, Pos: pos, Wanted: "string"}
	}
	return s, nil
}
