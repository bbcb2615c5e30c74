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
	"strings"

	"github.com/almadar-io/orbital/eval"
)

func init() {
	register(map[string]eval.OpFunc{
		"str/concat":      opStrConcat,
		"str/upper":       strOp1("str/upper", strings.ToUpper),
		"str/lower":       strOp1("str/lower", strings.ToLower),
		"str/trim":        strOp1("str/trim", strings.TrimSpace),
		"str/length":      opStrLength,
		"str/split":       opStrSplit,
		"str/join":        opStrJoin,
		"str/includes":    strOp2Bool("str/includes", strings.Contains),
		"str/starts-with": strOp2Bool("str/starts-with", strings.HasPrefix),
		"str/ends-with":   strOp2Bool("str/ends-with", strings.HasSuffix),
		"str/replace":     opStrReplace,
		"str/slice":       opStrSlice,
	})
}

func strOp1(op string, f func(string) string) eval.OpFunc {
	return func(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
		vs, err := evalN(ctx, op, args, 1, env)
		if err != nil {
			return nil, err
		}
		return f(eval.Str(vs[0])), nil
	}
}

func strOp2Bool(op string, f func(string, string) bool) eval.OpFunc {
	return func(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
		vs, err := evalN(ctx, op, args, 2, env)
		if err != nil {
			return nil, err
		}
		return f(eval.Str(vs[0]), eval.Str(vs[1])), nil
	}
}

func opStrConcat(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := eval.EvalArgs(ctx, args, env)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, v := range vs {
		b.WriteString(eval.Str(v))
	}
	return b.String(), nil
}

func opStrLength(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "str/length", args, 1, env)
	if err != nil {
		return nil, err
	}
	return float64(len([]rune(eval.Str(vs[0])))), nil
}

func opStrSplit(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "str/split", args, 2, env)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(eval.Str(vs[0]), eval.Str(vs[1]))
	acc := make([]interface{}, len(parts))
	for i, p := range parts {
		acc[i] = p
	}
	return acc, nil
}

func opStrJoin(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "str/join", args, 1, env)
	if err != nil {
		return nil, err
	}
	sep := ""
	if 1 < len(vs) {
		sep = eval.Str(vs[1])
	}
	view := eval.ToArray(vs[0])
	parts := make([]string, len(view))
	for i, x := range view {
		parts[i] = eval.Str(x)
	}
	return strings.Join(parts, sep), nil
}

func opStrReplace(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "str/replace", args, 3, env)
	if err != nil {
		return nil, err
	}
	return strings.ReplaceAll(eval.Str(vs[0]), eval.Str(vs[1]), eval.Str(vs[2])), nil
}

func opStrSlice(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "str/slice", args, 2, env)
	if err != nil {
		return nil, err
	}
	rs := []rune(eval.Str(vs[0]))
	lo := boundIndex(int(eval.Num(vs[1])), len(rs))
	hi := len(rs)
	if 2 < len(vs) {
		hi = boundIndex(int(eval.Num(vs[2])), len(rs))
	}
	if hi < lo {
		hi = lo
	}
	return string(rs[lo:hi]), nil
}

// boundIndex clamps i into [0,n], counting negative indexes from the
// end.
func boundIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if n < i {
		return n
	}
	return i
}
