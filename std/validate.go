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
	"regexp"
	"strings"

	"github.com/almadar-io/orbital/eval"
)

// The validators all answer booleans; they never fail on bad input,
// they just answer false.

func init() {
	register(map[string]eval.OpFunc{
		"valid/required":   opValidRequired,
		"valid/email":      opValidEmail,
		"valid/min-length": opValidMinLength,
		"valid/max-length": opValidMaxLength,
		"valid/range":      opValidRange,
		"valid/matches":    opValidMatches,
	})
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// opValidRequired answers false for nil, empty strings (after
// trimming), and empty arrays.
func opValidRequired(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "valid/required", args, 1, env)
	if err != nil {
		return nil, err
	}
	switch v := vs[0].(type) {
	case nil:
		return false, nil
	case string:
		return strings.TrimSpace(v) != "", nil
	case []interface{}:
		return len(v) != 0, nil
	default:
		return true, nil
	}
}

func opValidEmail(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "valid/email", args, 1, env)
	if err != nil {
		return nil, err
	}
	s, is := vs[0].(string)
	return is && emailRe.MatchString(s), nil
}

// lengthOf counts runes for strings and elements for arrays.
func lengthOf(v interface{}) int {
	switch x := v.(type) {
	case string:
		return len([]rune(x))
	case []interface{}:
		return len(x)
	case nil:
		return 0
	default:
		return len([]rune(eval.Str(x)))
	}
}

func opValidMinLength(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "valid/min-length", args, 2, env)
	if err != nil {
		return nil, err
	}
	return int(eval.Num(vs[1])) <= lengthOf(vs[0]), nil
}

func opValidMaxLength(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "valid/max-length", args, 2, env)
	if err != nil {
		return nil, err
	}
	return lengthOf(vs[0]) <= int(eval.Num(vs[1])), nil
}

func opValidRange(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "valid/range", args, 3, env)
	if err != nil {
		return nil, err
	}
	x, lo, hi := eval.Num(vs[0]), eval.Num(vs[1]), eval.Num(vs[2])
	return lo <= x && x <= hi, nil
}

// opValidMatches compiles the pattern per call.  A bad pattern is a
// real error, not a false.
func opValidMatches(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "valid/matches", args, 2, env)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(eval.Str(vs[1]))
	if err != nil {
		return nil, &eval.BadArg{Op: "valid/matches", Pos: 1, Wanted: "valid regexp"}
	}
	return re.MatchString(eval.Str(vs[0])), nil
}
