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
	"time"

	"github.com/almadar-io/orbital/eval"
)

// Timestamps are epoch milliseconds throughout, matching the @now
// binding.

func init() {
	register(map[string]eval.OpFunc{
		"time/format": opTimeFormat,
		"time/add":    opTimeAdd,
		"time/diff":   opTimeDiff,
		"time/parse":  opTimeParse,
	})
}

var timeUnits = map[string]time.Duration{
	"ms":      time.Millisecond,
	"seconds": time.Second,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
}

func unitOf(v interface{}) time.Duration {
	if d, have := timeUnits[eval.Str(v)]; have {
		return d
	}
	return time.Millisecond
}

// opTimeFormat renders an epoch-ms timestamp with a layout written in
// the conventional token style (YYYY, MM, DD, HH, mm, ss).
func opTimeFormat(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "time/format", args, 1, env)
	if err != nil {
		return nil, err
	}
	layout := "YYYY-MM-DD"
	if 1 < len(vs) {
		layout = eval.Str(vs[1])
	}
	t := time.UnixMilli(int64(eval.Num(vs[0]))).UTC()
	return t.Format(goLayout(layout)), nil
}

var tokenLayout = strings.NewReplacer(
	"YYYY", "2006",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

func goLayout(layout string) string {
	return tokenLayout.Replace(layout)
}

func opTimeAdd(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "time/add", args, 2, env)
	if err != nil {
		return nil, err
	}
	unit := time.Millisecond
	if 2 < len(vs) {
		unit = unitOf(vs[2])
	}
	d := time.Duration(eval.Num(vs[1])) * unit
	return eval.Num(vs[0]) + float64(d.Milliseconds()), nil
}

// opTimeDiff answers a-b in the requested unit (ms by default),
// truncated toward zero.
func opTimeDiff(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "time/diff", args, 2, env)
	if err != nil {
		return nil, err
	}
	unit := time.Millisecond
	if 2 < len(vs) {
		unit = unitOf(vs[2])
	}
	d := time.Duration(eval.Num(vs[0])-eval.Num(vs[1])) * time.Millisecond
	return float64(d / unit), nil
}

// opTimeParse parses an RFC 3339 string (or a date-only form) into
// epoch ms; unparsable input yields nil.
func opTimeParse(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "time/parse", args, 1, env)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(eval.Str(vs[0]))
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixMilli()), nil
		}
	}
	return nil, nil
}
