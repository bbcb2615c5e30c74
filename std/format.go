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
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/almadar-io/orbital/eval"
)

func init() {
	register(map[string]eval.OpFunc{
		"format/currency": opFormatCurrency,
		"format/number":   opFormatNumber,
		"format/percent":  opFormatPercent,
		"format/truncate": opFormatTruncate,
	})
}

var enPrinter = message.NewPrinter(language.English)

func printerFor(tag string) *message.Printer {
	if tag == "" {
		return enPrinter
	}
	t, err := language.Parse(tag)
	if err != nil {
		return enPrinter
	}
	return message.NewPrinter(t)
}

// opFormatCurrency renders an amount with a currency symbol and two
// decimals, grouped per the locale.
func opFormatCurrency(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "format/currency", args, 1, env)
	if err != nil {
		return nil, err
	}
	symbol := "$"
	if 1 < len(vs) {
		symbol = eval.Str(vs[1])
	}
	locale := ""
	if 2 < len(vs) {
		locale = eval.Str(vs[2])
	}
	p := printerFor(locale)
	return symbol + p.Sprint(number.Decimal(eval.Num(vs[0]),
		number.MinFractionDigits(2), number.MaxFractionDigits(2))), nil
}

// opFormatNumber renders a number with locale grouping and an optional
// decimal count.
func opFormatNumber(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "format/number", args, 1, env)
	if err != nil {
		return nil, err
	}
	opts := []number.Option{}
	if 1 < len(vs) {
		digits := int(eval.Num(vs[1]))
		if digits < 0 {
			digits = 0
		}
		opts = append(opts,
			number.MinFractionDigits(digits),
			number.MaxFractionDigits(digits))
	}
	locale := ""
	if 2 < len(vs) {
		locale = eval.Str(vs[2])
	}
	p := printerFor(locale)
	return p.Sprint(number.Decimal(eval.Num(vs[0]), opts...)), nil
}

// opFormatPercent renders a ratio (0.5 reads as 50%) with an optional
// decimal count.
func opFormatPercent(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "format/percent", args, 1, env)
	if err != nil {
		return nil, err
	}
	digits := 0
	if 1 < len(vs) {
		digits = int(eval.Num(vs[1]))
		if digits < 0 {
			digits = 0
		}
	}
	return strconv.FormatFloat(eval.Num(vs[0])*100, 'f', digits, 64) + "%", nil
}

// opFormatTruncate cuts a string to a rune budget, appending an
// ellipsis when anything was cut.
func opFormatTruncate(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "format/truncate", args, 2, env)
	if err != nil {
		return nil, err
	}
	rs := []rune(eval.Str(vs[0]))
	n := int(eval.Num(vs[1]))
	if n < 0 {
		n = 0
	}
	if len(rs) <= n {
		return string(rs), nil
	}
	suffix := "..."
	if 2 < len(vs) {
		suffix = eval.Str(vs[2])
	}
	return string(rs[:n]) + suffix, nil
}
