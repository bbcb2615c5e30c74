package eval

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func call(op string, args ...interface{}) []interface{} {
	return append([]interface{}{op}, args...)
}

func testCtx() *Ctx {
	return &Ctx{
		Entity: map[string]interface{}{
			"page":  1.0,
			"items": []interface{}{"a", "b", "c"},
			"a":     nil,
		},
		Payload: map[string]interface{}{"id": "b"},
		State:   "Active",
		Now:     1700000000000,
		Config:  map[string]interface{}{"pageSize": 20.0, "totalItems": 45.0},
		Singletons: map[string]map[string]interface{}{
			"cart": {"count": 2.0},
		},
	}
}

func eval1(t *testing.T, expr interface{}, env *Ctx) interface{} {
	t.Helper()
	v, err := Eval(context.Background(), expr, env)
	if err != nil {
		t.Fatalf("Eval(%#v): %v", expr, err)
	}
	return v
}

func TestArithmeticCoercion(t *testing.T) {
	env := testCtx()
	cases := []struct {
		expr interface{}
		want float64
	}{
		{call("+", 1.0, 2.0), 3},
		{call("+", "2", true), 3},
		{call("+", "zap", 5.0), 5},
		{call("+", nil, 1.0), 1},
		{call("-", 5.0), -5},
		{call("-", 5.0, 2.0, 1.0), 2},
		{call("*", 3.0, "4"), 12},
		{call("%", 7.0, 3.0), 1},
		{call("abs", -2.5), 2.5},
		{call("min", 3.0, 1.0, 2.0), 1},
		{call("max", 3.0, 1.0, 2.0), 3},
		{call("floor", 2.7), 2},
		{call("ceil", 2.25), 3},
		{call("round", 2.5), 3},
		{call("round", -2.5), -2},
		{call("clamp", 5.0, 1.0, 3.0), 3},
		{call("+", "@entity.page", 1.0), 2},
	}
	for _, c := range cases {
		if got := eval1(t, c.expr, env); got != c.want {
			t.Errorf("%#v = %v, wanted %v", c.expr, got, c.want)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	env := testCtx()
	for _, x := range []float64{0, 1, 42} {
		v := eval1(t, call("/", x, 0.0), env).(float64)
		if !math.IsInf(v, 1) {
			t.Errorf("%v/0 = %v", x, v)
		}
	}
	for _, x := range []float64{-1, -42} {
		v := eval1(t, call("/", x, 0.0), env).(float64)
		if !math.IsInf(v, -1) {
			t.Errorf("%v/0 = %v", x, v)
		}
	}
}

func TestEquality(t *testing.T) {
	env := testCtx()
	cases := []struct {
		expr interface{}
		want bool
	}{
		{call("=", 1.0, 1.0), true},
		{call("=", 1.0, "1"), false},
		{call("=", true, 1.0), false},
		{call("=", nil, nil), true},
		{call("=", nil, 0.0), false},
		{call("=",
			[]interface{}{1.0, []interface{}{2.0}},
			[]interface{}{1.0, []interface{}{2.0}}), true},
	}
	for _, c := range cases {
		if got := eval1(t, c.expr, env); got != c.want {
			t.Errorf("%#v = %v, wanted %v", c.expr, got, c.want)
		}
	}
	a := map[string]interface{}{"x": []interface{}{1.0, 2.0}}
	b := map[string]interface{}{"x": []interface{}{1.0, 2.0}}
	if got := eval1(t, call("=", a, b), env); got != true {
		t.Errorf("deep map equality: %v", got)
	}
	b["x"] = []interface{}{1.0, 3.0}
	if got := eval1(t, call("=", a, b), env); got != false {
		t.Errorf("deep map inequality: %v", got)
	}
	if got := eval1(t, call("!=", 1.0, 2.0), env); got != true {
		t.Errorf("!=: %v", got)
	}
}

func TestOrderingQuirks(t *testing.T) {
	env := testCtx()
	cases := []struct {
		expr interface{}
		want bool
	}{
		{call("<", 1.0, 2.0), true},
		{call("<", "a", "b"), true},
		{call("<", "10", "9"), true},   // both strings: lexicographic
		{call("<", "10", 9.0), false},  // "10" parses to 10
		{call("<", 9.0, "10"), true},   // mixed compares numerically
		{call("<", true, "abc"), false}, // "abc" is NaN: false
		{call(">", true, "abc"), false}, // ... in both directions
		{call("<=", nil, 0.0), true},    // nil coerces to 0
		{call(">=", false, nil), true},
		{call("<", false, true), true},
	}
	for _, c := range cases {
		if got := eval1(t, c.expr, env); got != c.want {
			t.Errorf("%#v = %v, wanted %v", c.expr, got, c.want)
		}
	}
}

func TestShortCircuit(t *testing.T) {
	calls := 0
	env := testCtx().WithHandlers(&Handlers{
		Emit: func(event string, payload map[string]interface{}) {
			calls++
		},
	})

	if v := eval1(t, call("and", false, call("emit", "E")), env); v != false {
		t.Fatal(v)
	}
	if calls != 0 {
		t.Fatalf("and evaluated its second argument (%d emits)", calls)
	}

	if v := eval1(t, call("or", true, call("emit", "E")), env); v != true {
		t.Fatal(v)
	}
	if calls != 0 {
		t.Fatalf("or evaluated its second argument (%d emits)", calls)
	}

	if v := eval1(t, call("or", false, call("emit", "E")), env); v != false {
		// emit returns nil, which is falsy
		t.Fatal(v)
	}
	if calls != 1 {
		t.Fatalf("or should have evaluated its second argument once, got %d", calls)
	}
}

func TestTruthiness(t *testing.T) {
	env := testCtx()
	falsy := []interface{}{false, 0.0, "", nil, math.NaN()}
	for _, x := range falsy {
		if got := eval1(t, call("not", x), env); got != true {
			t.Errorf("not(%#v) = %v", x, got)
		}
	}
	truthy := []interface{}{
		true, 1.0, "x",
		map[string]interface{}{},
		[]interface{}{1.0}, // not a call: head isn't a string
	}
	for _, x := range truthy {
		if got := eval1(t, call("not", x), env); got != false {
			t.Errorf("not(%#v) = %v", x, got)
		}
	}
}

func TestResolve(t *testing.T) {
	env := testCtx()
	cases := []struct {
		binding string
		want    interface{}
	}{
		{"@entity.page", 1.0},
		{"@payload.id", "b"},
		{"@state", "Active"},
		{"@now", int64(1700000000000)},
		{"@config.pageSize", 20.0},
		{"@cart.count", 2.0},
		{"@entity.a.b", nil},  // descent through nil
		{"@entity.missing", nil},
		{"@state.x", nil},     // path into a string
		{"@now.ms", nil},
		{"@nonesuch", nil},
		{"@nonesuch.x", nil},
	}
	for _, c := range cases {
		if got := env.Resolve(c.binding); !reflect.DeepEqual(got, c.want) {
			t.Errorf("Resolve(%q) = %#v, wanted %#v", c.binding, got, c.want)
		}
	}
}

func TestLocalsShadowing(t *testing.T) {
	env := testCtx().Child(map[string]interface{}{
		"entity": map[string]interface{}{"page": 99.0},
		"cart":   map[string]interface{}{"count": 7.0},
	})
	if got := env.Resolve("@entity.page"); got != 99.0 {
		t.Fatal(got)
	}
	if got := env.Resolve("@cart.count"); got != 7.0 {
		t.Fatal(got)
	}
}

func TestChildDoesNotLeak(t *testing.T) {
	parent := testCtx().Child(map[string]interface{}{"x": 1.0})
	kid := parent.Child(map[string]interface{}{"x": 2.0, "y": 3.0})
	if parent.Locals["x"] != 1.0 {
		t.Fatal("parent locals mutated")
	}
	if _, have := parent.Locals["y"]; have {
		t.Fatal("sibling binding leaked upward")
	}
	if kid.Locals["x"] != 2.0 {
		t.Fatal("overlay lost")
	}
}

func TestLetSiblingInvisibility(t *testing.T) {
	env := testCtx()
	// y's value expression sees the outer context, where x is
	// unbound, so y is nil, not 1.
	expr := call("let",
		[]interface{}{
			[]interface{}{"x", 1.0},
			[]interface{}{"y", "@x"},
		},
		"@y")
	if got := eval1(t, expr, env); got != nil {
		t.Fatalf("y = %#v, wanted nil", got)
	}
	// But the body sees both.
	expr = call("let",
		[]interface{}{
			[]interface{}{"x", 1.0},
			[]interface{}{"y", 2.0},
		},
		call("+", "@x", "@y"))
	if got := eval1(t, expr, env); got != 3.0 {
		t.Fatal(got)
	}
}

func TestDoWhenIf(t *testing.T) {
	env := testCtx()
	if got := eval1(t, call("do", 1.0, 2.0, 3.0), env); got != 3.0 {
		t.Fatal(got)
	}
	if got := eval1(t, call("if", true, "yes", "no"), env); got != "yes" {
		t.Fatal(got)
	}
	if got := eval1(t, call("if", false, "yes", "no"), env); got != "no" {
		t.Fatal(got)
	}
	if got := eval1(t, call("if", false, "yes"), env); got != nil {
		t.Fatal(got)
	}

	fired := 0
	henv := env.WithHandlers(&Handlers{
		Emit: func(string, map[string]interface{}) { fired++ },
	})
	if got := eval1(t, call("when", false, call("emit", "E")), henv); got != nil {
		t.Fatal(got)
	}
	if fired != 0 {
		t.Fatal("when fired on a falsy condition")
	}
	eval1(t, call("when", true, call("emit", "E"), call("emit", "E")), henv)
	if fired != 2 {
		t.Fatalf("when fired %d effects, wanted 2", fired)
	}
}

func TestLambdasAndCollections(t *testing.T) {
	env := testCtx()
	double := call("fn", "x", call("*", "@x", 2.0))

	got := eval1(t, call("map", []interface{}{1.0, 2.0, 3.0}, double), env)
	if !reflect.DeepEqual(got, []interface{}{2.0, 4.0, 6.0}) {
		t.Fatal(got)
	}

	got = eval1(t, call("filter", "@entity.items",
		call("fn", "x", call("!=", "@x", "@payload.id"))), env)
	if !reflect.DeepEqual(got, []interface{}{"a", "c"}) {
		t.Fatal(got)
	}

	if got = eval1(t, call("find", "@entity.items",
		call("fn", "x", call("=", "@x", "b"))), env); got != "b" {
		t.Fatal(got)
	}
	if got = eval1(t, call("find", "@entity.items",
		call("fn", "x", false)), env); got != nil {
		t.Fatal(got)
	}

	if got = eval1(t, call("count", "@entity.items"), env); got != 3.0 {
		t.Fatal(got)
	}
	if got = eval1(t, call("count", nil), env); got != 0.0 {
		t.Fatal(got)
	}
	if got = eval1(t, call("count", "solo"), env); got != 1.0 {
		t.Fatal(got)
	}

	if got = eval1(t, call("sum", []interface{}{1.0, "2", true}), env); got != 4.0 {
		t.Fatal(got)
	}
	if got = eval1(t, call("sum", []interface{}{1.0, 2.0, 3.0},
		call("fn", "x", call("*", "@x", 2.0))), env); got != 12.0 {
		t.Fatal(got)
	}

	if got = eval1(t, call("first", "@entity.items"), env); got != "a" {
		t.Fatal(got)
	}
	if got = eval1(t, call("last", "@entity.items"), env); got != "c" {
		t.Fatal(got)
	}
	if got = eval1(t, call("nth", "@entity.items", 1.0), env); got != "b" {
		t.Fatal(got)
	}
	if got = eval1(t, call("nth", "@entity.items", 9.0), env); got != nil {
		t.Fatal(got)
	}
	if got = eval1(t, call("includes", "@entity.items", "b"), env); got != true {
		t.Fatal(got)
	}
	if got = eval1(t, call("empty", nil), env); got != true {
		t.Fatal(got)
	}

	got = eval1(t, call("concat", "@entity.items", "@payload.id"), env)
	if !reflect.DeepEqual(got, []interface{}{"a", "b", "c", "b"}) {
		t.Fatal(got)
	}
}

func TestClosureCapturesDefiningContext(t *testing.T) {
	env := testCtx()
	// The closure is defined where y=10 but invoked from a scope
	// where y=99: it must see 10.
	expr := call("let",
		[]interface{}{[]interface{}{"y", 10.0}},
		call("let",
			[]interface{}{[]interface{}{"f", call("fn", "x", call("+", "@x", "@y"))}},
			call("let",
				[]interface{}{[]interface{}{"y", 99.0}},
				call("map", []interface{}{1.0}, "@f"))))
	got := eval1(t, expr, env)
	if !reflect.DeepEqual(got, []interface{}{11.0}) {
		t.Fatal(got)
	}
}

func TestMultiParamLambda(t *testing.T) {
	env := testCtx()
	pair := []interface{}{3.0, 4.0}
	f := call("fn", []interface{}{"a", "b"}, call("+", "@a", "@b"))
	got := eval1(t, call("map", []interface{}{pair}, f), env)
	if !reflect.DeepEqual(got, []interface{}{7.0}) {
		t.Fatal(got)
	}
	// A non-array argument binds to the first parameter.
	got = eval1(t, call("map", []interface{}{5.0}, f), env)
	if !reflect.DeepEqual(got, []interface{}{5.0}) {
		t.Fatal(got)
	}
}

func TestUnknownOperator(t *testing.T) {
	env := testCtx()
	_, err := Eval(context.Background(), call("frobnicate", 1.0), env)
	var unknown *UnknownOp
	if !errors.As(err, &unknown) {
		t.Fatalf("wanted UnknownOp, got %v", err)
	}
	if unknown.Op != "frobnicate" {
		t.Fatal(unknown.Op)
	}
}

func TestMissingArg(t *testing.T) {
	env := testCtx()
	_, err := Eval(context.Background(), call("/", 1.0), env)
	var missing *MissingArg
	if !errors.As(err, &missing) {
		t.Fatalf("wanted MissingArg, got %v", err)
	}
	if missing.Op != "/" || missing.Pos != 1 {
		t.Fatalf("%#v", missing)
	}
}

func TestRegistry(t *testing.T) {
	Register("test/triple", func(ctx context.Context, args []interface{}, env *Ctx) (interface{}, error) {
		vs, err := EvalArgs(ctx, args, env)
		if err != nil {
			return nil, err
		}
		if len(vs) < 1 {
			return nil, &MissingArg{"test/triple", 0}
		}
		return Num(vs[0]) * 3, nil
	})
	env := testCtx()
	if got := eval1(t, call("test/triple", "@entity.page"), env); got != 3.0 {
		t.Fatal(got)
	}
}

func TestLiteralsPassThrough(t *testing.T) {
	env := testCtx()
	lit := map[string]interface{}{"page": "@entity.page"}
	got := eval1(t, lit, env)
	// Object literals are not walked for nested bindings.
	if !reflect.DeepEqual(got, lit) {
		t.Fatal(got)
	}
	arr := []interface{}{1.0, 2.0}
	if got := eval1(t, arr, env); !reflect.DeepEqual(got, arr) {
		t.Fatal(got)
	}
}
