// A simple, single-instance process that reads events from stdin and
// writes emitted effects to stdout.
//
// Input lines are JSON objects: {"event":"NEXT_PAGE","payload":{...}}.
// A trait comes from a YAML file (-t) or from the standard catalog
// (-b).  Emitted events, navigations, and notifications are printed
// as JSON lines.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jsccast/yaml"

	"github.com/almadar-io/orbital/catalog"
	"github.com/almadar-io/orbital/eval"
	_ "github.com/almadar-io/orbital/std"
	"github.com/almadar-io/orbital/storage"
	"github.com/almadar-io/orbital/storage/bolt"
	"github.com/almadar-io/orbital/trait"
)

func main() {

	var (
		traitFilename = flag.String("t", "", "trait filename (YAML)")
		builtin       = flag.String("b", "", "built-in trait name (e.g. std/Pagination)")
		configJSON    = flag.String("c", "{}", "instance config (in JSON)")
		dbFilename    = flag.String("db", "", "optional bbolt file backing persist/fetch")

		diag   = flag.Bool("d", false, "print diagnostics")
		echo   = flag.Bool("e", false, "echo input events")
		strict = flag.Bool("strict", false, "fail dispatch on guard errors")
	)

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t, err := loadTrait(*traitFilename, *builtin)
	if err != nil {
		panic(err)
	}

	// Parse the instance config (as JSON).
	var config map[string]interface{}
	if err := json.Unmarshal([]byte(*configJSON), &config); err != nil {
		panic(err)
	}

	inst, err := trait.NewInstance(t, config)
	if err != nil {
		panic(err)
	}

	// Effects go to stdout as JSON lines.
	handlers := &eval.Handlers{
		Emit: func(event string, payload map[string]interface{}) {
			emit("emit", map[string]interface{}{
				"event": event, "payload": payload,
			})
		},
		Navigate: func(route string, params map[string]interface{}) {
			emit("navigate", map[string]interface{}{
				"route": route, "params": params,
			})
		},
		Notify: func(message, severity string) {
			emit("notify", map[string]interface{}{
				"message": message, "severity": severity,
			})
		},
	}

	if *dbFilename != "" {
		store := bolt.NewStore(*dbFilename)
		if err := store.Open(); err != nil {
			panic(err)
		}
		defer store.Close()
		persisting := storage.Handlers(store)
		handlers.Persist = persisting.Persist
		handlers.Fetch = persisting.Fetch
	}

	e := trait.NewEngine(handlers)
	e.StrictGuards = *strict
	if *diag {
		e.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	e.Attach(t)

	// Arm any ticks the trait declares.
	if 0 < len(t.Ticks) {
		sched := trait.NewScheduler(64)
		go sched.Run(ctx)
		sched.Wait(time.Second)
		if err := e.StartTicks(ctx, sched, inst); err != nil {
			panic(err)
		}
	}

	in := bufio.NewReader(os.Stdin)
	for {
		line, err := in.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}

		var msg struct {
			Event   string                 `json:"event"`
			Payload map[string]interface{} `json:"payload"`
		}
		if err = json.Unmarshal(line, &msg); err != nil {
			fmt.Printf("error: %s\n", err)
			continue
		}

		if *echo {
			fmt.Printf("in: %s\n", JS(msg))
		}

		stride, err := e.Dispatch(ctx, inst, msg.Event, msg.Payload)
		if err != nil {
			fmt.Printf("error: %s\n", err)
			continue
		}

		if *diag {
			fmt.Printf("# stride\n")
			fmt.Printf("#   event %s\n", stride.Event)
			fmt.Printf("#   fired %v\n", stride.Fired)
			fmt.Printf("#   from  %s\n", stride.From)
			fmt.Printf("#   to    %s\n", stride.To)
			fmt.Printf("# entity %s\n", JS(inst.Entity))
		}
	}
}

func loadTrait(filename, builtin string) (*trait.Trait, error) {
	switch {
	case filename != "":
		bs, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		// jsccast/yaml tolerates the loose expression trees in
		// guards and effects.
		var doc interface{}
		if err := yaml.Unmarshal(bs, &doc); err != nil {
			return nil, err
		}
		js, err := json.Marshal(canon(doc))
		if err != nil {
			return nil, err
		}
		return catalog.Load(js)
	case builtin != "":
		return catalog.Std().Find(builtin)
	default:
		return nil, fmt.Errorf("need -t or -b")
	}
}

// canon rewrites interface{}-keyed maps so the document can round-trip
// through JSON on its way to the loader.
func canon(x interface{}) interface{} {
	switch v := x.(type) {
	case map[interface{}]interface{}:
		acc := make(map[string]interface{}, len(v))
		for k, e := range v {
			acc[fmt.Sprintf("%v", k)] = canon(e)
		}
		return acc
	case []interface{}:
		acc := make([]interface{}, len(v))
		for i, e := range v {
			acc[i] = canon(e)
		}
		return acc
	default:
		return x
	}
}

func emit(kind string, data map[string]interface{}) {
	fmt.Printf("%s\n", JS(map[string]interface{}{
		"effect": kind,
		"data":   data,
	}))
}

func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		panic(err)
	}
	return string(js)
}
