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

package trait

import (
	"context"
	"testing"
	"time"
)

func runScheduler(t *testing.T) (*Scheduler, context.CancelFunc) {
	t.Helper()
	s := NewScheduler(64)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	if !s.Wait(time.Second) {
		t.Fatal("scheduler did not start")
	}
	return s, cancel
}

func TestSchedulerFires(t *testing.T) {
	s, cancel := runScheduler(t)
	defer cancel()

	fired := make(chan string, 2)
	now := time.Now()

	// Added out of order; the sooner alarm fires first.
	if err := s.Add(&Alarm{
		Id: "late",
		At: now.Add(60 * time.Millisecond),
		F:  func(context.Context, *Alarm) { fired <- "late" },
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(&Alarm{
		Id: "soon",
		At: now.Add(20 * time.Millisecond),
		F:  func(context.Context, *Alarm) { fired <- "soon" },
	}); err != nil {
		t.Fatal(err)
	}

	first := <-fired
	if first != "soon" {
		t.Fatalf("wanted soon first, got %s", first)
	}
	if second := <-fired; second != "late" {
		t.Fatalf("wanted late second, got %s", second)
	}
}

func TestSchedulerRem(t *testing.T) {
	s, cancel := runScheduler(t)
	defer cancel()

	fired := make(chan bool, 1)
	if err := s.Add(&Alarm{
		Id: "doomed",
		At: time.Now().Add(40 * time.Millisecond),
		F:  func(context.Context, *Alarm) { fired <- true },
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Rem("doomed"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
		t.Fatal("removed alarm fired")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestSchedulerDuplicateId(t *testing.T) {
	s, cancel := runScheduler(t)
	defer cancel()

	a := &Alarm{Id: "x", At: time.Now().Add(time.Hour), F: func(context.Context, *Alarm) {}}
	if err := s.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(a); err != ErrIdExists {
		t.Fatalf("wanted ErrIdExists, got %v", err)
	}
}

func TestTickFires(t *testing.T) {
	tr := counterTrait()
	tr.Ticks = []*Tick{
		{
			Name:       "bump",
			IntervalMs: 25,
			Guard:      []interface{}{"<", "@entity.count", float64(2)},
			Effects: []interface{}{
				[]interface{}{"increment", "@entity.count"},
			},
		},
	}

	inst, err := NewInstance(tr, nil)
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(nil)

	s, cancel := runScheduler(t)
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := e.StartTicks(ctx, s, inst); err != nil {
		t.Fatal(err)
	}

	// The guard stops the tick at 2.
	deadline := time.After(2 * time.Second)
	for {
		var count interface{}
		inst.mu.Lock()
		count = inst.Entity["count"]
		inst.mu.Unlock()
		if count == float64(2) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("tick never reached 2, at %#v", count)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestTickNextCron(t *testing.T) {
	tick := &Tick{Name: "nightly", Schedule: "0 0 * * *"}
	now := time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
	at, err := tick.next(now)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("wanted %s, got %s", want, at)
	}

	bad := &Tick{Name: "bad", Schedule: "not cron"}
	if _, err := bad.next(now); err == nil {
		t.Fatal("wanted a cron parse error")
	}
}
