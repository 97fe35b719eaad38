package signal

import (
	"reflect"
	"sync"
	"testing"
)

func TestBusDeliversOnDrain(t *testing.T) {
	b := NewBus[int]("test", 4)

	var got []int
	b.Subscribe(func(v int) { got = append(got, v) })

	b.Publish(1)
	b.Publish(2)
	if len(got) != 0 {
		t.Fatalf("subscriber ran before Drain: %v", got)
	}

	if n := b.Drain(); n != 2 {
		t.Errorf("Drain() = %d, want 2", n)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("delivered %v, want [1 2]", got)
	}
	if n := b.Drain(); n != 0 {
		t.Errorf("second Drain() = %d, want 0", n)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus[string]("test", 0)

	var a, c []string
	unsubA := b.Subscribe(func(v string) { a = append(a, v) })
	b.Subscribe(func(v string) { c = append(c, v) })

	b.Publish("x")
	b.Drain()

	unsubA()
	unsubA()
	if got := b.Subscribers(); got != 1 {
		t.Errorf("Subscribers() = %d, want 1", got)
	}

	b.Publish("y")
	b.Drain()
	if !reflect.DeepEqual(a, []string{"x"}) {
		t.Errorf("unsubscribed callback got %v, want [x]", a)
	}
	if !reflect.DeepEqual(c, []string{"x", "y"}) {
		t.Errorf("remaining callback got %v, want [x y]", c)
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	b := NewBus[int]("test", 1)
	if !b.Publish(1) {
		t.Fatal("first Publish dropped")
	}
	if b.Publish(2) {
		t.Error("Publish on a full queue returned true")
	}
}

func TestBusConcurrentPublish(t *testing.T) {
	b := NewBus[int]("test", 100)
	total := 0
	b.Subscribe(func(v int) { total += v })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Publish(1)
			}
		}()
	}
	wg.Wait()

	b.Drain()
	if total != 100 {
		t.Errorf("total = %d, want 100", total)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		change  ZLevelChange
		current int32
		want    int32
	}{
		{name: "absolute", change: ZLevelChange{Z: 3}, current: 0, want: 3},
		{name: "up", change: ZLevelChange{Delta: 1, Relative: true}, current: 0, want: 1},
		{name: "down below zero", change: ZLevelChange{Delta: -1, Relative: true}, current: 0, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.Resolve(tt.current); got != tt.want {
				t.Errorf("Resolve(%d) = %d, want %d", tt.current, got, tt.want)
			}
		})
	}

	if !(GridToggle{Flip: true}).Resolve(false) {
		t.Error("flip from hidden should show")
	}
	if (GridToggle{Visible: false}).Resolve(true) {
		t.Error("explicit hide should hide")
	}
}
