package bus

import (
	"sync"
	"testing"
)

func TestGetUnsetKey(t *testing.T) {
	b := New()
	if got := b.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
}

func TestSetNotifiesDeclaredKeysOnly(t *testing.T) {
	b := New()
	var got []string
	b.Subscribe([]string{"theme", "locale"}, func(key string, value any) {
		got = append(got, key)
	})

	b.Set("theme", "dark")
	b.Set("user", "alice") // not declared
	b.Set("locale", "fr")

	want := []string{"theme", "locale"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("notified for %v, want %v", got, want)
	}
	if b.Get("user") != "alice" {
		t.Errorf("Get(user) = %v", b.Get("user"))
	}
}

func TestSubscriberSeesValue(t *testing.T) {
	b := New()
	var seen any
	b.Subscribe([]string{"theme"}, func(key string, value any) { seen = value })

	b.Set("theme", "dark")
	if seen != "dark" {
		t.Errorf("callback value = %v, want dark", seen)
	}
	if b.Get("theme") != "dark" {
		t.Errorf("Get(theme) = %v", b.Get("theme"))
	}
}

func TestUnsubscribeCoversAllKeys(t *testing.T) {
	b := New()
	calls := 0
	id := b.Subscribe([]string{"a", "b"}, func(string, any) { calls++ })

	b.Set("a", 1)
	b.Unsubscribe(id)
	b.Set("a", 2)
	b.Set("b", 3)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestMultipleSubscribersSameKey(t *testing.T) {
	b := New()
	var first, second int
	b.Subscribe([]string{"k"}, func(string, any) { first++ })
	id := b.Subscribe([]string{"k"}, func(string, any) { second++ })

	b.Set("k", 1)
	b.Unsubscribe(id)
	b.Set("k", 2)

	if first != 2 || second != 1 {
		t.Errorf("first = %d second = %d, want 2 and 1", first, second)
	}
}

// A subscriber may call back into the bus; Set must not hold its lock
// while running callbacks.
func TestReentrantCallback(t *testing.T) {
	b := New()
	b.Subscribe([]string{"outer"}, func(string, any) {
		b.Set("inner", true)
	})
	b.Set("outer", true)
	if b.Get("inner") != true {
		t.Error("re-entrant Set did not land")
	}
}

func TestConcurrentSetGet(t *testing.T) {
	b := New()
	b.Subscribe([]string{"n"}, func(string, any) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Set("n", i)
				_ = b.Get("n")
			}
		}(i)
	}
	wg.Wait()
}
