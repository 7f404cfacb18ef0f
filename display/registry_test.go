// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"testing"
)

// stubDisplay satisfies Display for registry tests; its methods are never
// called.
type stubDisplay struct {
	Display
	name string
}

func stubFactory(name string) Factory {
	return func(Options) (Display, error) {
		return &stubDisplay{name: name}, nil
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("test", 50, stubFactory("test"), nil)

	entry, ok := r.Get("test")
	if !ok {
		t.Fatal("registered backend not found")
	}
	if entry.Name != "test" {
		t.Errorf("Name = %s, want test", entry.Name)
	}
	if entry.Priority != 50 {
		t.Errorf("Priority = %d, want 50", entry.Priority)
	}
	if !entry.Available() {
		t.Error("backend should be available (nil Available func)")
	}

	r.Unregister("test")
	if _, ok := r.Get("test"); ok {
		t.Error("backend should not exist after unregister")
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("memory", 10, stubFactory("memory"), nil)
	r.Register("x11", 100, stubFactory("x11"), func() bool { return false })
	r.Register("fb", 10, stubFactory("fb"), nil)

	list := r.List()
	want := []string{"x11", "fb", "memory"}
	if len(list) != len(want) {
		t.Fatalf("List() = %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, list[i], want[i])
		}
	}

	avail := r.Available()
	if len(avail) != 2 || avail[0] != "fb" {
		t.Errorf("Available() = %v, want [fb memory]", avail)
	}
}

func TestRegistryOpen(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Open(Options{}); !errors.Is(err, ErrNoBackendAvailable) {
		t.Errorf("Open() on empty registry error = %v, want ErrNoBackendAvailable", err)
	}

	failing := errors.New("no server")
	r.Register("broken", 100, func(Options) (Display, error) { return nil, failing }, nil)
	r.Register("memory", 10, stubFactory("memory"), nil)

	d, err := r.Open(Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := d.(*stubDisplay).name; got != "memory" {
		t.Errorf("Open() picked %s, want memory", got)
	}

	if _, err := r.OpenByName("broken", Options{}); !errors.Is(err, failing) {
		t.Errorf("OpenByName(broken) error = %v, want wrapped factory error", err)
	}
	if _, err := r.OpenByName("missing", Options{}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("OpenByName(missing) error = %v, want ErrUnknownBackend", err)
	}

	r.Register("off", 5, stubFactory("off"), func() bool { return false })
	if _, err := r.OpenByName("off", Options{}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("OpenByName(off) error = %v, want ErrBackendUnavailable", err)
	}
}
