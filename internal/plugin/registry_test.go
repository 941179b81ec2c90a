package plugin_test

import (
	"fmt"
	"sync"
	"testing"

	"agentcell/internal/plugin"
)

func TestRegisterAndGet(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("tracer", "observer", true)

	info, ok := r.Get("tracer")
	if !ok {
		t.Fatal("expected plugin to be registered")
	}
	if info.Name != "tracer" || info.Type != "observer" || !info.Active {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestRegisterDuplicateIsNoOp(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("tracer", "observer", true)
	r.Register("tracer", "storage", false)

	info, _ := r.Get("tracer")
	if info.Type != "observer" || !info.Active {
		t.Fatalf("expected first registration to win, got %+v", info)
	}
}

func TestSetActive(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("tracer", "observer", false)
	if r.IsActive("tracer") {
		t.Fatal("expected inactive plugin")
	}
	r.SetActive("tracer", true)
	if !r.IsActive("tracer") {
		t.Fatal("expected active plugin")
	}
	// Unknown names are ignored and report inactive.
	r.SetActive("ghost", true)
	if r.IsActive("ghost") {
		t.Fatal("expected unknown plugin to report inactive")
	}
}

func TestListActiveSorted(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("zeta", "a", true)
	r.Register("alpha", "b", true)
	r.Register("mid", "c", false)

	active := r.ListActive()
	if len(active) != 2 || active[0] != "alpha" || active[1] != "zeta" {
		t.Fatalf("unexpected active list: %v", active)
	}
	all := r.ListAll()
	if len(all) != 3 || all[0] != "alpha" || all[1] != "mid" || all[2] != "zeta" {
		t.Fatalf("unexpected full list: %v", all)
	}
}

func TestSettings(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("cache", "storage", true)
	r.SetSetting("cache", "maxEntries", "256")
	if got := r.GetSetting("cache", "maxEntries"); got != "256" {
		t.Fatalf("expected setting value, got %q", got)
	}
	if got := r.GetSetting("cache", "missing"); got != "" {
		t.Fatalf("expected empty default, got %q", got)
	}
	if got := r.GetSetting("ghost", "maxEntries"); got != "" {
		t.Fatalf("expected empty for unknown plugin, got %q", got)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("cache", "storage", true)
	r.SetSetting("cache", "k", "v")

	info, _ := r.Get("cache")
	info.Settings["k"] = "mutated"

	if got := r.GetSetting("cache", "k"); got != "v" {
		t.Fatalf("expected registry unaffected by snapshot mutation, got %q", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := plugin.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("p%d", n)
			r.Register(name, "worker", n%2 == 0)
			r.SetSetting(name, "idx", fmt.Sprintf("%d", n))
			r.IsActive(name)
			r.ListActive()
		}(i)
	}
	wg.Wait()
	if len(r.ListAll()) != 16 {
		t.Fatalf("expected 16 plugins, got %d", len(r.ListAll()))
	}
}
