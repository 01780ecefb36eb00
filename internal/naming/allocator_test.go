package naming

import (
	"errors"
	"sync"
	"testing"

	"weave/internal/syntax"
)

func TestAllocateSuffixes(t *testing.T) {
	a := NewAllocator(0)
	a.Reserve("Foo", "Foo_Source")
	got, err := a.Allocate("Foo_Source")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "Foo_Source1" {
		t.Errorf("got %q, want Foo_Source1", got)
	}
	got, err = a.Allocate("Foo_Source")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "Foo_Source2" {
		t.Errorf("got %q, want Foo_Source2", got)
	}
}

func TestAllocateChecksEveryPrefix(t *testing.T) {
	a := NewAllocator(0)
	a.Reserve("set_P_Source")
	got, err := a.Allocate("P_Source", Prefixes(syntax.MemberProperty)...)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "P_Source1" {
		t.Errorf("got %q, want P_Source1", got)
	}
	for _, n := range []string{"P_Source1", "get_P_Source1", "set_P_Source1"} {
		if !a.IsReserved(n) {
			t.Errorf("%s not reserved", n)
		}
	}
}

func TestAllocateNormalizesNames(t *testing.T) {
	a := NewAllocator(0)
	a.Reserve("Caf\u00e9_Source")
	got, err := a.Allocate("Cafe\u0301_Source")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "Cafe\u0301_Source1" {
		t.Errorf("got %q, want decomposed base with suffix 1", got)
	}
}

func TestAllocateExhausted(t *testing.T) {
	a := NewAllocator(3)
	a.Reserve("X", "X1", "X2")
	_, err := a.Allocate("X")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}

func TestAllocateConcurrent(t *testing.T) {
	a := NewAllocator(0)
	const n = 64
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := a.Allocate("M_Source")
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			names[i] = name
		}()
	}
	wg.Wait()
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
	}
}

func TestStemAndBase(t *testing.T) {
	tests := []struct {
		m      *syntax.Member
		pos    int
		aspect string
		want   string
	}{
		{&syntax.Member{Kind: syntax.MemberMethod, Name: "Foo"}, 0, "", "Foo_Source"},
		{&syntax.Member{Kind: syntax.MemberMethod, Name: "Foo"}, 2, "Acme.Logging.LogAspect", "Foo_LogAspect"},
		{&syntax.Member{Kind: syntax.MemberMethod, Name: "Foo"}, 3, "", "Foo_Layer3"},
		{&syntax.Member{Kind: syntax.MemberMethod, Name: "Bar", Interface: "Acme.IFoo<int>"}, 0, "", "Acme_IFoo_int_Bar_Source"},
		{&syntax.Member{Kind: syntax.MemberIndexer, Name: "this"}, 0, "", "Item_Source"},
		{&syntax.Member{Kind: syntax.MemberFinalizer, Name: "Widget"}, 1, "Trace<T>", "Finalize_Trace"},
	}
	for _, tt := range tests {
		if got := LayerBase(Stem(tt.m), tt.pos, tt.aspect); got != tt.want {
			t.Errorf("LayerBase(%s, %d, %q) = %q, want %q", tt.m.Name, tt.pos, tt.aspect, got, tt.want)
		}
	}
}

func TestReserved(t *testing.T) {
	p := &syntax.Member{Kind: syntax.MemberProperty, Name: "P"}
	got := Reserved(p)
	want := []string{"P", "get_P", "set_P"}
	if len(got) != len(want) {
		t.Fatalf("Reserved = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Reserved[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if r := Reserved(&syntax.Member{Kind: syntax.MemberMethod, Name: "Bar", Interface: "IFoo"}); r != nil {
		t.Errorf("explicit implementation reserved %v", r)
	}
}
