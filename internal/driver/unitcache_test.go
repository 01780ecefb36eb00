package driver

import "testing"

func TestUnitCache_HitMiss(t *testing.T) {
	c := NewUnitCache(16)
	var d1, d2 Digest
	d1[0] = 1
	d2[0] = 2

	c.Put(&Payload{Path: "u/x.json", Digest: d1, Broken: true})

	if _, ok := c.Get("u/x.json", d2); ok {
		t.Fatal("expected miss on different digest")
	}
	if _, ok := c.Get("u/y.json", d1); ok {
		t.Fatal("expected miss on different path")
	}
	p, ok := c.Get("u/x.json", d1)
	if !ok {
		t.Fatal("expected hit")
	}
	if !p.Broken {
		t.Fatal("expected broken=true")
	}

	var nilCache *UnitCache
	nilCache.Put(p)
	if _, ok := nilCache.Get("u/x.json", d1); ok {
		t.Fatal("nil cache must miss")
	}
}
