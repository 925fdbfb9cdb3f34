package source

import (
	"fmt"
	"testing"
)

func TestInternerBasic(t *testing.T) {
	interner := NewInterner()

	if s, ok := interner.Lookup(NoStringID); !ok || s != "" {
		t.Errorf("NoStringID должен возвращать пустую строку, получили: %q, ok=%v", s, ok)
	}

	id1 := interner.Intern("parse_header")
	if id1 == NoStringID {
		t.Error("Intern не должен возвращать NoStringID для непустой строки")
	}
	if id2 := interner.Intern("parse_header"); id1 != id2 {
		t.Errorf("одинаковые строки должны иметь одинаковый ID: %d != %d", id1, id2)
	}
	if s, ok := interner.Lookup(id1); !ok || s != "parse_header" {
		t.Errorf("Lookup вернул неверную строку: %q, ok=%v", s, ok)
	}
	if id3 := interner.Intern("main"); id3 == id1 {
		t.Error("разные строки должны иметь разные ID")
	}
	if interner.Len() != 3 {
		t.Errorf("Len должен быть 3, получили: %d", interner.Len())
	}
	if id, ok := interner.Find("main"); !ok || id == id1 {
		t.Errorf("Find не нашёл строку: %d, ok=%v", id, ok)
	}
	if _, ok := interner.Find("absent"); ok || interner.Len() != 3 {
		t.Error("Find не должен добавлять строку")
	}
	if interner.Has(StringID(9999)) {
		t.Error("Has должен возвращать false для несуществующего ID")
	}
}

func TestInternerCanonical(t *testing.T) {
	interner := NewInterner()
	line := "enter decode_frame(int)"
	name := line[6:18]

	got := interner.Canonical(name)
	if got != "decode_frame" {
		t.Fatalf("Canonical = %q", got)
	}
	if again := interner.Canonical(string([]byte("decode_frame"))); again != got {
		t.Fatalf("Canonical returned a different value: %q", again)
	}
	if interner.Canonical("") != "" || interner.Len() != 2 {
		t.Fatalf("empty string must not be added, Len = %d", interner.Len())
	}
}

func TestInternerMustLookupPanics(t *testing.T) {
	interner := NewInterner()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup должен паниковать для невалидного ID")
		}
	}()
	interner.MustLookup(StringID(9999))
}

func TestInternerSnapshotIsCopy(t *testing.T) {
	interner := NewInterner()
	interner.Intern("a")
	snapshot := interner.Snapshot()
	snapshot[0] = "modified"
	if s, _ := interner.Lookup(NoStringID); s != "" {
		t.Error("изменение snapshot не должно влиять на interner")
	}
}

func BenchmarkInternerIntern(b *testing.B) {
	interner := NewInterner()
	names := make([]string, 1000)
	for i := range names {
		names[i] = fmt.Sprintf("fn_%d", i)
	}
	b.ResetTimer()
	for i := range b.N {
		interner.Intern(names[i%len(names)])
	}
}
