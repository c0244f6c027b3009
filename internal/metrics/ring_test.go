package metrics

import "testing"

func TestRing_PushBelowCapacity(t *testing.T) {
	r := NewRing[int](5)

	for i := 0; i < 3; i++ {
		if r.Push(i) {
			t.Fatalf("Push(%d) reported eviction below capacity", i)
		}
	}

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
	items := r.Items()
	for i, v := range items {
		if v != i {
			t.Errorf("items[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestRing_EvictsOldestFirst(t *testing.T) {
	r := NewRing[int](3)

	for i := 0; i < 7; i++ {
		r.Push(i)
	}

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if r.Evicted() != 4 {
		t.Errorf("Evicted() = %d, want 4", r.Evicted())
	}
	if r.TotalPushed() != 7 {
		t.Errorf("TotalPushed() = %d, want 7", r.TotalPushed())
	}

	want := []int{4, 5, 6}
	got := r.Items()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRing_EachMatchesItems(t *testing.T) {
	r := NewRing[int](4)
	for i := 10; i < 16; i++ {
		r.Push(i)
	}

	var seen []int
	r.Each(func(v int) { seen = append(seen, v) })

	items := r.Items()
	if len(seen) != len(items) {
		t.Fatalf("Each visited %d items, Items returned %d", len(seen), len(items))
	}
	for i := range items {
		if seen[i] != items[i] {
			t.Errorf("Each[%d] = %d, Items[%d] = %d", i, seen[i], i, items[i])
		}
	}
}

func TestRing_ItemsIsCopy(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)

	items := r.Items()
	items[0] = 99

	if got := r.Items()[0]; got != 1 {
		t.Errorf("ring mutated through Items() copy: got %d", got)
	}
}

func TestRing_Reset(t *testing.T) {
	r := NewRing[string](2)
	r.Push("a")
	r.Push("b")
	r.Push("c")

	r.Reset()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", r.Len())
	}
	if r.Evicted() != 0 {
		t.Errorf("Evicted() = %d after Reset, want 0", r.Evicted())
	}

	r.Push("d")
	if got := r.Items(); len(got) != 1 || got[0] != "d" {
		t.Errorf("Items() = %v after Reset+Push, want [d]", got)
	}
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := NewRing[int](0)
	if r.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", r.Cap())
	}
	r.Push(1)
	r.Push(2)
	if got := r.Items(); len(got) != 1 || got[0] != 2 {
		t.Errorf("Items() = %v, want [2]", got)
	}
}
