package book

import "testing"

func TestLadderBestOrdering(t *testing.T) {
	bids := NewLadder(Buy)
	for _, p := range []int64{99, 101, 100} {
		bids.GetOrCreate(p)
	}
	if best := bids.Best(); best == nil || best.Price != 101 {
		t.Fatalf("best bid should be highest, got %+v", best)
	}

	asks := NewLadder(Sell)
	for _, p := range []int64{102, 104, 103} {
		asks.GetOrCreate(p)
	}
	if best := asks.Best(); best == nil || best.Price != 102 {
		t.Fatalf("best ask should be lowest, got %+v", best)
	}
}

func TestLadderRemoveAdvancesBest(t *testing.T) {
	asks := NewLadder(Sell)
	asks.GetOrCreate(102)
	asks.GetOrCreate(103)

	asks.Remove(102)
	if best := asks.Best(); best == nil || best.Price != 103 {
		t.Fatalf("best should advance after removal, got %+v", best)
	}
	asks.Remove(103)
	if asks.Best() != nil || asks.Len() != 0 {
		t.Fatal("ladder should be empty")
	}
}

func TestLadderWalkBestFirst(t *testing.T) {
	bids := NewLadder(Buy)
	for _, p := range []int64{98, 100, 99} {
		bids.GetOrCreate(p)
	}

	var seen []int64
	bids.Walk(func(l *Limit) bool {
		seen = append(seen, l.Price)
		return true
	})
	want := []int64{100, 99, 98}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("walk order %v, want %v", seen, want)
		}
	}
}

func TestLimitQueueFIFO(t *testing.T) {
	l := NewLimit(100)
	l.pushTail(1)
	l.pushTail(2)
	l.pushTail(3)

	if id, ok := l.peekHead(); !ok || id != 1 {
		t.Fatalf("head should be 1, got %d", id)
	}
	l.popHead()
	if id, _ := l.peekHead(); id != 2 {
		t.Fatalf("head should be 2, got %d", id)
	}
	l.popHead()
	l.popHead()
	if _, ok := l.peekHead(); ok || l.OrderCount != 0 {
		t.Fatal("queue should be empty")
	}

	// reusable after draining
	l.pushTail(4)
	if id, ok := l.peekHead(); !ok || id != 4 {
		t.Fatalf("head should be 4 after reuse, got %d", id)
	}
}
