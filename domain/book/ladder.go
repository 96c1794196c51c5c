package book

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
)

// Ladder maps price to Limit for one side, ordered so the tree minimum
// is always the best price: highest first for bids, lowest for asks.
// Levels with zero orders are removed eagerly, so Best never has to skip
// hollow levels.
type Ladder struct {
	tree *rbt.Tree[int64, *Limit]
}

func NewLadder(side Side) *Ladder {
	cmp := func(a, b int64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	if side == Buy {
		cmp = func(a, b int64) int {
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			default:
				return 0
			}
		}
	}
	return &Ladder{tree: rbt.NewWith[int64, *Limit](cmp)}
}

// Best returns the best-priced level, or nil when the side is empty.
func (l *Ladder) Best() *Limit {
	n := l.tree.Left()
	if n == nil {
		return nil
	}
	return n.Value
}

func (l *Ladder) Get(price int64) *Limit {
	lv, ok := l.tree.Get(price)
	if !ok {
		return nil
	}
	return lv
}

func (l *Ladder) GetOrCreate(price int64) *Limit {
	if lv, ok := l.tree.Get(price); ok {
		return lv
	}
	lv := NewLimit(price)
	l.tree.Put(price, lv)
	return lv
}

func (l *Ladder) Remove(price int64) {
	l.tree.Remove(price)
}

func (l *Ladder) Len() int {
	return l.tree.Size()
}

// Walk visits levels best-first until fn returns false.
func (l *Ladder) Walk(fn func(*Limit) bool) {
	it := l.tree.Iterator()
	for it.Next() {
		if !fn(it.Value()) {
			return
		}
	}
}
