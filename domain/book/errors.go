package book

import "errors"

var (
	// ErrSelfTrade means an incoming order would match a resting order
	// from the same client. This is an upstream protocol violation, not
	// a market condition: the matching pass aborts with the violating
	// match uncommitted and the remainder is never rested.
	ErrSelfTrade = errors.New("book: order would self-trade")

	ErrInvalidQuantity = errors.New("book: share quantity must be positive")
	ErrInvalidPrice    = errors.New("book: limit price must be positive")
	ErrSymbolMismatch  = errors.New("book: symbol does not match this book")
	ErrUnknownOrder    = errors.New("book: unknown order id")
)
