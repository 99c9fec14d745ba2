package cluster

import "iter"

// JoinRow is the transient pairing produced by EquiJoin. It is never
// persisted; callers unpack it immediately.
type JoinRow[L, R any] struct {
	Left  L
	Right R
}

// EquiJoin pairs each left row with every right row whose derived key is
// equal (inner-join semantics: a left row with no match is dropped). The
// right side is indexed once up front; the left side is consumed lazily,
// so large left collections are never materialized. Output order follows
// the left sequence; the order of multiple matches for one key follows
// the right slice. In practice keys here are unique per entity, so each
// left row yields at most one pair.
func EquiJoin[L, R any, K comparable](
	left iter.Seq[L], leftKey func(L) K,
	right []R, rightKey func(R) K,
) iter.Seq[JoinRow[L, R]] {
	return func(yield func(JoinRow[L, R]) bool) {
		index := make(map[K][]R, len(right))
		for _, r := range right {
			k := rightKey(r)
			index[k] = append(index[k], r)
		}

		for l := range left {
			for _, r := range index[leftKey(l)] {
				if !yield(JoinRow[L, R]{Left: l, Right: r}) {
					return
				}
			}
		}
	}
}

// seqOf adapts a slice to a lazy sequence.
func seqOf[T any](items []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

// filterSeq yields only the items for which keep returns true.
func filterSeq[T any](seq iter.Seq[T], keep func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for item := range seq {
			if keep(item) && !yield(item) {
				return
			}
		}
	}
}
