package spatial

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
)

const (
	ErrTypeIndexMismatch = "index_mismatch"
)

// ExactOverlap returns the sorted positions of the boxes that overlap b by
// scanning every box.
func ExactOverlap(boxes []mesh.Box, b mesh.Box) []int {
	var res []int
	for i, e := range boxes {
		if e.Intersects(b) {
			res = append(res, i)
		}
	}
	return res
}

// CrossCheck runs the queries against the given indexes and compares the
// results with the exact overlap scan of boxes. Every index must return a
// superset of the exact set. The octree must return exactly that set.
func CrossCheck(boxes []mesh.Box, queries []mesh.Box, indexes ...Index) error {
	for q, query := range queries {
		exact := ExactOverlap(boxes, query)

		for _, idx := range indexes {
			got := idx.QueryOverlap(query)

			if missing, ok := firstMissing(exact, got); !ok {
				return errors.New("index misses an overlapping element").
					WithType(ErrTypeIndexMismatch).
					WithTag("index_kind", idx.Kind()).
					WithTag("query", q).
					WithTag("element", missing)
			}

			if idx.Kind() == KindOctree && len(got) != len(exact) {
				return errors.New("octree returns elements that do not overlap").
					WithType(ErrTypeIndexMismatch).
					WithTag("index_kind", idx.Kind()).
					WithTag("query", q).
					WithTag("expected", len(exact)).
					WithTag("got", len(got))
			}
		}
	}
	return nil
}

// firstMissing returns the first element of want that is not in got. Both
// slices are sorted.
func firstMissing(want, got []int) (int, bool) {
	j := 0
	for _, w := range want {
		for j < len(got) && got[j] < w {
			j++
		}
		if j == len(got) || got[j] != w {
			return w, false
		}
	}
	return 0, true
}
