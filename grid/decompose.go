package grid

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Decompose splits the grid into one block of points per rank. The ranks
// are laid out on a px*py*pz process topology chosen to keep the blocks as
// cubic as possible; points left over by an axis split go to the first
// ranks of that axis.
func Decompose(spec Spec, ranks int) ([]*Subdomain, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if ranks <= 0 {
		return nil, errors.New("rank count must be positive").
			WithType(ErrTypeGrid).
			WithTag("ranks", ranks)
	}

	topology, ok := processTopology(spec.Size, ranks)
	if !ok {
		return nil, errors.New("grid is too small for the rank count").
			WithType(ErrTypeGrid).
			WithTag("ranks", ranks).
			WithTag("size", spec.Size)
	}

	var splits [3][]int
	for axis := 0; axis < 3; axis++ {
		splits[axis] = splitAxis(spec.Size[axis], topology[axis])
	}

	subdomains := make([]*Subdomain, 0, ranks)
	var start [3]int
	for pk, nk := range splits[2] {
		start[1] = 0
		for pj, nj := range splits[1] {
			start[0] = 0
			for pi, ni := range splits[0] {
				rank := (pk*topology[1]+pj)*topology[0] + pi
				subdomains = append(subdomains, newSubdomain(spec, rank, start, [3]int{ni, nj, nk}, topology))
				start[0] += ni
			}
			start[1] += nj
		}
		start[2] += nk
	}
	return subdomains, nil
}

// processTopology returns the factorization of ranks that minimizes the
// surface of the blocks, with no more ranks than points on any axis.
func processTopology(size [3]int, ranks int) ([3]int, bool) {
	var best [3]int
	bestScore := math.Inf(1)

	for px := 1; px <= ranks; px++ {
		if ranks%px != 0 || px > size[0] {
			continue
		}
		for py := 1; py <= ranks/px; py++ {
			if (ranks/px)%py != 0 || py > size[1] {
				continue
			}
			pz := ranks / px / py
			if pz > size[2] {
				continue
			}

			bx := float64(size[0]) / float64(px)
			by := float64(size[1]) / float64(py)
			bz := float64(size[2]) / float64(pz)
			if score := bx*by + by*bz + bz*bx; score < bestScore {
				best = [3]int{px, py, pz}
				bestScore = score
			}
		}
	}
	return best, !math.IsInf(bestScore, 1)
}

func splitAxis(n, parts int) []int {
	res := make([]int, parts)
	for i := range res {
		res[i] = n / parts
		if i < n%parts {
			res[i]++
		}
	}
	return res
}
