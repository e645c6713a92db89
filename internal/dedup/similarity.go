package dedup

// Similarity returns a sequence-similarity ratio in [0,1] between two
// comparison texts: 2*M / (len(a)+len(b)) where M is the total size of the
// longest matching blocks between the two rune sequences. Either text being
// empty scores 0.0 so degenerate records never produce hits; equal texts
// score 1.0 without running the block matcher.
//
// The block matcher itself is order-sensitive (the index is built from b and
// ties break on the earliest run in a), so the arguments are put in
// lexicographic order first. That makes the score a function of the pair,
// not of feed order.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	if a > b {
		a, b = b, a
	}
	ra := []rune(a)
	rb := []rune(b)
	matched := totalMatchSize(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

type matchSpan struct {
	alo, ahi int
	blo, bhi int
}

// totalMatchSize sums the sizes of the matching blocks found by repeatedly
// taking the longest common run inside each unmatched region, the same
// divide-and-conquer scheme difflib uses.
func totalMatchSize(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	total := 0
	stack := []matchSpan{{0, len(a), 0, len(b)}}
	for len(stack) > 0 {
		span := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, size := longestMatch(a, b2j, span)
		if size == 0 {
			continue
		}
		total += size
		stack = append(stack,
			matchSpan{span.alo, i, span.blo, j},
			matchSpan{i + size, span.ahi, j + size, span.bhi},
		)
	}
	return total
}

// longestMatch finds the longest run a[i:i+size] == b[j:j+size] inside the
// given span. Among equally long runs the earliest in a, then earliest in b,
// wins, which keeps the scan fully deterministic.
func longestMatch(a []rune, b2j map[rune][]int, span matchSpan) (besti, bestj, bestsize int) {
	besti, bestj = span.alo, span.blo
	j2len := map[int]int{}
	for i := span.alo; i < span.ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < span.blo {
				continue
			}
			if j >= span.bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
