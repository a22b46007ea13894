package vars

import (
	"math"
	"path/filepath"
	"sort"
	"strings"
)

// Depth returns the smallest path-segment index at which {name} occurs in
// any of paths, or math.MaxInt when it occurs in none.
func Depth(name string, paths []string) int {
	token := Placeholder(name)
	depth := math.MaxInt
	for _, p := range paths {
		for i, seg := range segments(p) {
			if i >= depth {
				break
			}
			if strings.Contains(seg, token) {
				depth = i
				break
			}
		}
	}
	return depth
}

// Order sorts names by ascending Depth over paths, breaking ties by a
// case-sensitive alphabetical comparison. Names absent from every path
// sort last.
func Order(names []string, paths []string) []string {
	depths := make(map[string]int, len(names))
	for _, n := range names {
		depths[n] = Depth(n, paths)
	}
	out := make([]string, len(names))
	copy(out, names)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := depths[out[i]], depths[out[j]]
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}

func segments(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}
