package motionplan

// SmoothPath greedily shortcuts path. From each kept point it jumps to the farthest later point with a
// collision free segment, falling back to the next point when none farther qualifies. Paths of two
// or fewer points are returned unchanged. The result is a single pass and not globally shortest.
func SmoothPath(checker SegmentChecker, path Path) Path {
	if len(path) <= 2 {
		return path
	}
	smoothed := Path{path[0]}
	for i := 0; i < len(path)-1; {
		j := len(path) - 1
		for j > i+1 && !checker.SegmentFree(path[i], path[j]) {
			j--
		}
		smoothed = append(smoothed, path[j])
		i = j
	}
	return smoothed
}
