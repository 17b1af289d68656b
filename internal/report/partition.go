package report

// Partition splits items into at most parts contiguous slices of ceil(len/parts)
// elements each. Empty trailing slices are dropped, so concatenating the result in
// order yields items again. The returned slices share items' backing array.
func Partition[T any](items []T, parts int) [][]T {
	if len(items) == 0 || parts < 1 {
		return nil
	}
	size := (len(items) + parts - 1) / parts
	out := make([][]T, 0, parts)
	for i := range parts {
		start := i * size
		if start >= len(items) {
			break
		}
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
