package common

// EntropySpan measures the entropy-coded data starting at data[pos]:
// stuffed 0xFF 0x00 pairs and restart markers belong to the span, any
// other marker terminates it. The returned length may run to the end
// of data when no terminating marker is present.
func EntropySpan(data []byte, pos int) int {
	i := pos
	for i < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		// Skip 0xFF fill bytes to find the marker code.
		j := i + 1
		for j < len(data) && data[j] == 0xFF {
			j++
		}
		if j >= len(data) {
			return len(data) - pos
		}
		b := data[j]
		if b == 0x00 || (b >= 0xD0 && b <= 0xD7) {
			i = j + 1
			continue
		}
		return i - pos
	}
	return i - pos
}
