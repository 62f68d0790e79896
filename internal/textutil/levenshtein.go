package textutil

// Levenshtein returns the edit distance between a and b, computed over runes
// with two rolling rows.
func Levenshtein(a, b string) int {
	aRunes := []rune(a)
	bRunes := []rune(b)
	aLen := len(aRunes)
	bLen := len(bRunes)

	if aLen == 0 {
		return bLen
	}
	if bLen == 0 {
		return aLen
	}

	// iterate over the shorter string in the inner loop
	if aLen > bLen {
		aRunes, bRunes = bRunes, aRunes
		aLen, bLen = bLen, aLen
	}

	prevRow := make([]int, aLen+1)
	currRow := make([]int, aLen+1)

	for i := 0; i <= aLen; i++ {
		prevRow[i] = i
	}

	for j := 1; j <= bLen; j++ {
		currRow[0] = j
		for i := 1; i <= aLen; i++ {
			cost := 1
			if aRunes[i-1] == bRunes[j-1] {
				cost = 0
			}
			del := prevRow[i] + 1
			ins := currRow[i-1] + 1
			sub := prevRow[i-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			currRow[i] = min
		}
		prevRow, currRow = currRow, prevRow
	}

	return prevRow[aLen]
}

// Similarity returns 1 - levenshtein/maxLen over the two strings, each capped
// at maxRunes runes. Empty-vs-empty counts as identical.
func Similarity(a, b string, maxRunes int) float64 {
	if maxRunes > 0 {
		a = truncateRunes(a, maxRunes)
		b = truncateRunes(b, maxRunes)
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	max := la
	if lb > max {
		max = lb
	}
	d := Levenshtein(a, b)
	return 1.0 - float64(d)/float64(max)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
