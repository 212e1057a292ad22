package domain

// Answers is the short history of bracketing results for one frequency.
type Answers []int

// Repeated returns the first level that appears twice.
func (a Answers) Repeated() (int, bool) {
	seen := make(map[int]struct{}, len(a))
	for _, v := range a {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return 0, false
}
