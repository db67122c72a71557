package utils

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// DedupStrings returns the strings of hay in first-seen order with repeats and
// empty strings removed.
func DedupStrings(hay []string) []string {
	seen := map[string]struct{}{}
	res := []string{}
	for _, str := range hay {
		if str == "" {
			continue
		}
		if _, ok := seen[str]; ok {
			continue
		}
		seen[str] = struct{}{}
		res = append(res, str)
	}
	return res
}
