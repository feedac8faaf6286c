package preferences

import "strings"

// NormalizeAssets upper-cases, trims and de-duplicates asset symbols.
func NormalizeAssets(in []string) []string {
	return normalize(in, strings.ToUpper)
}

// NormalizeContentTypes trims and de-duplicates content type labels,
// keeping their original casing.
func NormalizeContentTypes(in []string) []string {
	return normalize(in, func(s string) string { return s })
}

func normalize(in []string, canon func(string) string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))

	for _, v := range in {
		v = canon(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	return out
}
