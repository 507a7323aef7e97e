package similarity

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Ratio returns the Indel-normalized similarity of a and b in [0,100]:
// 100 * 2*LCS / (len(a)+len(b)), measured in runes.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return 200 * float64(lcs(a, b)) / float64(total)
}

// lcs computes the longest common subsequence length with two rows.
func lcs(a, b []rune) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for j := 1; j <= len(b); j++ {
		for i := 1; i <= len(a); i++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[i] = prev[i-1] + 1
			case prev[i] >= curr[i-1]:
				curr[i] = prev[i]
			default:
				curr[i] = curr[i-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

// PartialRatio returns the best substring similarity. Both directions are
// evaluated (a inside b, b inside a) and the maximum is kept, so a short
// personal name is not penalized against a long organization name.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	return max(contained(ra, rb), contained(rb, ra))
}

// contained slides needle over every same-length window of hay.
func contained(needle, hay []rune) float64 {
	if len(needle) == 0 || len(needle) > len(hay) {
		return 0
	}
	best := 0.0
	for i := 0; i+len(needle) <= len(hay); i++ {
		if s := ratioRunes(needle, hay[i:i+len(needle)]); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the tokens of a and b after sorting them, so word
// order does not matter.
func TokenSortRatio(a, b []string) float64 {
	return Ratio(sortedJoin(a), sortedJoin(b))
}

// TokenSetRatio compares the shared tokens of a and b against each side's
// remainder. A name whose tokens are a subset of the other scores 100.
func TokenSetRatio(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	base := sortedJoin(inter)
	withA := strings.TrimSpace(base + " " + sortedJoin(onlyA))
	withB := strings.TrimSpace(base + " " + sortedJoin(onlyB))

	return max(Ratio(base, withA), Ratio(base, withB), Ratio(withA, withB))
}

// EditRatio returns the Levenshtein similarity 100 * (1 - distance/maxLen).
func EditRatio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	return 100 * (1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest))
}

func sortedJoin(tokens []string) string {
	s := slices.Clone(tokens)
	slices.Sort(s)
	return strings.Join(s, " ")
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// WRatio is the weighted ratio of the rapidfuzz family. Strings of similar
// length are compared whole and by tokens; once one is at least 1.5 times
// longer, scaled substring comparisons are mixed in.
func WRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	const unbaseScale = 0.95

	ta, tb := strings.Fields(a), strings.Fields(b)
	short, long := min(len(ra), len(rb)), max(len(ra), len(rb))
	lenRatio := float64(long) / float64(short)

	best := ratioRunes(ra, rb)
	if lenRatio < 1.5 {
		return max(best, max(TokenSortRatio(ta, tb), TokenSetRatio(ta, tb))*unbaseScale)
	}

	partialScale := 0.9
	if lenRatio >= 8 {
		partialScale = 0.6
	}
	best = max(best, PartialRatio(a, b)*partialScale)
	return max(best, PartialTokenRatio(ta, tb)*unbaseScale*partialScale)
}

// PartialTokenRatio is 100 when the token sets intersect, otherwise the best
// substring similarity of the sorted token lists.
func PartialTokenRatio(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	for t := range setA {
		if _, ok := setB[t]; ok {
			return 100
		}
	}
	uniqA, uniqB := setTokens(setA), setTokens(setB)
	return max(
		PartialRatio(sortedJoin(a), sortedJoin(b)),
		PartialRatio(sortedJoin(uniqA), sortedJoin(uniqB)),
	)
}

func setTokens(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}
