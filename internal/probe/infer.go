package probe

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// inferTypes returns one semantic type per header based on the sampled rows.
func inferTypes(headers []string, rows [][]string) []string {
	n := len(headers)
	cols := make([][]string, n)
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			cols[i] = append(cols[i], row[i])
		}
	}
	types := make([]string, n)
	for i := 0; i < n; i++ {
		types[i] = inferTypeForColumn(cols[i])
	}
	return types
}

// categoricalMaxLevels caps how many distinct values a sampled text column may
// have and still be suggested as categorical.
const categoricalMaxLevels = 20

// inferTypeForColumn guesses a semantic type among boolean, integer, float,
// date, datetime, categorical, and text. Heuristic: require all non-empty
// values to satisfy the narrower type; text columns with a small distinct-value
// set become categorical.
func inferTypeForColumn(values []string) string {
	nonEmpty := nonEmptyTrimmed(values)
	if len(nonEmpty) == 0 {
		return "text"
	}
	if allMatch(nonEmpty, isInt) {
		return "integer"
	}
	if allMatch(nonEmpty, isBool) {
		return "boolean"
	}
	// The all-int check already ran, so a mixed column like [1, 2.5]
	// lands here; ints are acceptable floats.
	if allMatch(nonEmpty, isFloat) {
		return "float"
	}
	allDate := true
	anyTime := false
	for _, v := range nonEmpty {
		ok, hasTime := parseDateOrTimestamp(v)
		if !ok {
			allDate = false
			break
		}
		if hasTime {
			anyTime = true
		}
	}
	if allDate {
		if anyTime {
			return "datetime"
		}
		return "date"
	}

	distinct := map[string]struct{}{}
	for _, v := range nonEmpty {
		distinct[v] = struct{}{}
	}
	if len(distinct) <= categoricalMaxLevels && len(distinct)*2 <= len(nonEmpty) {
		return "categorical"
	}
	return "text"
}

func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isBool accepts common textual booleans. 1/0 are deliberately excluded here:
// a column of ones and zeroes is far more often a count than a flag, and
// integer inference runs first anyway.
func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "t", "f", "yes", "no", "y", "n":
		return true
	default:
		return false
	}
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// isFloat accepts decimal or scientific notation, ints included.
func isFloat(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// parseDateOrTimestamp tries timestamp layouts first, then date layouts.
func parseDateOrTimestamp(s string) (ok bool, hasTime bool) {
	st := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, st); err == nil {
			return true, true
		}
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, st); err == nil {
			return true, false
		}
	}
	return false, false
}

// dateLayouts are common date formats without a time component.
var dateLayouts = []string{
	"2006-01-02",  // ISO
	"02.01.2006",  // DMY dot
	"01.02.2006",  // MDY dot
	"02/01/2006",  // DMY slash
	"01/02/2006",  // MDY slash
	"2 Jan 2006",  // DMY textual day
	"02-Jan-2006", // DMY dash textual month
	"2006/01/02",  // ISO slashy
	"20060102",    // basic ISO
}

// timestampLayouts are common formats with a time component.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05", // DMY
	"01/02/2006 15:04:05", // MDY
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
}

// dateLayoutPreference is a tie-break weight: ISO over DMY over MDY.
func dateLayoutPreference(layout string) int {
	switch layout {
	case "2006-01-02", "2006/01/02", "20060102":
		return 3
	case "02.01.2006", "02/01/2006", "2 Jan 2006", "02-Jan-2006":
		return 2
	case "01.02.2006", "01/02/2006":
		return 1
	default:
		return 0
	}
}

// timestampLayoutPreference prefers strict RFC3339Nano, then RFC3339.
func timestampLayoutPreference(layout string) int {
	switch layout {
	case time.RFC3339Nano:
		return 3
	case time.RFC3339:
		return 2
	default:
		return 1
	}
}

// detectColumnLayouts returns one layout per column (empty when unknown) for
// columns inferred as date/datetime. The layout that matches the most samples
// wins; ties fall to the preference weight, then declaration order.
func detectColumnLayouts(rows [][]string, inferred []string) []string {
	n := len(inferred)
	out := make([]string, n)
	if len(rows) == 0 {
		return out
	}

	cols := make([][]string, n)
	for _, r := range rows {
		for c := 0; c < n && c < len(r); c++ {
			v := strings.TrimSpace(r[c])
			if v != "" {
				cols[c] = append(cols[c], v)
			}
		}
	}

	for col := 0; col < n; col++ {
		switch inferred[col] {
		case "datetime":
			out[col] = selectBestLayout(cols[col], timestampLayouts, timestampLayoutPreference)
		case "date":
			out[col] = selectBestLayout(cols[col], dateLayouts, dateLayoutPreference)
		}
	}
	return out
}

// selectBestLayout scores each candidate layout by how many samples it
// matches and picks the highest; ties break by preference, then order.
func selectBestLayout(samples []string, layouts []string, pref func(string) int) string {
	if len(samples) == 0 || len(layouts) == 0 {
		return ""
	}
	scores := make([]int, len(layouts))
	for _, s := range samples {
		for i, lay := range layouts {
			if _, err := time.Parse(lay, s); err == nil {
				scores[i]++
			}
		}
	}

	bestIdx := -1
	bestScore := -1
	bestPref := -1
	for i := range layouts {
		sc := scores[i]
		if sc < bestScore {
			continue
		}
		if sc > bestScore {
			bestIdx, bestScore, bestPref = i, sc, pref(layouts[i])
			continue
		}
		if p := pref(layouts[i]); p > bestPref {
			bestIdx, bestPref = i, p
		}
	}
	if bestIdx >= 0 && bestScore > 0 {
		return layouts[bestIdx]
	}
	return ""
}

// chooseMajorityLayout picks a single dataset-level layout for the coerce
// block by counting per-column detections across date/datetime columns. Ties
// prefer date layouts by dateLayoutPreference, then timestamp preferences.
// Returns "" when nothing was detected.
func chooseMajorityLayout(colLayouts []string, inferred []string) string {
	type cand struct {
		layout string
		count  int
		pref   int
	}

	counts := map[string]*cand{}
	for i := range colLayouts {
		t := inferred[i]
		lay := colLayouts[i]
		if lay == "" || (t != "date" && t != "datetime") {
			continue
		}
		if counts[lay] == nil {
			pref := timestampLayoutPreference(lay)
			if t == "date" {
				pref = dateLayoutPreference(lay)
			}
			counts[lay] = &cand{layout: lay, pref: pref}
		}
		counts[lay].count++
	}

	var best *cand
	for _, c := range counts {
		if best == nil || c.count > best.count ||
			(c.count == best.count && c.pref > best.pref) ||
			(c.count == best.count && c.pref == best.pref && c.layout < best.layout) {
			cp := *c
			best = &cp
		}
	}
	if best != nil {
		return best.layout
	}
	return ""
}

// normalizeFieldName converts arbitrary header text into a lowercase ASCII
// identifier suitable for column names:
//  1. lowercase
//  2. strip accents (NFD, remove Mn, NFC)
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others
//  4. fallback to "col" if empty
func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}
