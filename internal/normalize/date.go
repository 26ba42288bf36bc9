package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// CanonicalDateLayout is the only date format stored or returned.
const CanonicalDateLayout = "2006-01-02"

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	slashes       = strings.NewReplacer("/", "-", `\`, "-")
)

// dateLayouts is ordered: year-first, then day-month-year, then
// month-day-year, then named months. "5/3/2024" therefore reads as 5 March.
// Numeric month and day tokens ("1", "2") accept one or two digits.
var dateLayouts = []string{
	"2006-1-2", "2006/1/2", "2006.1.2", "2006 1 2", "20060102", "2006 2 1",

	"2/1/2006", "2/1/06", "02012006", "020106", "2 1 2006", "2 1 06",
	"2-1-2006", "2-1-06",
	"2.1.2006", "2.1.06",

	"1/2/2006", "1/2/06", "01022006", "010206", "1 2 2006", "1 2 06",
	"1-2-2006", "1-2-06",
	"1.2.2006", "1.2.06",

	"2 Jan 2006", "2 Jan 06", "2 January 2006", "2 January 06",
	"Jan 2 2006", "Jan 2 06", "January 2 2006", "January 2 06",
	"2 Jan, 2006", "2 Jan, 06", "2 January, 2006", "2 January, 06",
	"Jan 2, 2006", "Jan 2, 06", "January 2, 2006", "January 2, 06",

	"Mon, 2 Jan 2006", "Mon 2 Jan 2006", "Mon, 2 January 2006", "Mon 2 January 2006",
	"Monday, 2 Jan 2006", "Monday 2 Jan 2006", "Monday, 2 January 2006", "Monday 2 January 2006",
	"Mon, Jan 2, 2006", "Monday, January 2, 2006",
}

var timeSuffixes = []string{
	"",
	" 15:04",
	" 15:04:05",
	" 15:04:05.999999999",
	" 15:04:05Z07:00",
	" 15:04Z07:00",
	" 15:04:05.999999999Z07:00",
	" 15:04-0700",
	" 15:04:05-0700",
	" 15:04:05.999999999-0700",
	" 3:04 PM",
	" 3:04:05 PM",
	" 3:04 pm",
	" 3:04:05 pm",
}

var isoLayouts = []string{
	"2006-1-2T15:04",
	"2006-1-2T15:04Z07:00",
	"2006-1-2T15:04-0700",
	"2006-1-2T15:04:05",
	"2006-1-2T15:04:05Z07:00",
	"2006-1-2T15:04:05-0700",
	"2006-1-2T15:04:05.999999999",
	"2006-1-2T15:04:05.999999999Z07:00",
	"2006-1-2T15:04:05.999999999-0700",
}

// strictLayouts is dateLayouts crossed with timeSuffixes, computed once.
var strictLayouts = func() []string {
	out := make([]string, 0, len(dateLayouts)*len(timeSuffixes))
	seen := make(map[string]struct{}, cap(out))
	for _, d := range dateLayouts {
		for _, s := range timeSuffixes {
			l := d + s
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}()

// Date normalizes a human-entered date to YYYY-MM-DD. The calendar date is
// taken as written; offsets are not applied. ok is false when no layout
// matches exactly, since a wrong day/month guess is worse than a rejected
// row.
func Date(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.Format(CanonicalDateLayout), true
}

// ParseDate is Date returning midnight UTC of the parsed calendar day.
func ParseDate(raw string) (time.Time, bool) {
	candidates := dateCandidates(raw)
	if len(candidates) == 0 {
		return time.Time{}, false
	}

	for _, c := range candidates {
		if t, ok := parseWith(strictLayouts, c); ok {
			return t, true
		}
	}
	for _, c := range candidates {
		if t, ok := parseWith(isoLayouts, c); ok {
			return t, true
		}
	}
	for _, c := range candidates {
		if t, ok := parsePermissive(c); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// MustDate parses a canonical YYYY-MM-DD string. It is meant for constants
// and tests.
func MustDate(s string) time.Time {
	t, err := time.Parse(CanonicalDateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dateCandidates(raw string) []string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	value = strings.TrimSpace(ordinalSuffix.ReplaceAllString(value, "$1"))
	if value == "" {
		return nil
	}

	var out []string
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" {
			return
		}
		for _, existing := range out {
			if existing == c {
				return
			}
		}
		out = append(out, c)
	}

	add(value)
	add(whitespaceRun.ReplaceAllString(value, " "))
	add(slashes.Replace(value))
	add(strings.ReplaceAll(value, ".", "-"))
	add(strings.ReplaceAll(value, ",", ""))
	return out
}

func parseWith(layouts []string, value string) (time.Time, bool) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return civil(fixTwoDigitYear(t, layout)), true
	}
	return time.Time{}, false
}

// fixTwoDigitYear maps yy=69 to 2069, matching the 00-69 / 70-99 pivot
// spreadsheet exports use. time.Parse pivots at 68/69.
func fixTwoDigitYear(t time.Time, layout string) time.Time {
	if strings.Contains(layout, "06") && !strings.Contains(layout, "2006") && t.Year() == 1969 {
		return t.AddDate(100, 0, 0)
	}
	return t
}

// parsePermissive accepts a dateparse result only when the detected layout
// carries a year, a month and a day.
func parsePermissive(value string) (t time.Time, ok bool) {
	defer func() {
		// dateparse can panic on pathological input; treat that as unparsable.
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	layout, err := dateparse.ParseFormat(value)
	if err != nil || !hasYearMonthDay(layout) {
		return time.Time{}, false
	}
	parsed, err := dateparse.ParseStrict(value)
	if err != nil {
		return time.Time{}, false
	}
	if parsed.Month() < 1 || parsed.Month() > 12 || parsed.Day() < 1 || parsed.Day() > 31 {
		return time.Time{}, false
	}
	return civil(parsed), true
}

var layoutTokens = strings.NewReplacer(
	"Z07:00", "", "-07:00", "", "Z0700", "", "-0700", "",
	"2006", "<Y>", "January", "<M>", "Jan", "<M>", "Monday", "", "Mon", "",
	"15", "", "01", "<M>", "02", "<D>", "_2", "<D>", "03", "", "04", "", "05", "", "06", "<Y>",
	"1", "<M>", "2", "<D>",
)

func hasYearMonthDay(layout string) bool {
	tokens := layoutTokens.Replace(layout)
	return strings.Contains(tokens, "<Y>") &&
		strings.Contains(tokens, "<M>") &&
		strings.Contains(tokens, "<D>")
}

// civil drops the clock and zone, keeping the calendar date as written.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
