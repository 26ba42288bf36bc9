package forecast

import (
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

// Series is a dense run of daily demand in ascending date order. The last
// value belongs to End.
type Series struct {
	End    time.Time
	Values []float64
}

// Densify lays out n days ending at end, taking quantities from days (keyed
// YYYY-MM-DD). Days without sales count as zero demand.
func Densify(days map[string]float64, end time.Time, n int) Series {
	if n < 0 {
		n = 0
	}
	end = dayOf(end)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		d := end.AddDate(0, 0, -(n - 1 - i))
		values[i] = days[d.Format(dateKeyLayout)]
	}
	return Series{End: end, Values: values}
}

func (s Series) Len() int { return len(s.Values) }

// DateAt returns the calendar day of Values[i].
func (s Series) DateAt(i int) time.Time {
	return s.End.AddDate(0, 0, -(len(s.Values) - 1 - i))
}

// Tail returns the most recent n days. n larger than the series is capped.
func (s Series) Tail(n int) Series {
	if n < 0 {
		n = 0
	}
	if n >= len(s.Values) {
		return s
	}
	return Series{End: s.End, Values: s.Values[len(s.Values)-n:]}
}

// Total sums every value.
func (s Series) Total() float64 {
	var sum float64
	for _, v := range s.Values {
		sum += v
	}
	return sum
}

// TrailingMean averages the last window days with window as the divisor,
// even when the series is shorter: missing history is zero demand.
func (s Series) TrailingMean(window int) float64 {
	if window < 1 {
		window = 1
	}
	return s.Tail(window).Total() / float64(window)
}

// Points renders the last n days for charting.
func (s Series) Points(n int) []domain.DailyPoint {
	tail := s.Tail(n)
	points := make([]domain.DailyPoint, len(tail.Values))
	for i, v := range tail.Values {
		points[i] = domain.DailyPoint{
			Date:     tail.DateAt(i).Format(dateKeyLayout),
			Quantity: v,
		}
	}
	return points
}

// EWMA smooths values with the given alpha, seeded with the earliest value
// and recurred forward. ok is false for an empty input.
func EWMA(values []float64, alpha float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	alpha = min(max(alpha, 0), 1)
	ewma := values[0]
	for _, v := range values[1:] {
		ewma = alpha*v + (1-alpha)*ewma
	}
	return ewma, true
}

// SpanAlpha converts a span in days to an EWMA smoothing factor.
func SpanAlpha(span int) float64 {
	if span < 1 {
		span = 1
	}
	return 2 / (float64(span) + 1)
}

const dateKeyLayout = "2006-01-02"

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
