package forecast

import (
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

const (
	defaultShortWindow = 7
	defaultLongWindow  = 30
	defaultSpan        = 14
)

// StockPosition is the current on-hand figure for one line. The zero value
// means no snapshot exists.
type StockPosition struct {
	Quantity     float64
	SnapshotDate *time.Time
	ProductName  string
}

// PositionOf converts a stored snapshot into a StockPosition.
func PositionOf(s domain.StockSnapshot) StockPosition {
	p := StockPosition{Quantity: s.Quantity, ProductName: s.ProductName}
	if !s.SnapshotDate.IsZero() {
		d := s.SnapshotDate
		p.SnapshotDate = &d
	}
	return p
}

// Calculator turns a demand series, a stock position and resolved parameters
// into a replenishment metric. It holds no state besides its options and is
// safe for concurrent use.
type Calculator struct {
	opts SmoothingOptions
}

// NewCalculator fills unset windows with their defaults.
func NewCalculator(opts SmoothingOptions) *Calculator {
	if opts.Strategy == "" {
		opts.Strategy = domain.StrategySMA
	}
	if opts.ShortWindow <= 0 {
		opts.ShortWindow = defaultShortWindow
	}
	if opts.LongWindow <= 0 {
		opts.LongWindow = defaultLongWindow
	}
	if opts.Span <= 0 {
		opts.Span = defaultSpan
	}
	opts.Alpha = min(max(opts.Alpha, 0), 1)
	if opts.ChartMaxDays < 0 {
		opts.ChartMaxDays = 0
	}
	if opts.LookbackDays < 0 {
		opts.LookbackDays = 0
	}
	return &Calculator{opts: opts}
}

// Options returns the normalized options.
func (c *Calculator) Options() SmoothingOptions {
	return c.opts
}

// ChartDays is the length of the daily series attached to each metric:
// the chart cap bounded by the lookback, or the MA window when both are 0.
func (c *Calculator) ChartDays(maWindow int) int {
	n := c.opts.ChartMaxDays
	if lb := c.opts.LookbackDays; lb > 0 {
		if n > 0 {
			n = min(n, lb)
		} else {
			n = lb
		}
	}
	if n <= 0 {
		n = maWindow
	}
	return n
}

// Horizon is how many days of series Compute needs for params.
func (c *Calculator) Horizon(params domain.Parameters) int {
	n := max(params.MAWindowDays, c.ChartDays(params.MAWindowDays), c.opts.LookbackDays)
	if c.opts.Strategy == domain.StrategyTSVEWMA {
		n = max(n, c.opts.ShortWindow, c.opts.LongWindow)
	}
	return max(n, 1)
}

// Compute produces the full-precision metric for one line. Nothing is
// rounded here; see domain.ComputedMetric.View.
func (c *Calculator) Compute(stock StockPosition, series Series, params domain.Parameters) domain.ComputedMetric {
	params = clampParameters(params)
	m := domain.ComputedMetric{
		ProductName:  stock.ProductName,
		CurrentStock: max(stock.Quantity, 0),
		SnapshotDate: stock.SnapshotDate,
		Parameters:   params,
	}

	// 1. Smoothed demand. SMA divides by the full window even when history
	// is shorter.
	m.SmoothedAverage = series.TrailingMean(params.MAWindowDays)

	switch c.opts.Strategy {
	case domain.StrategyTSVEWMA:
		short := series.TrailingMean(c.opts.ShortWindow)
		long := series.TrailingMean(c.opts.LongWindow)
		m.ShortAverage, m.LongAverage = &short, &long
		if e, ok := EWMA(c.ewmaInput(series), SpanAlpha(c.opts.Span)); ok {
			m.EWMA = &e
			m.SmoothedAverage = e
		}
	case domain.StrategyEWMA:
		if e, ok := EWMA(c.ewmaInput(series), c.opts.Alpha); ok {
			m.EWMA = &e
			m.SmoothedAverage = e
		}
	}
	m.SmoothedAverage = max(m.SmoothedAverage, 0)

	// 2. Effective average, floored by the configured minimum
	m.EffectiveAvg = max(m.SmoothedAverage, params.MinAvgDaily)

	// 3. Target stock = effective × (days to cover + safety days)
	m.TargetStock = m.EffectiveAvg * (float64(params.DaysToCover) + params.SafetyDays)

	// 4. Reorder quantity, never negative
	m.ReorderQty = max(0, m.TargetStock-m.CurrentStock)

	// 5. Days of cover, undefined without demand
	if m.EffectiveAvg > 0 {
		cover := m.CurrentStock / m.EffectiveAvg
		m.DaysOfCover = &cover
	}

	// 6. Chart series
	m.DailySeries = series.Points(c.ChartDays(params.MAWindowDays))

	return m
}

func (c *Calculator) ewmaInput(series Series) []float64 {
	if c.opts.LookbackDays > 0 {
		return series.Tail(c.opts.LookbackDays).Values
	}
	return series.Values
}
