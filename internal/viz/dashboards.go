package viz

import (
	"bytes"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/justinj8/fintech-copilot/internal/dataset"
)

// renderGrid draws four panels into a 2x2 PNG.
func renderGrid(panels [4]*plot.Plot) ([]byte, error) {
	img := vgimg.New(vg.Points(1200), vg.Points(900))
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: 2,
		Cols: 2,
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}

	grid := [][]*plot.Plot{
		{panels[0], panels[1]},
		{panels[2], panels[3]},
	}
	canvases := plot.Align(grid, tiles, dc)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	var buf bytes.Buffer
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Selector) churnDashboard() ([]byte, error) {
	rows := s.ds.Rows()

	byTier, err := groupMeanBar("Churn Rate by Account Tier", "Churn Rate",
		dataset.GroupAgg(rows, dataset.ByTier, dataset.ChurnVal), false)
	if err != nil {
		return nil, err
	}

	bySegment, err := groupMeanBar("Churn Rate by Customer Segment", "Churn Rate",
		dataset.GroupAgg(rows, dataset.BySegment, dataset.ChurnVal), false)
	if err != nil {
		return nil, err
	}

	var retained, churned []float64
	for _, row := range rows {
		if row.Churned {
			churned = append(churned, row.MonthlySpend)
		} else {
			retained = append(retained, row.MonthlySpend)
		}
	}
	spendDist, err := overlaidHist("Monthly Spend Distribution: Churned vs Retained", "Monthly Spend ($)",
		[]string{"Retained", "Churned"}, [][]float64{retained, churned})
	if err != nil {
		return nil, err
	}

	byFeature, err := groupMeanBar("Churn Rate by Feature Usage", "Churn Rate",
		dataset.GroupAgg(rows, dataset.ByFeature, dataset.ChurnVal), true)
	if err != nil {
		return nil, err
	}

	return renderGrid([4]*plot.Plot{byTier, bySegment, spendDist, byFeature})
}

func (s *Selector) revenueDashboard() ([]byte, error) {
	rows := s.ds.Rows()

	byTier, err := groupSumBar("Total Revenue by Tier", "Revenue ($)",
		dataset.GroupAgg(rows, dataset.ByTier, dataset.RevenueVal), false)
	if err != nil {
		return nil, err
	}

	bySegment, err := groupMeanBar("Average Revenue per Customer by Segment", "Average Revenue ($)",
		dataset.GroupAgg(rows, dataset.BySegment, dataset.RevenueVal), false)
	if err != nil {
		return nil, err
	}

	xys := make(plotter.XYs, len(rows))
	for i, row := range rows {
		xys[i].X = row.MonthlySpend
		xys[i].Y = row.MonthlyRevenue
	}
	spendVsRevenue, err := scatterPanel("Revenue vs Spending Relationship", "Monthly Spend ($)", "Monthly Revenue ($)", xys)
	if err != nil {
		return nil, err
	}

	byFeature, err := groupSumBar("Total Revenue by Feature", "Total Revenue ($)",
		dataset.GroupAgg(rows, dataset.ByFeature, dataset.RevenueVal), true)
	if err != nil {
		return nil, err
	}

	return renderGrid([4]*plot.Plot{byTier, bySegment, spendVsRevenue, byFeature})
}

func (s *Selector) spendingDashboard() ([]byte, error) {
	rows := s.ds.Rows()

	tiers, tierSpend := seriesByKey(rows, dataset.ByTier, dataset.SpendVal)
	spendDist, err := overlaidHist("Spending Distribution by Tier", "Monthly Spend ($)", tiers, tierSpend)
	if err != nil {
		return nil, err
	}

	bySegment, err := groupMeanBar("Average Spending by Customer Segment", "Average Spend ($)",
		dataset.GroupAgg(rows, dataset.BySegment, dataset.SpendVal), false)
	if err != nil {
		return nil, err
	}

	xys := make(plotter.XYs, len(rows))
	for i, row := range rows {
		xys[i].X = float64(row.TransactionsCount)
		xys[i].Y = row.MonthlySpend
	}
	spendVsTx, err := scatterPanel("Spending vs Transaction Count", "Transaction Count", "Monthly Spend ($)", xys)
	if err != nil {
		return nil, err
	}

	boxes, err := boxPanel("Spending Distribution by Tier (Boxplot)", "Monthly Spend ($)", tiers, tierSpend)
	if err != nil {
		return nil, err
	}

	return renderGrid([4]*plot.Plot{spendDist, bySegment, spendVsTx, boxes})
}

func (s *Selector) featureDashboard() ([]byte, error) {
	rows := s.ds.Rows()

	counts := dataset.ValueCounts(rows, dataset.ByFeature)
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = c.Value
		values[i] = float64(c.N)
	}
	usage, err := barPanel("Feature Usage Distribution", "Count", labels, values, false)
	if err != nil {
		return nil, err
	}

	byTier, err := s.stackedFeatureByTier()
	if err != nil {
		return nil, err
	}

	revenue, err := groupMeanBar("Average Revenue by Feature", "Average Revenue ($)",
		dataset.GroupAgg(rows, dataset.ByFeature, dataset.RevenueVal), false)
	if err != nil {
		return nil, err
	}

	spend, err := groupMeanBar("Average Spending by Feature", "Average Spend ($)",
		dataset.GroupAgg(rows, dataset.ByFeature, dataset.SpendVal), true)
	if err != nil {
		return nil, err
	}

	return renderGrid([4]*plot.Plot{usage, byTier, revenue, spend})
}

func (s *Selector) trendDashboard() ([]byte, error) {
	rows := s.ds.Rows()
	periods, buckets := monthlyBuckets(rows)

	signups := plot.New()
	signups.Title.Text = "Customer Signups Over Time"
	signups.X.Label.Text = "Month"
	signups.Y.Label.Text = "New Customers"
	signupXYs := make(plotter.XYs, len(periods))
	for i, p := range periods {
		signupXYs[i].X = float64(i)
		signupXYs[i].Y = float64(len(buckets[p]))
	}
	if err := plotutil.AddLinePoints(signups, signupXYs); err != nil {
		return nil, err
	}

	revenueTrends := plot.New()
	revenueTrends.Title.Text = "Revenue Trends by Tier"
	revenueTrends.X.Label.Text = "Month"
	revenueTrends.Y.Label.Text = "Revenue ($)"
	if err := addKeyedTrendLines(revenueTrends, periods, buckets, dataset.ByTier, dataset.RevenueVal, dataset.Sum); err != nil {
		return nil, err
	}

	churnTrend := plot.New()
	churnTrend.Title.Text = "Churn Rate Trends"
	churnTrend.X.Label.Text = "Month"
	churnTrend.Y.Label.Text = "Churn Rate"
	churnXYs := make(plotter.XYs, len(periods))
	for i, p := range periods {
		churnXYs[i].X = float64(i)
		churnXYs[i].Y = dataset.Mean(dataset.Values(buckets[p], dataset.ChurnVal))
	}
	if err := plotutil.AddLinePoints(churnTrend, churnXYs); err != nil {
		return nil, err
	}

	adoption := plot.New()
	adoption.Title.Text = "Feature Adoption Over Time"
	adoption.X.Label.Text = "Month"
	adoption.Y.Label.Text = "Usage Count"
	countVal := func(dataset.Customer) float64 { return 1 }
	if err := addKeyedTrendLines(adoption, periods, buckets, dataset.ByFeature, countVal, dataset.Sum); err != nil {
		return nil, err
	}

	return renderGrid([4]*plot.Plot{signups, revenueTrends, churnTrend, adoption})
}

func (s *Selector) comparisonDashboard() ([]byte, error) {
	rows := s.ds.Rows()

	tierMetrics, err := metricsHeatMap("Tier Metrics Heatmap", rows, dataset.ByTier)
	if err != nil {
		return nil, err
	}

	segments, err := groupedMetricBars("Segment Metrics Comparison", rows, dataset.BySegment)
	if err != nil {
		return nil, err
	}

	cardTypes, err := cardPerformancePanel(rows)
	if err != nil {
		return nil, err
	}

	featureTier, err := normalizedCrossTabHeatMap("Feature Usage by Tier (Normalized)", rows)
	if err != nil {
		return nil, err
	}

	return renderGrid([4]*plot.Plot{tierMetrics, segments, cardTypes, featureTier})
}

func (s *Selector) overviewDashboard() ([]byte, error) {
	rows := s.ds.Rows()

	tierCounts := dataset.ValueCounts(rows, dataset.ByTier)
	labels := make([]string, len(tierCounts))
	values := make([]float64, len(tierCounts))
	for i, c := range tierCounts {
		labels[i] = c.Value
		values[i] = float64(c.N)
	}
	tiers, err := barPanel("Customer Distribution by Tier", "Customers", labels, values, false)
	if err != nil {
		return nil, err
	}

	spendRevenue := plot.New()
	spendRevenue.Title.Text = "Revenue vs Spend (Red=Churned)"
	spendRevenue.X.Label.Text = "Monthly Spend ($)"
	spendRevenue.Y.Label.Text = "Monthly Revenue ($)"
	var retained, churned plotter.XYs
	for _, row := range rows {
		xy := plotter.XY{X: row.MonthlySpend, Y: row.MonthlyRevenue}
		if row.Churned {
			churned = append(churned, xy)
		} else {
			retained = append(retained, xy)
		}
	}
	retainedScatter, err := plotter.NewScatter(retained)
	if err != nil {
		return nil, err
	}
	retainedScatter.GlyphStyle.Color = color.NRGBA{G: 160, A: 255}
	churnedScatter, err := plotter.NewScatter(churned)
	if err != nil {
		return nil, err
	}
	churnedScatter.GlyphStyle.Color = color.NRGBA{R: 200, A: 255}
	spendRevenue.Add(retainedScatter, churnedScatter)
	spendRevenue.Legend.Add("Retained", retainedScatter)
	spendRevenue.Legend.Add("Churned", churnedScatter)

	segmentSummary, err := groupedMetricBars("Spending and Churn by Segment", rows, dataset.BySegment)
	if err != nil {
		return nil, err
	}

	statusCounts := dataset.ValueCounts(rows, dataset.ByStatus)
	statusLabels := make([]string, len(statusCounts))
	statusValues := make([]float64, len(statusCounts))
	for i, c := range statusCounts {
		statusLabels[i] = c.Value
		statusValues[i] = float64(c.N)
	}
	status, err := barPanel("Account Status Distribution", "Count", statusLabels, statusValues, false)
	if err != nil {
		return nil, err
	}

	return renderGrid([4]*plot.Plot{tiers, spendRevenue, segmentSummary, status})
}

// stackedFeatureByTier builds stacked bars of feature usage per tier.
func (s *Selector) stackedFeatureByTier() (*plot.Plot, error) {
	rows := s.ds.Rows()

	features := keysOf(rows, dataset.ByFeature)
	tiers := keysOf(rows, dataset.ByTier)

	p := plot.New()
	p.Title.Text = "Feature Usage by Account Tier"
	p.Y.Label.Text = "Count"

	var prev *plotter.BarChart
	for i, tier := range tiers {
		vals := make(plotter.Values, len(features))
		for j, feature := range features {
			n := 0
			for _, row := range rows {
				if row.AccountTier == tier && row.ProductFeatureUsed == feature {
					n++
				}
			}
			vals[j] = float64(n)
		}

		bar, err := plotter.NewBarChart(vals, vg.Points(20))
		if err != nil {
			return nil, err
		}
		bar.Color = plotutil.Color(i)
		bar.LineStyle.Width = 0
		if prev != nil {
			bar.StackOn(prev)
		}
		p.Add(bar)
		p.Legend.Add(tier, bar)
		prev = bar
	}

	p.NominalX(features...)
	return p, nil
}

func barPanel(title, ylabel string, labels []string, values []float64, horizontal bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title

	bar, err := plotter.NewBarChart(plotter.Values(values), vg.Points(20))
	if err != nil {
		return nil, err
	}
	bar.Color = plotutil.Color(0)
	bar.LineStyle.Width = 0
	bar.Horizontal = horizontal
	p.Add(bar)

	if horizontal {
		p.X.Label.Text = ylabel
		p.NominalY(labels...)
	} else {
		p.Y.Label.Text = ylabel
		p.NominalX(labels...)
	}
	return p, nil
}

func groupMeanBar(title, ylabel string, groups []dataset.Group, horizontal bool) (*plot.Plot, error) {
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
		values[i] = g.Mean
	}
	return barPanel(title, ylabel, labels, values, horizontal)
}

func groupSumBar(title, ylabel string, groups []dataset.Group, horizontal bool) (*plot.Plot, error) {
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
		values[i] = g.Sum
	}
	return barPanel(title, ylabel, labels, values, horizontal)
}

func overlaidHist(title, xlabel string, names []string, series [][]float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Count"

	for i, vals := range series {
		if len(vals) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(vals), 20)
		if err != nil {
			return nil, err
		}
		base, ok := plotutil.Color(i).(color.RGBA)
		if !ok {
			base = color.RGBA{B: 180, A: 255}
		}
		h.FillColor = color.NRGBA{R: base.R, G: base.G, B: base.B, A: 160}
		p.Add(h)
		p.Legend.Add(names[i], h)
	}
	return p, nil
}

func scatterPanel(title, xlabel, ylabel string, xys plotter.XYs) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = color.NRGBA{B: 180, A: 160}
	p.Add(sc)
	return p, nil
}

func boxPanel(title, ylabel string, names []string, series [][]float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel

	for i, vals := range series {
		if len(vals) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(vals))
		if err != nil {
			return nil, err
		}
		p.Add(box)
	}
	p.NominalX(names...)
	return p, nil
}

// metricsHeatMap draws mean spend/revenue/churn/transactions per group key.
func metricsHeatMap(title string, rows []dataset.Customer, key dataset.KeyFunc) (*plot.Plot, error) {
	spend := dataset.GroupAgg(rows, key, dataset.SpendVal)
	revenue := dataset.GroupAgg(rows, key, dataset.RevenueVal)
	churn := dataset.GroupAgg(rows, key, dataset.ChurnVal)
	transactions := dataset.GroupAgg(rows, key, dataset.TransactionsVal)

	grid := &metricGrid{
		cols: len(spend),
		rows: 4,
		z:    make([]float64, len(spend)*4),
	}
	for c, g := range spend {
		grid.z[0*len(spend)+c] = g.Mean
		grid.z[1*len(spend)+c] = revenue[c].Mean
		grid.z[2*len(spend)+c] = churn[c].Mean
		grid.z[3*len(spend)+c] = transactions[c].Mean
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(plotter.NewHeatMap(grid, palette.Heat(12, 1)))

	labels := make([]string, len(spend))
	for i, g := range spend {
		labels[i] = g.Key
	}
	p.NominalX(labels...)
	p.NominalY("avg_spend", "avg_revenue", "churn_rate", "avg_transactions")
	return p, nil
}

// normalizedCrossTabHeatMap draws feature x tier usage shares normalized
// per tier column.
func normalizedCrossTabHeatMap(title string, rows []dataset.Customer) (*plot.Plot, error) {
	features := keysOf(rows, dataset.ByFeature)
	tiers := keysOf(rows, dataset.ByTier)

	grid := &metricGrid{
		cols: len(tiers),
		rows: len(features),
		z:    make([]float64, len(tiers)*len(features)),
	}
	for c, tier := range tiers {
		colTotal := 0
		for _, row := range rows {
			if row.AccountTier == tier && row.ProductFeatureUsed != "" {
				colTotal++
			}
		}
		if colTotal == 0 {
			continue
		}
		for r, feature := range features {
			n := 0
			for _, row := range rows {
				if row.AccountTier == tier && row.ProductFeatureUsed == feature {
					n++
				}
			}
			grid.z[r*len(tiers)+c] = float64(n) / float64(colTotal)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(plotter.NewHeatMap(grid, palette.Heat(12, 1)))
	p.NominalX(tiers...)
	p.NominalY(features...)
	return p, nil
}

// groupedMetricBars draws avg spend, avg revenue, and scaled churn rate
// side by side per group.
func groupedMetricBars(title string, rows []dataset.Customer, key dataset.KeyFunc) (*plot.Plot, error) {
	spend := dataset.GroupAgg(rows, key, dataset.SpendVal)
	revenue := dataset.GroupAgg(rows, key, dataset.RevenueVal)
	churn := dataset.GroupAgg(rows, key, dataset.ChurnVal)

	p := plot.New()
	p.Title.Text = title

	width := vg.Points(15)
	series := []struct {
		name   string
		values plotter.Values
		offset vg.Length
	}{
		{"Avg Spend", means(spend), -width},
		{"Avg Revenue", means(revenue), 0},
		{"Churn Rate (x1000)", scaledMeans(churn, 1000), width},
	}

	for i, s := range series {
		bar, err := plotter.NewBarChart(s.values, width)
		if err != nil {
			return nil, err
		}
		bar.Color = plotutil.Color(i)
		bar.LineStyle.Width = 0
		bar.Offset = s.offset
		p.Add(bar)
		p.Legend.Add(s.name, bar)
	}

	labels := make([]string, len(spend))
	for i, g := range spend {
		labels[i] = g.Key
	}
	p.NominalX(labels...)
	return p, nil
}

// cardPerformancePanel draws mean spend vs mean revenue per card type with
// the card type annotated at each point.
func cardPerformancePanel(rows []dataset.Customer) (*plot.Plot, error) {
	byCard := dataset.GroupAgg(rows, func(c dataset.Customer) string { return c.CardType }, dataset.SpendVal)
	revenue := dataset.GroupAgg(rows, func(c dataset.Customer) string { return c.CardType }, dataset.RevenueVal)

	xys := make(plotter.XYs, len(byCard))
	labels := make([]string, len(byCard))
	for i, g := range byCard {
		xys[i].X = g.Mean
		xys[i].Y = revenue[i].Mean
		labels[i] = g.Key
	}

	p := plot.New()
	p.Title.Text = "Card Type Performance Matrix"
	p.X.Label.Text = "Average Monthly Spend"
	p.Y.Label.Text = "Average Monthly Revenue"

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Radius = vg.Points(5)
	p.Add(sc)

	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, err
	}
	p.Add(annotations)
	return p, nil
}

// addKeyedTrendLines adds one line per key value, aggregating val per month.
func addKeyedTrendLines(
	p *plot.Plot,
	periods []string,
	buckets map[string][]dataset.Customer,
	key dataset.KeyFunc,
	val dataset.ValFunc,
	agg func([]float64) float64,
) error {
	var all []dataset.Customer
	for _, rows := range buckets {
		all = append(all, rows...)
	}

	for i, k := range keysOf(all, key) {
		xys := make(plotter.XYs, len(periods))
		for j, period := range periods {
			var vals []float64
			for _, row := range buckets[period] {
				if key(row) == k {
					vals = append(vals, val(row))
				}
			}
			xys[j].X = float64(j)
			xys[j].Y = agg(vals)
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(k, line)
	}
	return nil
}

// metricGrid implements plotter.GridXYZ over a row-major matrix.
type metricGrid struct {
	cols, rows int
	z          []float64
}

func (g *metricGrid) Dims() (int, int)      { return g.cols, g.rows }
func (g *metricGrid) Z(c, r int) float64    { return g.z[r*g.cols+c] }
func (g *metricGrid) X(c int) float64       { return float64(c) }
func (g *metricGrid) Y(r int) float64       { return float64(r) }

func means(groups []dataset.Group) plotter.Values {
	vals := make(plotter.Values, len(groups))
	for i, g := range groups {
		vals[i] = g.Mean
	}
	return vals
}

func scaledMeans(groups []dataset.Group, scale float64) plotter.Values {
	vals := make(plotter.Values, len(groups))
	for i, g := range groups {
		vals[i] = g.Mean * scale
	}
	return vals
}

// monthlyBuckets splits rows into account-creation month buckets, keyed
// and ordered by "YYYY-MM" period. Rows without a creation date are dropped.
func monthlyBuckets(rows []dataset.Customer) ([]string, map[string][]dataset.Customer) {
	buckets := make(map[string][]dataset.Customer)
	for _, row := range rows {
		if row.AccountCreatedAt.IsZero() {
			continue
		}
		period := row.AccountCreatedAt.Format("2006-01")
		buckets[period] = append(buckets[period], row)
	}
	periods := make([]string, 0, len(buckets))
	for p := range buckets {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	return periods, buckets
}

// keysOf returns the sorted distinct non-empty keys in rows.
func keysOf(rows []dataset.Customer, key dataset.KeyFunc) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		if k := key(row); k != "" {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// seriesByKey splits a value column into one series per distinct key.
func seriesByKey(rows []dataset.Customer, key dataset.KeyFunc, val dataset.ValFunc) ([]string, [][]float64) {
	keys := keysOf(rows, key)
	series := make([][]float64, len(keys))
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	for _, row := range rows {
		if k := key(row); k != "" {
			i := index[k]
			series[i] = append(series[i], val(row))
		}
	}
	return keys, series
}
