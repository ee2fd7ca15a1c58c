package ui

import (
	"fmt"

	"duck-commerce/internal/domain"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type overviewPageData struct {
	Selection domain.Selection
	Bounds    domain.DateBounds
	Regions   []string
	Metrics   domain.OverviewMetrics
	Series    []domain.RevenuePoint
	Payments  domain.PaymentMix
	ByRegion  []domain.RegionRevenue
	CSRFField func() Node
}

func overviewPage(d overviewPageData) Node {
	m := d.Metrics
	kpis := Div(Class("grid kpis"),
		kpiCard("Revenue", formatMoney(m.Revenue)),
		kpiCard("Orders", formatCount(m.Orders)),
		kpiCard("Items", formatCount(m.Items)),
		kpiCard("Average order value", formatMoney(m.AOV())),
		kpiCard("Average item revenue", formatMoney(m.AvgItemRevenue)),
		kpiCard("Freight share", fmt.Sprintf("%.1f%%", m.FreightShare())),
	)

	return appPage("Overview", "overview", selectionQuery(d.Selection),
		filterForm("/", d.Selection, d.Bounds, d.Regions),
		kpis,
		Div(Class(cardClass()), H2(Text("Daily revenue")), seriesTable(d.Series)),
		Div(Class("grid two"),
			Div(Class(cardClass()), H2(Text("Payment mix")), paymentMixChart(d.Payments, d.Selection.Regions)),
			Div(Class(cardClass()), H2(Text("Revenue by region")), regionChart(d.ByRegion)),
		),
		Form(Method("post"), Action("/cache/invalidate"), Class(cardClass("toolbar")),
			d.CSRFField(),
			P(Class(mutedClass()), Text(fmt.Sprintf("Data range in store: %s to %s.",
				d.Bounds.Min.Format(domain.DateLayout), d.Bounds.Max.Format(domain.DateLayout)))),
			Button(Type("submit"), Class("btn"), Text("Refresh cached results")),
		),
	)
}

func seriesTable(points []domain.RevenuePoint) Node {
	if len(points) == 0 {
		return emptyStateCard("No orders in the selected range.")
	}
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Day.Format(domain.DateLayout) + " (" + formatCount(p.Orders) + ")"
		values[i] = p.Revenue
	}
	return Div(Class("scroll"), barRows(labels, values, formatMoney))
}

func paymentMixChart(mix domain.PaymentMix, regions domain.RegionFilter) Node {
	var note Node
	if !regions.All() && !mix.RegionFilterApplied {
		note = P(Class("hint"), Text("Payment mix covers all regions: payments are not linked to customer regions."))
	}
	if len(mix.Shares) == 0 {
		return Group([]Node{note, emptyStateCard("No payments in the selected range.")})
	}
	total := 0.0
	for _, s := range mix.Shares {
		total += s.Value
	}
	labels := make([]string, len(mix.Shares))
	values := make([]float64, len(mix.Shares))
	for i, s := range mix.Shares {
		share := 0.0
		if total > 0 {
			share = s.Value / total * 100
		}
		labels[i] = fmt.Sprintf("%s (%.1f%%)", s.PaymentType, share)
		values[i] = s.Value
	}
	return Group([]Node{note, barRows(labels, values, formatMoney)})
}

func regionChart(rows []domain.RegionRevenue) Node {
	if len(rows) == 0 {
		return emptyStateCard("No revenue in the selected range.")
	}
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Region
		values[i] = r.Revenue
	}
	return barRows(labels, values, formatMoney)
}
