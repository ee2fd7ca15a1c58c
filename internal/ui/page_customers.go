package ui

import (
	"fmt"

	"duck-commerce/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type customersPageData struct {
	Selection domain.Selection
	Bounds    domain.DateBounds
	Regions   []string
	Customers []domain.CustomerRevenue
	Limit     int
}

func customersPage(d customersPageData) Node {
	query := selectionQuery(d.Selection)
	rows := make([]Node, 0, len(d.Customers))
	for i, c := range d.Customers {
		rows = append(rows, Tr(
			data.Show(containsExpr(c.CustomerUniqueID+" "+c.City+" "+c.Region)),
			Td(Text(fmt.Sprintf("%d", i+1))),
			Td(Code(Text(c.CustomerUniqueID))),
			Td(Text(c.City)),
			Td(Text(c.Region)),
			Td(Class("num"), Text(formatCount(c.Orders))),
			Td(Class("num"), Text(formatMoney(c.Revenue))),
		))
	}

	table := Node(emptyStateCard("No customers with revenue in the selected range."))
	if len(rows) > 0 {
		table = Div(Class(cardClass("table-wrap")),
			Table(Class("data-table"),
				THead(Tr(Th(Text("#")), Th(Text("Customer")), Th(Text("City")), Th(Text("Region")), Th(Text("Orders")), Th(Text("Revenue")))),
				TBody(Group(rows)),
			),
		)
	}

	summary := fmt.Sprintf("%d customers", len(d.Customers))
	if len(d.Customers) >= d.Limit {
		summary = fmt.Sprintf("Top %d customers by revenue", d.Limit)
	}
	return appPage("Top Customers", "customers", query,
		filterForm("/customers", d.Selection, d.Bounds, d.Regions),
		Div(Class(cardClass("toolbar")),
			P(Class(mutedClass()), Text(summary)),
			A(Href("/customers.csv?"+query), Class("btn"), Text("Download CSV")),
		),
		quickFilterCard("Filter by customer, city or region"),
		table,
	)
}
