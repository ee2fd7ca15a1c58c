package ui

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"duck-commerce/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

type navItem struct {
	Label string
	Href  string
	Key   string
}

var navItems = []navItem{
	{Label: "Overview", Href: "/", Key: "overview"},
	{Label: "Customers", Href: "/customers", Key: "customers"},
	{Label: "Ingestion runs", Href: "/runs", Key: "runs"},
}

func pageHead(title string, extra ...Node) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | Olist Dashboard")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("stylesheet"), Href("/static/app.css")),
		Group(extra),
	)
}

// appPage wraps body in the shared shell. nav links keep the current query
// string so the filter survives page switches.
func appPage(title, active, query string, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link"
		if item.Key == active {
			className += " active"
		}
		href := item.Href
		if query != "" && item.Key != "runs" {
			href += "?" + query
		}
		nav = append(nav, A(Href(href), Class(className), Text(item.Label)))
	}

	return HTML(
		Lang("en"),
		pageHead(title, Script(Type("module"), Src(datastarSrc))),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("Olist Commerce")),
						P(Class(mutedClass()), Text("Revenue and customer analytics")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(Class("topbar"), H1(Class("page-title"), Text(title))),
					Div(Class("content"), Group(body)),
				),
			),
		),
	)
}

func errorPage(title, message, hint string) Node {
	return HTML(
		Lang("en"),
		pageHead(title),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				If(hint != "", P(Class("hint"), Text(hint))),
				P(A(Href("/"), Text("Back to overview"))),
			),
		),
	)
}

// filterForm is a plain GET form so filters live in the URL.
func filterForm(action string, sel domain.Selection, bounds domain.DateBounds, regions []string) Node {
	selected := make(map[string]bool, len(sel.Regions))
	for _, r := range sel.Regions {
		selected[r] = true
	}
	opts := make([]Node, 0, len(regions))
	for _, r := range regions {
		opts = append(opts, Option(Value(r), Text(r), If(selected[r], Selected())))
	}
	return Form(
		Method("get"),
		Action(action),
		Class(cardClass("toolbar filter-form")),
		Label(Text("From"), Input(Type("date"), Name("start"), Value(sel.Range.StartString()),
			Min(bounds.Min.Format(domain.DateLayout)), Max(bounds.Max.Format(domain.DateLayout)))),
		Label(Text("To"), Input(Type("date"), Name("end"), Value(sel.Range.EndString()),
			Min(bounds.Min.Format(domain.DateLayout)), Max(bounds.Max.Format(domain.DateLayout)))),
		Label(Text("Regions"), Select(Name("region"), Multiple(), Attr("size", "6"), Group(opts))),
		Button(Type("submit"), Class("btn btn-primary"), Text("Apply")),
		A(Href(action), Class("btn"), Text("Reset")),
		P(Class(mutedClass()), Text(regionSummary(sel.Regions))),
	)
}

func regionSummary(f domain.RegionFilter) string {
	if f.All() {
		return "All regions"
	}
	return "Regions: " + strings.Join(f, ", ")
}

// selectionQuery encodes sel the way filterForm submits it.
func selectionQuery(sel domain.Selection) string {
	v := url.Values{}
	v.Set("start", sel.Range.StartString())
	v.Set("end", sel.Range.EndString())
	for _, r := range sel.Regions {
		v.Add("region", r)
	}
	return v.Encode()
}

func kpiCard(label, value string) Node {
	return Div(Class(cardClass("kpi")), P(Class(mutedClass()), Text(label)), Strong(Class("kpi-value"), Text(value)))
}

// barRows renders a horizontal bar per label, scaled to the largest value.
func barRows(labels []string, values []float64, format func(float64) string) Node {
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	rows := make([]Node, 0, len(labels))
	for i, l := range labels {
		width := 0.0
		if peak > 0 {
			width = values[i] / peak * 100
		}
		rows = append(rows, Div(Class("bar-row"),
			Span(Class("bar-label"), Text(l)),
			Span(Class("bar-track"), Span(Class("bar-fill"), Style(fmt.Sprintf("width: %.1f%%", width)))),
			Span(Class("bar-value"), Text(format(values[i]))),
		))
	}
	return Div(Class("bars"), Group(rows))
}

func quickFilterCard(placeholder string) Node {
	return Div(
		Class(cardClass("toolbar")),
		data.Signals(map[string]any{"q": ""}),
		Label(Class("sr-only"), Text("Quick filter")),
		Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
	)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func emptyStateCard(message string) Node {
	return Div(Class(cardClass("blankslate")), P(Class(mutedClass()), Text(message)))
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}

func cardClass(extra ...string) string {
	return strings.Join(append([]string{"card"}, extra...), " ")
}

func mutedClass() string {
	return "muted"
}

func formatMoney(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	out := "R$ " + groupThousands(intPart) + "." + frac
	if v < 0 {
		out = "-" + out
	}
	return out
}

func formatCount(n int64) string {
	return groupThousands(strconv.FormatInt(n, 10))
}

// groupThousands inserts commas into a string of digits.
func groupThousands(digits string) string {
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format("2006-01-02 15:04:05")
}
