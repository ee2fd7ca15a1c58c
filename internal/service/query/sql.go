package query

import (
	"strconv"
	"strings"

	"duck-commerce/internal/domain"
)

// Limits applied by the aggregation queries.
const (
	RegionRevenueLimit = 27
	TopCustomersLimit  = 1000
)

// Raw columns are VARCHAR; every query casts at read time.
const purchaseDay = `CAST(TRY_CAST(o.order_purchase_timestamp AS TIMESTAMP) AS DATE)`

// baseCTE selects one row per order item in the date range, optionally
// restricted to the customer regions in f. Customers with a NULL state only
// count toward the unfiltered selection.
func baseCTE(r domain.DateRange, f domain.RegionFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`WITH base AS (
    SELECT
        o.order_id,
        ` + purchaseDay + ` AS day,
        c.customer_state,
        TRY_CAST(oi.price AS DOUBLE) + TRY_CAST(oi.freight_value AS DOUBLE) AS revenue,
        TRY_CAST(oi.price AS DOUBLE) AS item_value,
        TRY_CAST(oi.freight_value AS DOUBLE) AS freight_value
    FROM raw.orders o
    JOIN raw.order_items oi USING (order_id)
    JOIN raw.customers c USING (customer_id)
    WHERE ` + purchaseDay + ` BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)`)
	args := []any{r.StartString(), r.EndString()}
	if !f.All() {
		b.WriteString("\n      AND c.customer_state IN (" + placeholders(len(f)) + ")")
		for _, code := range f {
			args = append(args, code)
		}
	}
	b.WriteString("\n)\n")
	return b.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

const dateBoundsSQL = `
SELECT CAST(min(ts) AS DATE), CAST(max(ts) AS DATE)
FROM (SELECT TRY_CAST(order_purchase_timestamp AS TIMESTAMP) AS ts FROM raw.orders)`

const regionsSQL = `
SELECT DISTINCT customer_state
FROM raw.customers
WHERE customer_state IS NOT NULL
ORDER BY 1`

func overviewSQL(r domain.DateRange, f domain.RegionFilter) (string, []any) {
	cte, args := baseCTE(r, f)
	return cte + `SELECT
    COUNT(DISTINCT order_id),
    COUNT(*),
    SUM(revenue),
    AVG(revenue),
    SUM(item_value),
    SUM(freight_value)
FROM base`, args
}

func seriesSQL(r domain.DateRange, f domain.RegionFilter) (string, []any) {
	cte, args := baseCTE(r, f)
	return cte + `SELECT day, SUM(revenue), COUNT(DISTINCT order_id)
FROM base
GROUP BY 1
ORDER BY 1`, args
}

func regionRevenueSQL(r domain.DateRange, f domain.RegionFilter) (string, []any) {
	cte, args := baseCTE(r, f)
	return cte + `SELECT customer_state, SUM(revenue) AS revenue
FROM base
WHERE customer_state IS NOT NULL
GROUP BY 1
ORDER BY 2 DESC NULLS LAST, 1
LIMIT ` + strconv.Itoa(RegionRevenueLimit), args
}

// paymentMixSQL joins payments to orders only; customer regions are not
// reachable from it, so the region filter does not apply.
func paymentMixSQL(r domain.DateRange) (string, []any) {
	return `WITH orders_in_range AS (
    SELECT DISTINCT o.order_id
    FROM raw.orders o
    WHERE ` + purchaseDay + ` BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
)
SELECT COALESCE(p.payment_type, 'unknown') AS payment_type,
       SUM(TRY_CAST(p.payment_value AS DOUBLE)) AS value
FROM raw.order_payments p
JOIN orders_in_range o USING (order_id)
GROUP BY 1
ORDER BY 2 DESC NULLS LAST, 1`, []any{r.StartString(), r.EndString()}
}

func topCustomersSQL(r domain.DateRange, f domain.RegionFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`WITH orders AS (
    SELECT o.order_id, o.customer_id
    FROM raw.orders o
    WHERE ` + purchaseDay + ` BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
), revenue AS (
    SELECT order_id, SUM(TRY_CAST(price AS DOUBLE) + TRY_CAST(freight_value AS DOUBLE)) AS revenue
    FROM raw.order_items
    GROUP BY 1
)
SELECT c.customer_unique_id,
       c.customer_city,
       c.customer_state,
       COUNT(DISTINCT o.order_id) AS orders,
       SUM(r.revenue) AS revenue
FROM raw.customers c
JOIN orders o USING (customer_id)
JOIN revenue r USING (order_id)`)
	args := []any{r.StartString(), r.EndString()}
	if !f.All() {
		b.WriteString("\nWHERE c.customer_state IN (" + placeholders(len(f)) + ")")
		for _, code := range f {
			args = append(args, code)
		}
	}
	b.WriteString(`
GROUP BY 1, 2, 3
HAVING SUM(r.revenue) IS NOT NULL
ORDER BY revenue DESC, 1
LIMIT ` + strconv.Itoa(TopCustomersLimit))
	return b.String(), args
}
