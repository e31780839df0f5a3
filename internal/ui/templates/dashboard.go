package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.4/dist/chart.umd.min.js"
)

// Page carries the values the dashboard shell needs before the first SSE patch.
type Page struct {
	Title        string
	TopLocations int
	Start        string
	End          string
}

func DefaultPage() Page {
	return Page{Title: "E-Commerce Revenue Dashboard", TopLocations: 4}
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Page.Title}}</title>
<script type="module" src="{{.DatastarScript}}"></script>
<script src="{{.ChartScript}}"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #1f2933; }
header { background: #1f2933; color: #fff; padding: 1.5rem 2rem; }
header p { margin: .25rem 0 0; color: #cbd2d9; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
section { background: #fff; border-radius: 8px; padding: 1rem 1.5rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.range-form { display: flex; gap: 1rem; align-items: end; flex-wrap: wrap; }
.metric-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 1rem; }
.metric { display: flex; flex-direction: column; gap: .25rem; }
.metric-label { font-size: .8rem; color: #616e7c; }
.warning:not(:empty) { background: #fff3c4; border: 1px solid #f0b429; padding: .5rem 1rem; border-radius: 4px; }
.modern-table { border-collapse: collapse; width: 100%; margin-bottom: 1rem; }
.modern-table th, .modern-table td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e4e7eb; }
.category-badge { background: #e3f8ff; padding: .1rem .4rem; border-radius: 4px; }
.split { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 1rem; }
canvas { max-height: 320px; }
</style>
</head>
<body data-signals="{start: '{{.Page.Start}}', end: '{{.Page.End}}'}" data-on-load="@get('/sse/refresh')">
<header>
<h1>{{.Page.Title}}</h1>
<p>Orders, customers, delivery and satisfaction for the selected period</p>
</header>
<main>
<section>
<form class="range-form" data-on-submit="@get('/sse/refresh')">
<label>Start date <input type="date" data-bind-start></label>
<label>End date <input type="date" data-bind-end></label>
<button type="submit">Apply</button>
</form>
<div id="range-warning" class="warning"></div>
</section>

<section>
<h2>Summary</h2>
<div id="summary-content" class="metric-grid">Loading...</div>
</section>

<section>
<h2>Monthly Orders and Revenue</h2>
<div id="monthly-content"></div>
<div class="split">
<canvas id="monthly-orders-chart" data-effect="renderBar('monthly-orders-chart', $monthlyData, 'order_date', 'order_count', 'Orders')"></canvas>
<canvas id="monthly-revenue-chart" data-effect="renderBar('monthly-revenue-chart', $monthlyData, 'order_date', 'revenue', 'Revenue')"></canvas>
</div>
</section>

<section>
<h2>Top {{.Page.TopLocations}} Cities by Customer Count</h2>
<canvas id="cities-chart" data-effect="renderBar('cities-chart', $citiesData, 'location', 'customer_count', 'Customers')"></canvas>
<h2>Top {{.Page.TopLocations}} States</h2>
<canvas id="states-chart" data-effect="renderBar('states-chart', $statesData, 'location', 'customer_count', 'Customers')"></canvas>
<div id="locations-content"></div>
</section>

<section>
<h2>Review Comment Value Distribution</h2>
<div id="reviews-content"></div>
<canvas id="reviews-chart" data-effect="renderBar('reviews-chart', $reviewValuesData, 'value', 'count', 'Reviews')"></canvas>
</section>

<section>
<h2>Approval and Delivery Time Analysis</h2>
<div id="delivery-content"></div>
<div class="split">
<canvas id="approval-chart" data-effect="renderLine('approval-chart', $approvalTrend, 'Average approval time (hours)')"></canvas>
<canvas id="delivery-chart" data-effect="renderLine('delivery-chart', $deliveryTrend, 'Average delivery time (days)')"></canvas>
</div>
<h2>On-Time Delivery Analysis</h2>
<canvas id="on-time-chart" data-effect="renderPie('on-time-chart', $onTimeData)"></canvas>
</section>

<section>
<h2>Product Satisfaction Analysis</h2>
<canvas id="satisfaction-chart" data-effect="renderPie('satisfaction-chart', $satisfactionData)"></canvas>
<div id="categories-content"></div>
</section>
</main>
<script>
const charts = {};
function draw(id, config) {
  if (charts[id]) { charts[id].destroy(); }
  charts[id] = new Chart(document.getElementById(id), config);
}
function renderBar(id, rows, labelKey, valueKey, title) {
  if (!Array.isArray(rows)) return;
  draw(id, { type: 'bar', data: { labels: rows.map(r => r[labelKey]), datasets: [{ label: title, data: rows.map(r => r[valueKey]) }] } });
}
function renderLine(id, rows, title) {
  if (!Array.isArray(rows)) return;
  draw(id, { type: 'line', data: { labels: rows.map(r => r.month), datasets: [{ label: title, data: rows.map(r => r.mean) }] } });
}
function renderPie(id, rows) {
  if (!Array.isArray(rows)) return;
  draw(id, { type: 'pie', data: { labels: rows.map(r => r.value), datasets: [{ data: rows.map(r => r.count) }] } });
}
</script>
</body>
</html>
`))

// Dashboard renders the page shell. Every section is filled in by the
// /sse/refresh stream once the page loads.
func Dashboard(page Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return dashboardTemplate.Execute(w, struct {
			Page           Page
			DatastarScript string
			ChartScript    string
		}{
			Page:           page,
			DatastarScript: datastarScript,
			ChartScript:    chartScript,
		})
	})
}
