package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`
<div id="summary-content" class="metric-grid">
<div class="metric"><span class="metric-label">Total Orders</span><strong>{{.TotalOrdersText}}</strong></div>
<div class="metric"><span class="metric-label">Total Revenue</span><strong>{{.TotalRevenueText}}</strong></div>
<div class="metric"><span class="metric-label">Top City</span><strong>{{with .TopCity}}{{.Location}}{{else}}n/a{{end}}</strong></div>
<div class="metric"><span class="metric-label">Top State</span><strong>{{with .TopState}}{{.Location}}{{else}}n/a{{end}}</strong></div>
<div class="metric"><span class="metric-label">Most Frequent Review Comment Value</span><strong>{{with .TopReviewValue}}{{.Value}}{{else}}n/a{{end}}</strong></div>
<div class="metric"><span class="metric-label">Average Approval Time</span><strong>{{.AvgApprovalText}}</strong></div>
<div class="metric"><span class="metric-label">Average Delivery Time</span><strong>{{.AvgDeliveryText}}</strong></div>
{{range .Satisfaction}}<div class="metric"><span class="metric-label">{{.Value}} Customers</span><strong>{{.Count}}</strong></div>
{{end}}<div class="metric"><span class="metric-label">Most Satisfied Product</span><strong>{{with .MostSatisfied}}{{.Category}} ({{.Count}}){{else}}n/a{{end}}</strong></div>
<div class="metric"><span class="metric-label">Most Dissatisfied Product</span><strong>{{with .MostDissatisfied}}{{.Category}} ({{.Count}}){{else}}n/a{{end}}</strong></div>
</div>`))

var locationsTemplate = template.Must(template.New("locations").Parse(`
<div id="locations-content">
{{range .}}<table class="modern-table">
<thead><tr><th>{{.Title}}</th><th>Customers</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Location}}</td><td>{{.CustomerCount}}</td></tr>
{{else}}<tr><td colspan="2">No data</td></tr>
{{end}}</tbody>
</table>
{{end}}</div>`))

var categoriesTemplate = template.Must(template.New("categories").Parse(`
<div id="categories-content">
{{range .}}<table class="modern-table">
<thead><tr><th>{{.Title}}</th><th>Reviews</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td><span class="category-badge">{{.Category}}</span></td><td>{{.Count}}</td></tr>
{{else}}<tr><td colspan="2">No data</td></tr>
{{end}}</tbody>
</table>
{{end}}</div>`))

var warningTemplate = template.Must(template.New("warning").Parse(
	`<div id="range-warning" class="warning">{{.}}</div>`))

type locationTable struct {
	Title string
	Rows  []models.LocationCount
}

type categoryTable struct {
	Title string
	Rows  []models.CategoryCount
}

// rangeSignals are the date picker signals sent by the page.
type rangeSignals struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	display   Display
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger, display Display) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
		display:   display,
	}
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

// tables reads the range signals, falling back to plain query parameters,
// and recomputes the dashboard. The warning is empty for a usable range.
func (h *SSEHandlers) tables(r *http.Request) (services.DerivedTables, string) {
	var signals rangeSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read signals", "error", err)
	}
	if signals.Start == "" && signals.End == "" {
		signals.Start, signals.End = rangeParams(r)
	}

	dr, warning := h.analytics.ResolveRange(signals.Start, signals.End)
	return h.analytics.Recompute(r.Context(), dr), warning
}

func (h *SSEHandlers) patchWarning(sse *datastar.ServerSentEventGenerator, warning string) {
	html, err := render(warningTemplate, warning)
	if err != nil {
		h.logger.Error("render warning", "error", err)
		return
	}
	sse.PatchElements(html)
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) bool {
	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return false
	}
	sse.PatchSignals(jsonData)
	return true
}

func (h *SSEHandlers) patchTemplate(sse *datastar.ServerSentEventGenerator, name string, tmpl *template.Template, data any) bool {
	html, err := render(tmpl, data)
	if err != nil {
		h.logger.Error("render "+name, "error", err)
		return false
	}
	sse.PatchElements(html)
	return true
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) locationTables(t services.DerivedTables) []locationTable {
	return []locationTable{
		{Title: "City", Rows: t.TopCities},
		{Title: "State", Rows: t.TopStates},
	}
}

func (h *SSEHandlers) categoryTables(t services.DerivedTables) []categoryTable {
	return []categoryTable{
		{Title: "Most Satisfied Categories", Rows: t.TopSatisfied},
		{Title: "Most Dissatisfied Categories", Rows: t.TopDissatisfied},
	}
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	t, warning := h.tables(r)
	sse := datastar.NewSSE(w, r)

	h.patchWarning(sse, warning)
	h.patchTemplate(sse, "summary", summaryTemplate, buildSummary(t, h.display))
	flush(w)
}

func (h *SSEHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	t, warning := h.tables(r)
	sse := datastar.NewSSE(w, r)

	h.patchWarning(sse, warning)
	if h.patchSignals(sse, map[string]any{"monthlyData": t.Monthly}) {
		sse.PatchElements(`<div id="monthly-content">Monthly orders and revenue loaded</div>`)
	}
	flush(w)
}

func (h *SSEHandlers) HandleLocations(w http.ResponseWriter, r *http.Request) {
	t, warning := h.tables(r)
	sse := datastar.NewSSE(w, r)

	h.patchWarning(sse, warning)
	h.patchTemplate(sse, "locations", locationsTemplate, h.locationTables(t))
	h.patchSignals(sse, map[string]any{
		"citiesData": t.TopCities,
		"statesData": t.TopStates,
	})
	flush(w)
}

func (h *SSEHandlers) HandleReviews(w http.ResponseWriter, r *http.Request) {
	t, warning := h.tables(r)
	sse := datastar.NewSSE(w, r)

	h.patchWarning(sse, warning)
	if h.patchSignals(sse, map[string]any{"reviewValuesData": t.ReviewValues.Counts}) {
		sse.PatchElements(`<div id="reviews-content">Review comment values loaded</div>`)
	}
	flush(w)
}

func (h *SSEHandlers) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	t, warning := h.tables(r)
	sse := datastar.NewSSE(w, r)

	h.patchWarning(sse, warning)
	if h.patchSignals(sse, map[string]any{
		"approvalTrend": t.ApprovalTrend,
		"deliveryTrend": t.DeliveryTrend,
		"onTimeData":    t.OnTime,
	}) {
		sse.PatchElements(`<div id="delivery-content">Approval and delivery times loaded</div>`)
	}
	flush(w)
}

func (h *SSEHandlers) HandleSatisfaction(w http.ResponseWriter, r *http.Request) {
	t, warning := h.tables(r)
	sse := datastar.NewSSE(w, r)

	h.patchWarning(sse, warning)
	h.patchTemplate(sse, "categories", categoriesTemplate, h.categoryTables(t))
	h.patchSignals(sse, map[string]any{
		"satisfactionData":    t.Satisfaction,
		"topSatisfiedData":    t.TopSatisfied,
		"topDissatisfiedData": t.TopDissatisfied,
	})
	flush(w)
}

// HandleRefresh patches every section for the current range in one stream.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	t, warning := h.tables(r)
	sse := datastar.NewSSE(w, r)

	h.patchWarning(sse, warning)
	if !h.patchTemplate(sse, "summary", summaryTemplate, buildSummary(t, h.display)) {
		return
	}
	h.patchTemplate(sse, "locations", locationsTemplate, h.locationTables(t))
	h.patchTemplate(sse, "categories", categoriesTemplate, h.categoryTables(t))

	h.patchSignals(sse, map[string]any{
		"start":               t.Range.Start.Format(models.DayLayout),
		"end":                 t.Range.End.Format(models.DayLayout),
		"monthlyData":         t.Monthly,
		"citiesData":          t.TopCities,
		"statesData":          t.TopStates,
		"reviewValuesData":    t.ReviewValues.Counts,
		"approvalTrend":       t.ApprovalTrend,
		"deliveryTrend":       t.DeliveryTrend,
		"onTimeData":          t.OnTime,
		"satisfactionData":    t.Satisfaction,
		"topSatisfiedData":    t.TopSatisfied,
		"topDissatisfiedData": t.TopDissatisfied,
	})
	flush(w)
}
