package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()

	handlers := NewSSEHandlers(analytics, logger, DefaultDisplay())

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestLocationsTemplate(t *testing.T) {
	tables := []locationTable{
		{Title: "City", Rows: []models.LocationCount{
			{Location: "sao paulo", CustomerCount: 12},
			{Location: "<script>", CustomerCount: 1},
		}},
		{Title: "State"},
	}

	html, err := render(locationsTemplate, tables)
	if err != nil {
		t.Fatalf("render() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="locations-content">`,
		`<table class="modern-table">`,
		"<th>City</th>",
		"<th>State</th>",
		"sao paulo",
		"12",
		"&lt;script&gt;",
		"No data",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSummaryTemplate(t *testing.T) {
	tables := createTestAnalytics().Recompute(t.Context(), models.DateRange{})
	html, err := render(summaryTemplate, buildSummary(tables, Display{Currency: "USD", Locale: "en-US"}))
	if err != nil {
		t.Fatalf("render() failed: %v", err)
	}

	for _, content := range []string{`id="summary-content"`, "Total Orders", "Satisfied Customers", "n/a"} {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func sseRequest(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}
	return w
}

func TestSSEHandlers_Sections(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger(), DefaultDisplay())

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		target   string
		contains []string
	}{
		{"summary", handlers.HandleSummary, "/sse/summary", []string{"summary-content", "Total Orders"}},
		{"monthly", handlers.HandleMonthly, "/sse/monthly", []string{"monthlyData", "2018-January", "monthly-content"}},
		{"locations", handlers.HandleLocations, "/sse/locations", []string{"locations-content", "citiesData", "statesData", "sao paulo"}},
		{"reviews", handlers.HandleReviews, "/sse/reviews", []string{"reviewValuesData", "good"}},
		{"delivery", handlers.HandleDelivery, "/sse/delivery", []string{"approvalTrend", "deliveryTrend", "onTimeData", "2018-01"}},
		{"satisfaction", handlers.HandleSatisfaction, "/sse/satisfaction", []string{"categories-content", "satisfactionData", "bed_bath_table", "toys"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := sseRequest(t, tt.handler, tt.target).Body.String()
			for _, content := range tt.contains {
				if !strings.Contains(body, content) {
					t.Errorf("response should contain %q", content)
				}
			}
		})
	}
}

func TestSSEHandlers_HandleRefresh(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger(), DefaultDisplay())

	body := sseRequest(t, handlers.HandleRefresh, "/sse/refresh").Body.String()

	for _, content := range []string{
		"datastar-patch-elements",
		"datastar-patch-signals",
		"summary-content",
		"locations-content",
		"categories-content",
		"range-warning",
		`"start":"2018-01-10"`,
		`"end":"2018-02-20"`,
		"topDissatisfiedData",
	} {
		if !strings.Contains(body, content) {
			t.Errorf("response should contain %q", content)
		}
	}
}

func TestSSEHandlers_RangeFromQuery(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger(), DefaultDisplay())

	body := sseRequest(t, handlers.HandleMonthly, "/sse/monthly?start=2018-02-01&end=2018-02-28").Body.String()

	if strings.Contains(body, "2018-January") {
		t.Error("January should be filtered out")
	}
	if !strings.Contains(body, "2018-February") {
		t.Error("February should be present")
	}
}

func TestSSEHandlers_InvalidRangeWarning(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger(), DefaultDisplay())

	body := sseRequest(t, handlers.HandleSummary, "/sse/summary?start=2018-02-01&end=2018-01-01").Body.String()

	if !strings.Contains(body, "Invalid date range") {
		t.Error("response should carry the range warning")
	}
	if !strings.Contains(body, "summary-content") {
		t.Error("summary should still be rendered for the full dataset")
	}
}

func TestSSEHandlers_EmptyDataset(t *testing.T) {
	analytics := services.NewAnalytics(services.WithLogger(testLogger()))
	handlers := NewSSEHandlers(analytics, testLogger(), DefaultDisplay())

	body := sseRequest(t, handlers.HandleRefresh, "/sse/refresh").Body.String()
	if !strings.Contains(body, "summary-content") {
		t.Error("an empty dataset should still render the summary")
	}
}

func TestSSEHandlers_RangeOutsideDataset(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger(), DefaultDisplay())

	body := sseRequest(t, handlers.HandleRefresh, "/sse/refresh?start=2030-01-01&end=2030-02-01").Body.String()

	for _, content := range []string{
		"outside the dataset",
		`"start":"2018-01-10"`,
		`"end":"2018-02-20"`,
	} {
		if !strings.Contains(body, content) {
			t.Errorf("response should contain %q", content)
		}
	}
	if strings.Contains(body, "2030-01-01\"") {
		t.Error("the out-of-bounds start must not be echoed back as a signal")
	}
}
