package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MInventoryLowStock       MetricKey = "inventory_low_stock_total"
)

// MetricSpec describes how a metric key is exposed by a metrics backend.
type MetricSpec struct {
	Key    MetricKey
	Help   string
	Labels []string
}

// CounterSpecs lists every counter the service records.
var CounterSpecs = []MetricSpec{
	{Key: MUsecaseRequests, Help: "Total number of use case invocations.", Labels: []string{"use_case", "outcome"}},
	{Key: MHTTPRequests, Help: "Total number of HTTP requests.", Labels: []string{"method", "route", "status"}},
	{Key: MExternalRequests, Help: "Total number of calls to external peers.", Labels: []string{"peer", "endpoint", "outcome"}},
	{Key: MInventoryLowStock, Help: "Count of order lines that left a product at or below the low-stock threshold.", Labels: []string{"product_id"}},
}

// HistogramSpecs lists every histogram the service records.
var HistogramSpecs = []MetricSpec{
	{Key: MUsecaseDuration, Help: "Duration of use case execution in seconds.", Labels: []string{"use_case"}},
	{Key: MHTTPRequestDuration, Help: "Duration of HTTP requests in seconds.", Labels: []string{"method", "route", "status"}},
	{Key: MExternalRequestDuration, Help: "Duration of calls to external peers in seconds.", Labels: []string{"peer", "endpoint"}},
}
