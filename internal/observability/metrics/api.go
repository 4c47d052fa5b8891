package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/Nachiket-Roy/LMS-sub000/internal/observability/errors"
	"github.com/Nachiket-Roy/LMS-sub000/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// RequestMetric captures one backend call for metric emission.
type RequestMetric struct {
	Method   string
	Status   int
	Attempt  int
	Duration time.Duration
	Err      error
}

// EmitRequest emits standardised backend request metrics.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"method":       in.Method,
		"status_class": StatusClass(in.Status),
		"replay":       strconv.FormatBool(in.Attempt > 0),
	}
	if in.Err != nil {
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count("api.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("api.request.duration", in.Duration, CloneTags(tags))
	}
}

// EmitRefresh emits the outcome of a session refresh.
func EmitRefresh(sink statsd.Sink, duration time.Duration, err error) {
	if sink == nil {
		return
	}

	tags := map[string]string{"outcome": ResultSuccess}
	if err != nil {
		tags["outcome"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("api.refresh", 1, tags)
	sink.Timing("api.refresh.duration", duration, CloneTags(tags))
}

// StatusClass buckets an HTTP status as "2xx", "4xx" and so on; "none" when no response arrived.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
