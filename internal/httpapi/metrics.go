package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// metricsStore holds a few counters, rendered in the Prometheus text
// format by /metrics.
type metricsStore struct {
	mu sync.Mutex

	httpRequestsTotal uint64
	httpByPattern     map[reqKey]uint64

	appErrors map[errKey]uint64
	unhandled map[string]uint64
}

type reqKey struct {
	Pattern string
	Status  int
}

type errKey struct {
	Stage string
	Code  string
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		httpByPattern: make(map[reqKey]uint64),
		appErrors:     make(map[errKey]uint64),
		unhandled:     make(map[string]uint64),
	}
}

var metrics = newMetricsStore()

func metricsIncRequest(pattern string, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	if pattern == "" {
		pattern = "(unknown)"
	}

	metrics.mu.Lock()
	metrics.httpRequestsTotal++
	metrics.httpByPattern[reqKey{Pattern: pattern, Status: status}]++
	metrics.mu.Unlock()
}

func metricsIncAppError(stage, code string) {
	stage = strings.TrimSpace(stage)
	code = strings.TrimSpace(code)
	if stage == "" {
		stage = "(unknown)"
	}
	if code == "" {
		code = "(unknown)"
	}

	metrics.mu.Lock()
	metrics.appErrors[errKey{Stage: stage, Code: code}]++
	metrics.mu.Unlock()
}

func metricsIncUnhandled(kind string) {
	if kind == "" {
		kind = "(unknown)"
	}
	metrics.mu.Lock()
	metrics.unhandled[kind]++
	metrics.mu.Unlock()
}

type reqMetric struct {
	reqKey
	N uint64
}

type errMetric struct {
	errKey
	N uint64
}

type kindMetric struct {
	Kind string
	N    uint64
}

func metricsSnapshot() (httpTotal uint64, reqs []reqMetric, errs []errMetric, unhandled []kindMetric) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	httpTotal = metrics.httpRequestsTotal

	reqs = make([]reqMetric, 0, len(metrics.httpByPattern))
	for k, n := range metrics.httpByPattern {
		reqs = append(reqs, reqMetric{reqKey: k, N: n})
	}
	errs = make([]errMetric, 0, len(metrics.appErrors))
	for k, n := range metrics.appErrors {
		errs = append(errs, errMetric{errKey: k, N: n})
	}

	unhandled = make([]kindMetric, 0, len(metrics.unhandled))
	for k, n := range metrics.unhandled {
		unhandled = append(unhandled, kindMetric{Kind: k, N: n})
	}

	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Pattern != reqs[j].Pattern {
			return reqs[i].Pattern < reqs[j].Pattern
		}
		return reqs[i].Status < reqs[j].Status
	})
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Stage != errs[j].Stage {
			return errs[i].Stage < errs[j].Stage
		}
		return errs[i].Code < errs[j].Code
	})
	sort.Slice(unhandled, func(i, j int) bool { return unhandled[i].Kind < unhandled[j].Kind })
	return httpTotal, reqs, errs, unhandled
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	total, reqs, errs, unhandled := metricsSnapshot()

	var b strings.Builder
	writeFamily(&b, "dashpanel_http_requests_total", "Total HTTP requests.")
	writeSample(&b, "dashpanel_http_requests_total", nil, total)

	writeFamily(&b, "dashpanel_http_requests_by_pattern_total", "HTTP requests by route template and status.")
	for _, m := range reqs {
		writeSample(&b, "dashpanel_http_requests_by_pattern_total",
			[][2]string{{"pattern", m.Pattern}, {"status", strconv.Itoa(m.Status)}}, m.N)
	}

	writeFamily(&b, "dashpanel_app_errors_total", "Application errors returned to clients.")
	for _, m := range errs {
		writeSample(&b, "dashpanel_app_errors_total",
			[][2]string{{"stage", m.Stage}, {"code", m.Code}}, m.N)
	}

	writeFamily(&b, "dashpanel_unhandled_errors_total", "Errors rendered as error pages, by kind.")
	for _, m := range unhandled {
		writeSample(&b, "dashpanel_unhandled_errors_total", [][2]string{{"kind", m.Kind}}, m.N)
	}

	_, _ = fmt.Fprint(w, b.String())
}

func writeFamily(b *strings.Builder, name, help string) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s counter\n", name, help, name)
}

// writeSample writes one counter line; labels keep their given order.
func writeSample(b *strings.Builder, name string, labels [][2]string, n uint64) {
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%s=\"%s\"", l[0], promLabelEscape(l[1]))
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(n, 10))
	b.WriteByte('\n')
}

func promLabelEscape(s string) string {
	// Prometheus label value escaping: backslash and double quote.
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
