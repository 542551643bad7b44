package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler returns the Prometheus scrape handler. It serves all
// promauto-registered metrics plus the pipeline collector.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}
