package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched tracks product and listing pages fetched successfully.
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caviarwatch_pages_fetched_total",
		Help: "The total number of pages fetched successfully.",
	})
	// FetchErrors tracks requests that failed after retries.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caviarwatch_fetch_errors_total",
		Help: "The total number of fetches that failed after retries.",
	})
	// RobotsDenied tracks URLs skipped because robots.txt disallowed them.
	RobotsDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caviarwatch_robots_denied_total",
		Help: "The total number of URLs skipped per robots.txt.",
	})
	// HeadlessRenders tracks pages escalated to the headless renderer.
	HeadlessRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caviarwatch_headless_renders_total",
		Help: "The total number of pages rendered with headless Chrome.",
	})
)
