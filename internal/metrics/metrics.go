// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics provides optional Prometheus instrumentation for a
// hurl run (spec §2 domain stack expansion). It has no home in the
// teacher repo; it exists purely to give prometheus/client_golang (a
// dependency present in the retrieval pack) a concrete use, and is
// never required for a run to produce a correct result.RunResult.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hurl_entries_total",
		Help: "Number of entries executed, by outcome.",
	}, []string{"status"})

	RequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hurl_request_duration_seconds",
		Help:    "HTTP request duration as observed by the runner.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(EntriesTotal, RequestDuration)
}

// Serve starts a background HTTP server exposing /metrics on addr and
// returns a func to shut it down. The counters are registered at package
// init and updated by the runner for every entry whether or not Serve is
// called; Serve only exposes them.
func Serve(addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
