// Command hubstub serves an in-memory hub over HTTP. It exists for
// local development and integration testing of hub clients without
// touching a real hub.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"

	"github.com/wzshiming/hfapi/internal/hubtest"
	"github.com/wzshiming/hfapi/pkg/authenticate"
)

var (
	addr         = ":8080"
	httpToken    = ""
	httpUsername = "hf_user"
	lfsThreshold = int64(10 * 1024 * 1024)
)

func init() {
	flag.StringVar(&addr, "addr", ":8080", "HTTP server address")
	flag.StringVar(&httpToken, "http-token", "", "Token for HTTP authentication; empty disables auth")
	flag.StringVar(&httpUsername, "http-username", "hf_user", "Username reported for the configured token")
	flag.Int64Var(&lfsThreshold, "lfs-threshold", 10*1024*1024, "File size above which preupload selects LFS mode")

	flag.Parse()
}

// metricsHandler logs one line per request with status, size and
// duration.
func metricsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Printf("%s %s %d %dB %s", r.Method, r.URL.Path, m.Code, m.Written, m.Duration)
	})
}

func main() {
	hub := hubtest.NewHub(hubtest.WithLFSThreshold(lfsThreshold))

	var handler http.Handler = hub
	if httpToken != "" {
		hub.SetToken(httpToken, httpUsername)
		handler = authenticate.Authenticate(httpUsername, httpToken, handler)
		log.Printf("HTTP authentication enabled\n")
	}

	handler = handlers.CompressHandler(handler)
	handler = handlers.ProxyHeaders(handler)
	handler = metricsHandler(handler)

	log.Printf("Starting hub stub on %s\n", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}
}
