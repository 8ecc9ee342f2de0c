package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/moizuddin404/wsa-backend/colors"
	"github.com/moizuddin404/wsa-backend/server/metrics"
)

type ResponseWriterWithStatus struct {
	http.ResponseWriter
	Status int
}

func (r *ResponseWriterWithStatus) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		responseWriter := &ResponseWriterWithStatus{
			ResponseWriter: w,
			Status:         200,
		}

		defer func() {
			responseStatus := colors.Green(responseWriter.Status)
			if responseWriter.Status >= 400 {
				responseStatus = colors.Red(responseWriter.Status)
			}

			logg.Infof("%v %v %v %v",
				r.Method,
				r.RequestURI,
				responseStatus,
				colors.Yellow(fmt.Sprintf("[%v]", time.Since(start))))
		}()

		next.ServeHTTP(responseWriter, r)
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			w.Header().Add("Content-Type", "application/json")
		}

		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			responseWriter := &ResponseWriterWithStatus{
				ResponseWriter: w,
				Status:         200,
			}

			next.ServeHTTP(responseWriter, r)

			httpMetrics.Record(r.Method, metrics.RoutePath(r), responseWriter.Status, time.Since(start))
		})
	}
}
