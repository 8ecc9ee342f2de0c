package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/moizuddin404/wsa-backend/database"
	"github.com/moizuddin404/wsa-backend/server/auditor"
	"github.com/moizuddin404/wsa-backend/server/logger"
	"github.com/moizuddin404/wsa-backend/server/metrics"
	"github.com/moizuddin404/wsa-backend/server/models"
	"github.com/moizuddin404/wsa-backend/shared"
	"go.uber.org/zap"
)

const DEFAULT_AUDIT_INTERVAL = "30m"

var (
	logg     *zap.SugaredLogger
	validate *validator.Validate

	contactRepo          *models.ContactRepo
	notificationRecorder *models.NotificationRecorder
	videoRepo            *models.VideoRepo
)

type statusResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

// Start connects to the store, wires the repositories and routes, and blocks
// until the process receives an interrupt, then shuts down gracefully.
func Start(config *shared.ServerConfig, devMode bool) {
	logg = logger.NewLogger(devMode)
	validate = validator.New()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, database.Config{URI: config.Mongo.URI, Name: config.Mongo.Database})
	fatalOnError(err)
	fatalOnError(db.EnsureIndexes(ctx))

	contactRepo = models.NewContactRepo(db.Collection(database.TrustedContactsCollection))
	notificationRecorder = models.NewNotificationRecorder(contactRepo, db.Collection(database.NotificationsCollection))
	videoRepo = models.NewVideoRepo(db.Collection(database.VideosCollection))

	var contactAuditor *auditor.Auditor
	if config.Audit.Enabled == true {
		interval := config.Audit.Interval
		if interval == "" {
			interval = DEFAULT_AUDIT_INTERVAL
		}

		contactAuditor = auditor.NewAuditor(db.Collection(database.TrustedContactsCollection), logg)
		fatalOnError(contactAuditor.Start(interval))
		logg.Infof("contact audit scheduled every %v", interval)
	}

	httpMetrics := metrics.NewHTTPMetrics(config.App.Name)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", config.Listener.Port),
		Handler: newRouter(httpMetrics),
	}
	go serve(server)

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, syscall.SIGINT, syscall.SIGTERM)
	<-sigChannel

	cleanup(contactAuditor, db, server)
}

func newRouter(httpMetrics *metrics.HTTPMetrics) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, jsonContentTypeMiddleware, metricsMiddleware(httpMetrics))

	router.HandleFunc("/", rootHandler).Methods("GET")
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	contacts := router.PathPrefix("/contacts").Subrouter()
	contacts.HandleFunc("/user/{user_id}", findUserContacts).Methods("GET")
	contacts.HandleFunc("/notify", notifyContact).Methods("POST")
	contacts.HandleFunc("/notify-all/{user_id}", notifyAllContacts).Methods("POST")
	contacts.HandleFunc("/{id}/verify", verifyContact).Methods("POST")
	contacts.HandleFunc("/", createContact).Methods("POST")
	contacts.HandleFunc("/{id}", findContact).Methods("GET")
	contacts.HandleFunc("/{id}", updateContact).Methods("PUT")
	contacts.HandleFunc("/{id}", deleteContact).Methods("DELETE")

	videos := router.PathPrefix("/api/videos").Subrouter()
	videos.HandleFunc("/", listVideos).Methods("GET")
	videos.HandleFunc("/", createVideo).Methods("POST")
	videos.HandleFunc("/{id}/view", incrementVideoViews).Methods("POST")
	videos.HandleFunc("/{id}/like", likeVideo).Methods("POST")
	videos.HandleFunc("/{id}", findVideo).Methods("GET")
	videos.HandleFunc("/{id}", updateVideo).Methods("PUT")
	videos.HandleFunc("/{id}", deleteVideo).Methods("DELETE")

	return router
}

func rootHandler(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, statusResponse{Message: "Women Safety App API", Status: "running"}, http.StatusOK)
}

func healthHandler(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, statusResponse{Status: "healthy"}, http.StatusOK)
}
