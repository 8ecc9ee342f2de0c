package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/moizuddin404/wsa-backend/database"
	"github.com/moizuddin404/wsa-backend/server/auditor"
	"github.com/moizuddin404/wsa-backend/server/models"
	"github.com/pkg/errors"
)

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(payLoad.Errors)
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

func writeJSON(rw http.ResponseWriter, data interface{}, statusCode int) {
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(data)
}

func writeContactError(rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidID):
		writeResponse(rw, ResponsePayload{Errors: []string{"Invalid contact ID format"}}, http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		writeResponse(rw, ResponsePayload{Errors: []string{"Contact not found"}}, http.StatusNotFound)
	case errors.Is(err, models.ErrContactLimit):
		writeResponse(rw, ResponsePayload{Errors: []string{"Maximum of 5 trusted contacts allowed"}}, http.StatusBadRequest)
	case errors.Is(err, models.ErrDuplicatePhone):
		writeResponse(rw, ResponsePayload{Errors: []string{"Contact with this phone number already exists"}}, http.StatusBadRequest)
	case errors.Is(err, models.ErrNoFields):
		writeResponse(rw, ResponsePayload{Errors: []string{"No fields to update"}}, http.StatusBadRequest)
	default:
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
	}
}

func writeVideoError(rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidID):
		writeResponse(rw, ResponsePayload{Errors: []string{"Invalid video ID"}}, http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		writeResponse(rw, ResponsePayload{Errors: []string{"Video not found"}}, http.StatusNotFound)
	default:
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
	}
}

func removeUnknownFields(args map[string]interface{}, validFields map[string]bool) {
	for key := range args {
		if !validFields[key] {
			delete(args, key)
		}
	}
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("wsa-backend server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(contactAuditor *auditor.Auditor, db *database.DB, server *http.Server) {
	if contactAuditor != nil {
		contactAuditor.Stop()
	}

	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("wsa-backend server shutdown failed:%+s", err)
	}

	if err := db.Disconnect(ctxShutDown); err != nil {
		logg.Errorf("closing mongo connection: %v", err)
	}

	logg.Infof("wsa-backend server stopped properly")
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
