package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/moizuddin404/wsa-backend/server/models"
	"github.com/pkg/errors"
)

// DEFAULT_ALERT_MESSAGE is used when a notify request carries no message.
const DEFAULT_ALERT_MESSAGE = "Emergency! I need help. Please check on me."

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

var (
	contactUpdatableFields = map[string]bool{"name": true, "phone": true, "relationship": true}

	contactFieldRules = map[string]string{
		"name":         "min=1,max=100",
		"phone":        "min=10,max=20",
		"relationship": "min=1,max=50",
	}
)

type createContactParams struct {
	UserID       string `json:"user_id" validate:"required"`
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Phone        string `json:"phone" validate:"required,min=10,max=20"`
	Relationship string `json:"relationship" validate:"required,min=1,max=50"`
}

type notifyContactParams struct {
	ContactID    string   `json:"contact_id" validate:"required"`
	Message      string   `json:"message"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LocationName *string  `json:"location_name"`
}

type notifyAllParams struct {
	Message      string   `json:"message"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LocationName *string  `json:"location_name"`
}

type contactSnapshot struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type notifyResponse struct {
	Message      string    `json:"message"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	SentAt       time.Time `json:"sent_at"`
}

type notifyAllResponse struct {
	Message  string            `json:"message"`
	Contacts []contactSnapshot `json:"contacts"`
	SentAt   time.Time         `json:"sent_at"`
}

type verifyResponse struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

func findUserContacts(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	contacts, err := contactRepo.ListByUser(r.Context(), vars["user_id"])
	if err != nil {
		writeContactError(rw, err)
		return
	}

	writeJSON(rw, contacts, http.StatusOK)
}

func findContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	contact, err := contactRepo.Find(r.Context(), vars["id"])
	if err != nil {
		writeContactError(rw, err)
		return
	}

	writeJSON(rw, contact, http.StatusOK)
}

func createContact(rw http.ResponseWriter, r *http.Request) {
	params := createContactParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if errs := validate.Struct(params); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	contact, err := contactRepo.Create(r.Context(), params.UserID, params.Name, params.Phone, params.Relationship)
	if err != nil {
		writeContactError(rw, err)
		return
	}

	writeJSON(rw, contact, http.StatusCreated)
}

func updateContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	data := make(map[string]interface{})
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, contactUpdatableFields)

	var errs []string
	for field, rules := range contactFieldRules {
		value, ok := data[field]
		if !ok {
			continue
		}

		str, isString := value.(string)
		if !isString {
			errs = append(errs, field+" must be a string")
			continue
		}

		if err := validate.Var(str, rules); err != nil {
			errs = append(errs, field+" failed validation: "+rules)
		}
	}

	if len(errs) > 0 {
		writeResponse(rw, ResponsePayload{Errors: errs}, http.StatusBadRequest)
		return
	}

	contact, err := contactRepo.Update(r.Context(), vars["id"], data)
	if err != nil {
		writeContactError(rw, err)
		return
	}

	writeJSON(rw, contact, http.StatusOK)
}

func deleteContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := contactRepo.Delete(r.Context(), vars["id"]); err != nil {
		writeContactError(rw, err)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func verifyContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := contactRepo.Verify(r.Context(), vars["id"]); err != nil {
		writeContactError(rw, err)
		return
	}

	writeJSON(rw, verifyResponse{Message: "Test alert sent successfully", Verified: true}, http.StatusOK)
}

func notifyContact(rw http.ResponseWriter, r *http.Request) {
	params := notifyContactParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if errs := validate.Struct(params); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	record, err := notificationRecorder.NotifyOne(
		r.Context(),
		params.ContactID,
		messageOrDefault(params.Message),
		models.Location{Latitude: params.Latitude, Longitude: params.Longitude, Name: params.LocationName},
	)
	if err != nil {
		writeContactError(rw, err)
		return
	}

	writeJSON(rw, notifyResponse{
		Message:      "Emergency alert sent successfully",
		ContactName:  record.ContactName,
		ContactPhone: record.ContactPhone,
		SentAt:       record.SentAt,
	}, http.StatusOK)
}

func notifyAllContacts(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	params := notifyAllParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	batch, err := notificationRecorder.NotifyAll(
		r.Context(),
		vars["user_id"],
		messageOrDefault(params.Message),
		models.Location{Latitude: params.Latitude, Longitude: params.Longitude, Name: params.LocationName},
	)
	if errors.Is(err, models.ErrNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"No trusted contacts found for this user"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeContactError(rw, err)
		return
	}

	snapshots := []contactSnapshot{}
	for _, record := range batch.Records {
		snapshots = append(snapshots, contactSnapshot{Name: record.ContactName, Phone: record.ContactPhone})
	}

	writeJSON(rw, notifyAllResponse{
		Message:  fmt.Sprintf("Emergency alert sent to %v contact(s)", len(snapshots)),
		Contacts: snapshots,
		SentAt:   batch.SentAt,
	}, http.StatusOK)
}

func messageOrDefault(message string) string {
	if strings.TrimSpace(message) == "" {
		return DEFAULT_ALERT_MESSAGE
	}

	return message
}
