package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/moizuddin404/wsa-backend/server/models"
)

var videoUpdatableFields = map[string]bool{
	"title":         true,
	"description":   true,
	"video_url":     true,
	"thumbnail_url": true,
	"duration":      true,
	"category":      true,
	"difficulty":    true,
}

type messageResponse struct {
	Message string `json:"message"`
}

func listVideos(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := models.VideoFilter{
		Category:   query.Get("category"),
		Difficulty: query.Get("difficulty"),
	}
	if skip, err := strconv.ParseInt(query.Get("skip"), 10, 64); err == nil {
		filter.Skip = skip
	}
	if limit, err := strconv.ParseInt(query.Get("limit"), 10, 64); err == nil {
		filter.Limit = limit
	}

	videos, err := videoRepo.List(r.Context(), filter)
	if err != nil {
		writeVideoError(rw, err)
		return
	}

	writeJSON(rw, videos, http.StatusOK)
}

func findVideo(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	video, err := videoRepo.Find(r.Context(), vars["id"])
	if err != nil {
		writeVideoError(rw, err)
		return
	}

	writeJSON(rw, video, http.StatusOK)
}

func createVideo(rw http.ResponseWriter, r *http.Request) {
	video := models.Video{}
	if err := json.NewDecoder(r.Body).Decode(&video); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if errs := validate.Struct(video); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	created, err := videoRepo.Create(r.Context(), &video)
	if err != nil {
		writeVideoError(rw, err)
		return
	}

	writeJSON(rw, created, http.StatusCreated)
}

func updateVideo(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	data := make(map[string]interface{})
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, videoUpdatableFields)

	video, err := videoRepo.Update(r.Context(), vars["id"], data)
	if err != nil {
		writeVideoError(rw, err)
		return
	}

	writeJSON(rw, video, http.StatusOK)
}

func incrementVideoViews(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := videoRepo.IncrementViews(r.Context(), vars["id"]); err != nil {
		writeVideoError(rw, err)
		return
	}

	writeJSON(rw, messageResponse{Message: "View counted"}, http.StatusOK)
}

func likeVideo(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := videoRepo.IncrementLikes(r.Context(), vars["id"]); err != nil {
		writeVideoError(rw, err)
		return
	}

	writeJSON(rw, messageResponse{Message: "Like toggled"}, http.StatusOK)
}

func deleteVideo(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := videoRepo.Delete(r.Context(), vars["id"]); err != nil {
		writeVideoError(rw, err)
		return
	}

	writeJSON(rw, messageResponse{Message: "Video deleted successfully"}, http.StatusOK)
}
