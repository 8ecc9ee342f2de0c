package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestVideo(t *testing.T, router *mux.Router, title, category string) map[string]interface{} {
	t.Helper()

	response := doRequest(router, "POST", "/api/videos/", map[string]interface{}{
		"title":         title,
		"description":   "desc",
		"video_url":     "https://cdn.example.com/" + title + ".mp4",
		"thumbnail_url": "https://cdn.example.com/" + title + ".jpg",
		"duration":      120,
		"category":      category,
		"difficulty":    "beginner",
	})
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	video := map[string]interface{}{}
	require.Nil(t, json.Unmarshal(response.Body.Bytes(), &video))

	return video
}

func TestCreateVideoEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter()

	video := createTestVideo(t, router, "wrist-escape", "self-defense")
	assert.NotEmpty(t, video["id"])
	assert.Equal(t, float64(0), video["views"])
	assert.Equal(t, float64(0), video["likes"])

	// required fields are enforced
	response := doRequest(router, "POST", "/api/videos/", map[string]interface{}{"title": "incomplete"})
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestListVideosEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter()

	createTestVideo(t, router, "a", "self-defense")
	createTestVideo(t, router, "b", "awareness")

	response := doRequest(router, "GET", "/api/videos/?category=awareness", nil)
	require.Equal(t, http.StatusOK, response.Code)

	videos := []map[string]interface{}{}
	require.Nil(t, json.Unmarshal(response.Body.Bytes(), &videos))
	require.Len(t, videos, 1)
	assert.Equal(t, "b", videos[0]["title"])
}

func TestVideoCounterEndpoints(t *testing.T) {
	router, _, _ := setupTestRouter()

	video := createTestVideo(t, router, "a", "self-defense")
	id := video["id"].(string)

	response := doRequest(router, "POST", "/api/videos/"+id+"/view", nil)
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "View counted")

	response = doRequest(router, "POST", "/api/videos/"+id+"/like", nil)
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "Like toggled")

	response = doRequest(router, "GET", "/api/videos/"+id, nil)
	refreshed := map[string]interface{}{}
	require.Nil(t, json.Unmarshal(response.Body.Bytes(), &refreshed))
	assert.Equal(t, float64(1), refreshed["views"])
	assert.Equal(t, float64(1), refreshed["likes"])

	response = doRequest(router, "POST", "/api/videos/61f7b9f3a2e4c1d8b0a3f2e1/view", nil)
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestUpdateAndDeleteVideoEndpoints(t *testing.T) {
	router, _, _ := setupTestRouter()

	video := createTestVideo(t, router, "a", "self-defense")
	id := video["id"].(string)

	response := doRequest(router, "PUT", "/api/videos/"+id, map[string]string{"title": "renamed"})
	require.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "renamed")

	response = doRequest(router, "DELETE", "/api/videos/"+id, nil)
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "Video deleted successfully")

	response = doRequest(router, "DELETE", "/api/videos/"+id, nil)
	assert.Equal(t, http.StatusNotFound, response.Code)

	response = doRequest(router, "GET", "/api/videos/bad-id", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Contains(t, response.Body.String(), "Invalid video ID")
}
