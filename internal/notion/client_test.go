package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePage(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, notionVersion, r.Header.Get("Notion-Version"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "page-123"})
	}))
	defer server.Close()

	client := NewClient("secret-token", WithBaseURL(server.URL))
	pageID, err := client.CreatePage(context.Background(), "parent-1", "测试页面", []Block{Paragraph("内容")})
	require.NoError(t, err)
	assert.Equal(t, "page-123", pageID)

	parent := gotPayload["parent"].(map[string]any)
	assert.Equal(t, "parent-1", parent["page_id"])
	assert.Len(t, gotPayload["children"], 1)
}

func TestCreatePageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "validation_error",
			"message": "parent not found",
		})
	}))
	defer server.Close()

	client := NewClient("secret-token", WithBaseURL(server.URL))
	_, err := client.CreatePage(context.Background(), "missing", "页面", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "parent not found", apiErr.Message)
}

func TestUploadFile(t *testing.T) {
	uploadedBytes := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/file_uploads":
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "photo.jpg", payload["filename"])
			assert.Equal(t, "image/jpeg", payload["content_type"])
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id":         "fu-42",
				"upload_url": "/v1/file_uploads/fu-42/send",
			})
		case "/v1/file_uploads/fu-42/send":
			require.NoError(t, r.ParseMultipartForm(1 << 20))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "photo.jpg", header.Filename)
			uploadedBytes = true
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))

	client := NewClient("secret-token", WithBaseURL(server.URL))
	fileID, err := client.UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "fu-42", fileID)
	assert.True(t, uploadedBytes)
}
