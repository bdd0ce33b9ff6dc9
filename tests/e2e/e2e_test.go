package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL = os.Getenv("FILEVAULT_TEST_URL")

// TestUserFullWorkflow walks a user through the whole product surface:
// register, login, upload, list, mint a download link, share with a second
// user, let the grantee download, then clean up.
func TestUserFullWorkflow(t *testing.T) {
	if baseURL == "" {
		t.Skip("FILEVAULT_TEST_URL not set")
	}
	client := &http.Client{Timeout: 30 * time.Second}

	// register + login the owner
	ownerEmail := fmt.Sprintf("e2e_owner_%d@example.com", time.Now().UnixNano())
	ownerToken := signUp(t, client, ownerEmail)

	// upload a file
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", "workflow.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("end to end payload"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ownerToken)

	resp, err := client.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "upload: %s", body)

	var uploadResp struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(body, &uploadResp))
	require.Len(t, uploadResp.Files, 1)
	fileID := uploadResp.Files[0].ID

	// mint a presigned download link and fetch the blob directly
	resp, body = authedRequest(t, client, http.MethodGet, "/v1/files/"+fileID+"/link", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "link: %s", body)

	var linkResp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(body, &linkResp))
	require.NotEmpty(t, linkResp.URL)

	blobResp, err := client.Get(linkResp.URL)
	require.NoError(t, err)
	blob, err := io.ReadAll(blobResp.Body)
	blobResp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, blobResp.StatusCode)
	assert.Equal(t, "end to end payload", string(blob))

	// share with a second user
	granteeEmail := fmt.Sprintf("e2e_grantee_%d@example.com", time.Now().UnixNano())
	granteeToken := signUp(t, client, granteeEmail)

	resp, body = authedRequest(t, client, http.MethodPost, "/v1/shares", ownerToken, map[string]any{
		"files":      []string{fileID},
		"email":      granteeEmail,
		"privileges": []string{"download"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "share: %s", body)

	// grantee downloads the shared file as a zip archive
	resp, body = authedRequest(t, client, http.MethodPost, "/v1/files/download", granteeToken, map[string]any{
		"files": []string{fileID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)

	// grantee cannot delete with a download-only grant
	resp, _ = authedRequest(t, client, http.MethodDelete, "/v1/files", granteeToken, map[string]any{
		"files": []string{fileID},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// owner cleans up
	resp, body = authedRequest(t, client, http.MethodDelete, "/v1/files", ownerToken, map[string]any{
		"files": []string{fileID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Deleted 1 files")
}

func signUp(t *testing.T, client *http.Client, email string) string {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": "password123",
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := client.Post(baseURL+"/v1/auth/register", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = client.Post(baseURL+"/v1/auth/login", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &loginResp))
	require.NotEmpty(t, loginResp.Token.AccessToken)
	return loginResp.Token.AccessToken
}

func authedRequest(t *testing.T, client *http.Client, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	return resp, body
}
