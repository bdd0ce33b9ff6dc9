package integration

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

	"github.com/stretchr/testify/require"
)

// baseURL points the suite at a running FileVault API. The suite is skipped
// when it is unset so unit runs stay self-contained.
var baseURL = os.Getenv("FILEVAULT_TEST_URL")

func requireServer(t *testing.T) *http.Client {
	t.Helper()
	if baseURL == "" {
		t.Skip("FILEVAULT_TEST_URL not set")
	}
	return &http.Client{Timeout: 30 * time.Second}
}

type account struct {
	Email string
	Token string
}

// registerAndLogin provisions a fresh user and returns its bearer token.
func registerAndLogin(t *testing.T, client *http.Client) account {
	t.Helper()

	email := fmt.Sprintf("it_%d@example.com", time.Now().UnixNano())
	password := "password123"

	postJSON(t, client, "/v1/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusCreated)

	loginBody := postJSON(t, client, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK)

	var loginResp struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(loginBody, &loginResp))
	require.NotEmpty(t, loginResp.Token.AccessToken)

	return account{Email: email, Token: loginResp.Token.AccessToken}
}

func postJSON(t *testing.T, client *http.Client, path string, payload any, wantStatus int) []byte {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "POST %s: %s", path, body)
	return body
}

func doJSON(t *testing.T, client *http.Client, method, path, token string, payload any) (*http.Response, []byte) {
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
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// uploadFiles posts the named payloads as one multipart batch and returns the
// created file identifiers on success.
func uploadFiles(t *testing.T, client *http.Client, token string, files map[string][]byte, wantStatus int) []string {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "upload: %s", body)

	if wantStatus != http.StatusCreated {
		return nil
	}

	var uploadResp struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(body, &uploadResp))

	ids := make([]string, 0, len(uploadResp.Files))
	for _, f := range uploadResp.Files {
		ids = append(ids, f.ID)
	}
	return ids
}
