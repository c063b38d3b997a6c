package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHubURL = "https://huggingface.co"

// HubClient talks to the Hugging Face Hub HTTP API for dataset repos.
type HubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHubClient creates a Hub client authenticated with the given access token.
func NewHubClient(token string) *HubClient {
	return &HubClient{
		baseURL: defaultHubURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// doJSON performs a JSON request against the Hub API. It handles marshaling
// the payload, attaching auth, executing the request, and decoding the
// response. If result is nil, the response body is not decoded.
func (c *HubClient) doJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, result)
}

func (c *HubClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &hubError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type hubError struct {
	Status int
	Body   string
}

func (e *hubError) Error() string {
	return fmt.Sprintf("hub API returned %d: %s", e.Status, e.Body)
}

func statusOf(err error) int {
	if he, ok := err.(*hubError); ok {
		return he.Status
	}
	return 0
}

// RepoExists checks the dataset endpoint; a 404 means the repo is absent.
func (c *HubClient) RepoExists(ctx context.Context, repoID string) (bool, error) {
	err := c.doJSON(ctx, http.MethodGet, "/api/datasets/"+repoID, nil, nil)
	if err == nil {
		return true, nil
	}
	if statusOf(err) == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

// ListRepoFiles lists the repo's main revision tree.
func (c *HubClient) ListRepoFiles(ctx context.Context, repoID string) ([]string, error) {
	var entries []struct {
		Path string `json:"path"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/datasets/"+repoID+"/tree/main", nil, &entries); err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths, nil
}

// CreateRepo creates the dataset repo. A 409 conflict means it already
// exists, which callers treat as success.
func (c *HubClient) CreateRepo(ctx context.Context, repoID string) error {
	name := repoID
	org := ""
	if i := strings.IndexByte(repoID, '/'); i >= 0 {
		org, name = repoID[:i], repoID[i+1:]
	}

	payload := map[string]string{
		"type": "dataset",
		"name": name,
	}
	if org != "" {
		payload["organization"] = org
	}

	err := c.doJSON(ctx, http.MethodPost, "/api/repos/create", payload, nil)
	if err != nil && statusOf(err) == http.StatusConflict {
		return nil
	}
	return err
}

// UploadFile commits a single file to the repo's main revision. The commit
// endpoint takes newline-delimited JSON: a header operation followed by one
// base64-encoded file operation.
func (c *HubClient) UploadFile(ctx context.Context, repoID, path string, data []byte) error {
	header, err := json.Marshal(map[string]interface{}{
		"key": "header",
		"value": map[string]string{
			"summary": "Upload " + path,
		},
	})
	if err != nil {
		return err
	}
	file, err := json.Marshal(map[string]interface{}{
		"key": "file",
		"value": map[string]string{
			"path":     path,
			"content":  base64.StdEncoding.EncodeToString(data),
			"encoding": "base64",
		},
	})
	if err != nil {
		return err
	}

	body := bytes.NewReader(append(append(header, '\n'), file...))
	return c.do(ctx, http.MethodPost, "/api/datasets/"+repoID+"/commit/main", body, "application/x-ndjson", nil)
}

// ListDatasets enumerates datasets by author and name substring.
func (c *HubClient) ListDatasets(ctx context.Context, author, search string) ([]string, error) {
	q := url.Values{}
	q.Set("author", author)
	if search != "" {
		q.Set("search", search)
	}

	var entries []struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/datasets?"+q.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, nil
}

// DownloadFile resolves a file from the repo's main revision.
func (c *HubClient) DownloadFile(ctx context.Context, repoID, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/datasets/%s/resolve/main/%s", c.baseURL, repoID, path), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &hubError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}
	return io.ReadAll(resp.Body)
}
