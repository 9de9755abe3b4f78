package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client calls the model server over HTTP.
type Client struct {
	baseURL    string
	modelPath  string
	httpClient *http.Client
}

// NewClient creates a model-server client.
// modelPath is the weights file path on the model server's filesystem,
// sent with the load request at startup.
func NewClient(baseURL, modelPath string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelPath:  modelPath,
		httpClient: &http.Client{},
	}
}

type loadRequest struct {
	ModelPath string `json:"model_path"`
}

type describeRequest struct {
	Text                string   `json:"text,omitempty"`
	DescriptionType     string   `json:"description_type,omitempty"`
	EnableSampling      *bool    `json:"enable_sampling,omitempty"`
	SamplingTopP        *float64 `json:"sampling_topp,omitempty"`
	SamplingTemperature *float64 `json:"sampling_temperature,omitempty"`
	Image               string   `json:"image,omitempty"` // base64
}

type describeResponse struct {
	Response string `json:"response"`
}

// Load asks the model server to load the configured weights.
func (c *Client) Load(ctx context.Context) error {
	body, err := json.Marshal(loadRequest{ModelPath: c.modelPath})
	if err != nil {
		return fmt.Errorf("marshal load request: %w", err)
	}

	resp, err := c.post(ctx, "/load", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkResp(resp, "/load")
}

// Describe runs one inference call and returns the generated description.
func (c *Client) Describe(ctx context.Context, input DescribeInput) (string, error) {
	req := describeRequest{
		Text:                input.Text,
		DescriptionType:     input.DescriptionType,
		EnableSampling:      input.EnableSampling,
		SamplingTopP:        input.SamplingTopP,
		SamplingTemperature: input.SamplingTemperature,
	}
	if len(input.Image) > 0 {
		req.Image = base64.StdEncoding.EncodeToString(input.Image)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal describe request: %w", err)
	}

	resp, err := c.post(ctx, "/describe", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/describe"); err != nil {
		return "", err
	}

	var result describeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("model-server /describe: decode: %w", err)
	}

	return result.Response, nil
}

// Ping checks that the model server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("model-server /healthz: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model-server /healthz: %w", err)
	}
	defer resp.Body.Close()

	return checkResp(resp, "/healthz")
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("model-server %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model-server %s: %w", path, err)
	}
	return resp, nil
}

// checkResp reads the response body and returns an error if the status is
// not 2xx. The upstream body is included so failures carry the model
// server's own message.
func checkResp(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("model-server %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
}
