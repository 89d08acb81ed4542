package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/pkg/digest"
)

// Client speaks the signed coordinator protocol: every privileged request
// carries user, time and digest parameters, with the digest covering all
// query parameters.
type Client struct {
	baseURL    string
	username   string
	key        string
	httpClient *http.Client
}

func NewClient(baseURL, username, key string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		key:      key,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type envelope struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Context string `json:"context"`
}

// APIError is a server-side refusal carried in an error envelope.
type APIError struct {
	Code    string
	Message string
	Context string
}

func (e *APIError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *Client) sign(params map[string]string) url.Values {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["user"] = c.username
	signed["time"] = strconv.FormatInt(time.Now().Unix(), 10)

	values := url.Values{}
	for k, v := range signed {
		values.Set(k, v)
	}
	values.Set("digest", digest.SignParams(signed, c.key))
	return values
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body io.Reader, out map[string]json.RawMessage) error {
	u := c.baseURL + path
	if params != nil {
		u += "?" + c.sign(params).Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return errors.Wrap(err, "node.Client.do")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "node.Client.do")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "node.Client.do.ReadAll")
	}
	var env envelope
	if err = json.Unmarshal(data, &env); err != nil {
		return errors.Wrapf(err, "node.Client.do: HTTP %d, unparseable body", resp.StatusCode)
	}
	if env.Status != "ok" {
		return &APIError{Code: env.Code, Message: env.Message, Context: env.Context}
	}
	if out != nil {
		if err = json.Unmarshal(data, &out); err != nil {
			return errors.Wrap(err, "node.Client.do.fields")
		}
	}
	return nil
}

// Info fetches the unauthenticated server info.
func (c *Client) Info(ctx context.Context) (string, error) {
	out := map[string]json.RawMessage{}
	if err := c.do(ctx, http.MethodGet, "/v1/info.json", nil, nil, out); err != nil {
		return "", err
	}
	var version string
	if raw, ok := out["version"]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			return "", errors.Wrap(err, "node.Client.Info")
		}
	}
	return version, nil
}

// AuthTest verifies this client's credentials against the server.
func (c *Client) AuthTest(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/auth/test.json", map[string]string{}, nil, nil)
}

// NextTask polls for work. Both returns are nil when no task is available.
func (c *Client) NextTask(ctx context.Context) (*models.Job, *models.Task, error) {
	out := map[string]json.RawMessage{}
	if err := c.do(ctx, http.MethodGet, "/v1/task/next.json", map[string]string{}, nil, out); err != nil {
		return nil, nil, err
	}
	rawTask, ok := out["task"]
	if !ok || string(rawTask) == "null" {
		return nil, nil, nil
	}
	task := &models.Task{}
	if err := json.Unmarshal(rawTask, task); err != nil {
		return nil, nil, errors.Wrap(err, "node.Client.NextTask.task")
	}
	job := &models.Job{}
	if err := json.Unmarshal(out["job"], job); err != nil {
		return nil, nil, errors.Wrap(err, "node.Client.NextTask.job")
	}
	return job, task, nil
}

// SubmitResult uploads the raw result file for a finished task.
func (c *Client) SubmitResult(ctx context.Context, jobID, taskID string, elapsed float64, result io.Reader) error {
	params := map[string]string{
		"job_id":  jobID,
		"task_id": taskID,
		"elapsed": strconv.FormatFloat(elapsed, 'f', 1, 64),
	}
	return c.do(ctx, http.MethodPost, "/v1/task/result.json", params, result, nil)
}

// ReportProgress is advisory; failures are the caller's to ignore.
func (c *Client) ReportProgress(ctx context.Context, jobID, taskID string, progress float64) error {
	params := map[string]string{
		"job_id":   jobID,
		"task_id":  taskID,
		"progress": strconv.FormatFloat(progress, 'f', 3, 64),
	}
	return c.do(ctx, http.MethodPost, "/v1/task/progress.json", params, nil, nil)
}
