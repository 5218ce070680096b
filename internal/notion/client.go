package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com"
	notionVersion  = "2022-06-28"
)

// Client 封装与 Notion API 的 HTTP 通讯
type Client struct {
	baseURL string
	token   string

	httpClient *http.Client
}

// Option 自定义客户端行为
type Option func(*Client)

// WithHTTPClient 自定义 HTTP 客户端（测试时使用）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL 自定义 API 地址（测试时指向 httptest 服务）
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewClient 创建 Notion 客户端
func NewClient(token string, opts ...Option) *Client {
	client := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(client)
	}
	return client
}

// APIError 表示 Notion 业务错误
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api error: status=%d, code=%s, message=%s", e.Status, e.Code, e.Message)
}

// CreatePage 在父页面下创建子页面，返回新页面 ID
func (c *Client) CreatePage(ctx context.Context, parentPageID, title string, children []Block) (string, error) {
	payload := map[string]any{
		"parent": map[string]any{"page_id": parentPageID},
		"properties": map[string]any{
			"title": map[string]any{
				"title": richText(title),
			},
		},
	}
	if len(children) > 0 {
		payload["children"] = children
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/pages", payload, &out); err != nil {
		return "", fmt.Errorf("create page failed: %w", err)
	}
	return out.ID, nil
}

// AppendBlocks 向页面追加内容块
func (c *Client) AppendBlocks(ctx context.Context, pageID string, children []Block) error {
	payload := map[string]any{"children": children}
	path := fmt.Sprintf("/v1/blocks/%s/children", pageID)
	if err := c.doMethod(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("append blocks failed: %w", err)
	}
	return nil
}

// UploadFile 两步上传本地文件，返回 file upload ID
// 先登记上传得到 upload_url，再把文件字节以 multipart 发过去。
func (c *Client) UploadFile(ctx context.Context, filePath string) (string, error) {
	fileName := filepath.Base(filePath)
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var created struct {
		ID        string `json:"id"`
		UploadURL string `json:"upload_url"`
	}
	payload := map[string]any{
		"filename":     fileName,
		"content_type": contentType,
	}
	if err := c.do(ctx, http.MethodPost, "/v1/file_uploads", payload, &created); err != nil {
		return "", fmt.Errorf("register file upload failed: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file failed: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("build multipart failed: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart failed: %w", err)
	}

	uploadURL := created.UploadURL
	if strings.HasPrefix(uploadURL, "/") {
		uploadURL = c.baseURL + uploadURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request failed: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload file failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}
	return created.ID, nil
}

// do 发送 JSON 请求并解析响应
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	return c.doMethod(ctx, method, path, payload, out)
}

func (c *Client) doMethod(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request notion api failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode notion response failed: %w", err)
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
}

func (c *Client) parseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &envelope)

	return &APIError{
		Status:  resp.StatusCode,
		Code:    envelope.Code,
		Message: envelope.Message,
	}
}
