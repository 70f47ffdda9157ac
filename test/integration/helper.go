//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 集成测试针对一个已经启动的服务(go run ./cmd/api)
// 运行: go test -tags=integration ./test/integration/...
// 服务地址可通过 BOOKS_API_URL 覆盖

const (
	// defaultBaseURL API基础URL
	defaultBaseURL = "http://localhost:8080"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// BaseURL 服务地址
func BaseURL() string {
	if u := os.Getenv("BOOKS_API_URL"); u != "" {
		return u
	}
	return defaultBaseURL
}

// Response 统一响应结构
type Response struct {
	Status  int             `json:"-"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorDetail    `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Field string `json:"field"`
		Type  string `json:"type"`
	} `json:"details"`
}

// BookData 图书响应数据
type BookData struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear *int   `json:"published_year"`
}

// DoJSON 发送请求并解析JSON响应,data为nil时不发送请求体
func DoJSON(t *testing.T, method, path string, data any) *Response {
	t.Helper()

	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, BaseURL()+path, body)
	require.NoError(t, err, "创建HTTP请求失败")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	require.NoError(t, json.Unmarshal(raw, &result), "解析JSON响应失败: %s", string(raw))
	result.Status = resp.StatusCode

	return &result
}

// UniqueTitle 生成唯一的书名,避免重复运行时互相干扰
func UniqueTitle(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CreateTestBook 创建测试图书并返回
func CreateTestBook(t *testing.T, title, author string, year *int) BookData {
	t.Helper()

	req := map[string]any{"title": title, "author": author}
	if year != nil {
		req["published_year"] = *year
	}

	resp := DoJSON(t, http.MethodPost, "/books/", req)
	require.Equal(t, http.StatusCreated, resp.Status, "创建图书失败: %s", resp.Message)

	var book BookData
	require.NoError(t, json.Unmarshal(resp.Data, &book), "解析图书响应失败")
	return book
}
