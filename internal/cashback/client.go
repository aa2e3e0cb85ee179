// Package cashback предоставляет клиент для внешнего API накопленного кэшбэка.
package cashback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client инкапсулирует HTTP-взаимодействие с внешним API кэшбэка.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Balance описывает конверт ответа внешнего API: статус и произвольное тело,
// которые возвращаются вызывающей стороне без изменений.
type Balance struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// NewClient создаёт HTTP-клиент для обращения к внешнему API кэшбэка по указанному адресу.
func NewClient(baseURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = 5 * time.Second

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryClient.StandardClient(),
	}
}

// GetAccumulated запрашивает накопленный кэшбэк для указанного CPF.
func (c *Client) GetAccumulated(ctx context.Context, cpf string) (*Balance, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("cashback client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	reqURL := base + "?cpf=" + url.QueryEscape(cpf)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result Balance
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Внешний API кладёт свой статус внутрь конверта; без него ответ
	// невозможно транслировать клиенту.
	if result.StatusCode < 100 || result.StatusCode > 599 {
		return nil, fmt.Errorf("malformed response: statusCode %d", result.StatusCode)
	}

	return &result, nil
}
