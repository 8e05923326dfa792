package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sable/internal/logger"
)

// 中文说明：
// ChatClient：兼容 OpenAI / DeepSeek / Qwen 的聊天补全接口（/v1/chat/completions）。
// Oracle 对核心是黑盒：输入自由文本上下文与指令，输出自由文本推荐。

// ErrOracleUnavailable 瞬态外部失败：调用方按 NEUTRAL 降级处理。
var ErrOracleUnavailable = errors.New("oracle: unavailable")

// Oracle 推荐 Oracle 的抽象契约。
type Oracle interface {
	Evaluate(ctx context.Context, context string, instructions string) (string, error)
}

type ChatClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// 简易重试（用于 429/5xx）：若为 0 则默认重试 2 次
	MaxRetries int
}

func (c *ChatClient) Evaluate(ctx context.Context, contextText, instructions string) (string, error) {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	// 规范化 BaseURL，避免配置里已带 /chat/completions 导致重复路径
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions") + "/chat/completions"

	messages := []map[string]string{}
	if instructions != "" {
		messages = append(messages, map[string]string{"role": "system", "content": instructions})
	}
	messages = append(messages, map[string]string{"role": "user", "content": contextText})

	body := map[string]any{"model": c.Model, "messages": messages, "temperature": 0.3}
	b, _ := json.Marshal(body)
	logger.LogOracleRequest("", instructions, contextText, string(b))

	httpc := &http.Client{Timeout: c.Timeout}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("[oracle] 请求: POST %s, model=%s, auth=%s", url, c.Model, maskKey(c.APIKey))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}
		resp, err := httpc.Do(req)
		if err != nil {
			lastErr = err
			break
		}
		if resp.StatusCode/100 == 2 {
			var r struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			derr := json.NewDecoder(resp.Body).Decode(&r)
			resp.Body.Close()
			if derr != nil {
				lastErr = derr
				break
			}
			if len(r.Choices) == 0 {
				lastErr = fmt.Errorf("empty choices")
				break
			}
			out := r.Choices[0].Message.Content
			logger.LogOracleResponse("", out)
			return out, nil
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
			// 指数退避后重试
			if attempt < maxRetries {
				wait := time.Duration(1<<attempt) * time.Second
				if ra := retryAfter(resp); ra > wait {
					wait = ra
				}
				logger.Warnf("[oracle] %s，%s 后重试（第 %d/%d 次）", lastErr, wait, attempt+1, maxRetries)
				select {
				case <-ctx.Done():
					return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, ctx.Err())
				case <-time.After(wait):
				}
				continue
			}
		}
		break
	}
	return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, lastErr)
}

// maskKey 仅展示密钥后 4 位。
func maskKey(key string) string {
	if key == "" {
		return "-"
	}
	tail := key
	if len(key) > 4 {
		tail = key[len(key)-4:]
	}
	return "Bearer ****" + tail
}

// retryAfter 解析 Retry-After 响应头（秒），无法解析时返回 0。
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	sec, err := strconv.Atoi(raw)
	if err != nil || sec <= 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}
