package tables

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// AuthClient は外部認証エンドポイント（/auth/login）のクライアント。
// トークンの発行と検証はバックエンド側の責務で、ここでは呼び出すだけ。
type AuthClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewAuthClient はAuthClientの新しいインスタンスを生成する。
func NewAuthClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *AuthClient {
	return &AuthClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// LoginResult は認証成功時のレスポンス。
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Login は認証エンドポイントへ資格情報を送信する。
// 認証失敗（非2xx）と到達不能はどちらもエラーで返し、
// 呼び出し側がデモアカウント照合へフォールバックする。
func (c *AuthClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	reqBody, err := json.Marshal(map[string]string{
		"username": email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("認証リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("認証エンドポイントへ到達できません",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("認証エンドポイントがステータス %d を返しました", resp.StatusCode)
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("認証レスポンスのパースに失敗しました: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("認証レスポンスにトークンが含まれていません")
	}
	return &result, nil
}
