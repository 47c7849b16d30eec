package tables

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// UploadClient は外部アップロードエンドポイント（/upload）のクライアント。
// ファイル本体はbase64文字列としてJSONボディに載せる。
type UploadClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewUploadClient はUploadClientの新しいインスタンスを生成する。
func NewUploadClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *UploadClient {
	return &UploadClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// uploadResponse はアップロード成功時のレスポンス。
type uploadResponse struct {
	URL string `json:"url"`
}

// Upload はbase64エンコード済みのファイルをアップロードし、保存先URLを返す。
func (c *UploadClient) Upload(ctx context.Context, filename, base64Data string) (string, error) {
	reqBody, err := json.Marshal(map[string]string{
		"filename": filename,
		"data":     base64Data,
	})
	if err != nil {
		return "", fmt.Errorf("アップロードリクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("アップロードエンドポイントへのリクエストに失敗しました",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("アップロードエンドポイントがエラーステータスを返しました",
			slog.String("filename", filename),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("アップロードエンドポイントがステータス %d を返しました", resp.StatusCode)
	}

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("アップロードレスポンスのパースに失敗しました: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("アップロードレスポンスにURLが含まれていません")
	}
	return result.URL, nil
}
