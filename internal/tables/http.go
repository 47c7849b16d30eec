package tables

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BackendObserver はバックエンド呼び出しの計測フック。
// metrics.Collectorが実装する。
type BackendObserver interface {
	RecordBackendRequest(resource string, statusCode int)
	RecordBackendLatency(duration time.Duration)
}

// HTTPSource はHTTPで外部テーブルバックエンドへアクセスするSource実装。
type HTTPSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	observer   BackendObserver // nil可
}

// コンパイル時にインターフェース実装を確認
var _ Source = (*HTTPSource)(nil)

// NewHTTPSource はHTTPSourceの新しいインスタンスを生成する。
// baseURLは末尾スラッシュなしのバックエンドのベースURL。
func NewHTTPSource(httpClient *http.Client, logger *slog.Logger, baseURL string) *HTTPSource {
	return &HTTPSource{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// WithObserver はバックエンド呼び出しの計測フックを設定する。
func (s *HTTPSource) WithObserver(observer BackendObserver) *HTTPSource {
	s.observer = observer
	return s
}

// listEnvelope は一覧レスポンスのエンベロープ。
type listEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

// List はコレクションの一覧を取得してoutへデコードする。
// コレクション未提供（404）はErrUnavailableを返す。
func (s *HTTPSource) List(ctx context.Context, resource string, q Query, out any) error {
	reqURL := s.baseURL + "/tables/" + url.PathEscape(resource)
	if query := encodeQuery(q); query != "" {
		reqURL += "?" + query
	}

	body, err := s.do(ctx, http.MethodGet, resource, reqURL, nil)
	if err != nil {
		// 一覧の404はコレクション未提供を意味する
		if errors.Is(err, ErrNotFound) {
			return ErrUnavailable
		}
		return err
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("一覧レスポンスのパースに失敗しました (%s): %w", resource, err)
	}
	if out == nil {
		return nil
	}
	// データなしのコレクションは空配列として扱う
	if len(envelope.Data) == 0 {
		envelope.Data = json.RawMessage("[]")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("一覧データのデコードに失敗しました (%s): %w", resource, err)
	}
	return nil
}

// Get は指定IDのレコードを取得してoutへデコードする。
func (s *HTTPSource) Get(ctx context.Context, resource, id string, out any) error {
	body, err := s.do(ctx, http.MethodGet, resource, s.recordURL(resource, id), nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("レコードのデコードに失敗しました (%s/%s): %w", resource, id, err)
	}
	return nil
}

// Create はレコードを作成し、作成済みレコードをoutへデコードする。
func (s *HTTPSource) Create(ctx context.Context, resource string, body, out any) error {
	respBody, err := s.doJSON(ctx, http.MethodPost, resource, s.baseURL+"/tables/"+url.PathEscape(resource), body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("作成レスポンスのデコードに失敗しました (%s): %w", resource, err)
	}
	return nil
}

// Update はレコードを部分更新する。
func (s *HTTPSource) Update(ctx context.Context, resource, id string, patch any) error {
	_, err := s.doJSON(ctx, http.MethodPatch, resource, s.recordURL(resource, id), patch)
	return err
}

// Replace はレコードを全体置換する。
func (s *HTTPSource) Replace(ctx context.Context, resource, id string, body any) error {
	_, err := s.doJSON(ctx, http.MethodPut, resource, s.recordURL(resource, id), body)
	return err
}

// Remove はレコードを削除する。
func (s *HTTPSource) Remove(ctx context.Context, resource, id string) error {
	_, err := s.do(ctx, http.MethodDelete, resource, s.recordURL(resource, id), nil)
	return err
}

// Act はレコード配下のアクションエンドポイントへPOSTする。
func (s *HTTPSource) Act(ctx context.Context, resource, id, action string, body any) error {
	_, err := s.doJSON(ctx, http.MethodPost, resource, s.recordURL(resource, id)+"/"+url.PathEscape(action), body)
	return err
}

func (s *HTTPSource) recordURL(resource, id string) string {
	return s.baseURL + "/tables/" + url.PathEscape(resource) + "/" + url.PathEscape(id)
}

// doJSON はボディをJSONエンコードしてリクエストを実行する。
func (s *HTTPSource) doJSON(ctx context.Context, method, resource, reqURL string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	return s.do(ctx, method, resource, reqURL, reader)
}

// do はHTTPリクエストを実行し、レスポンスボディを返す。
// コンテキストにベアラートークンがあればAuthorizationヘッダーに付与する。
func (s *HTTPSource) do(ctx context.Context, method, resource, reqURL string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if s.observer != nil {
		s.observer.RecordBackendLatency(time.Since(start))
	}
	if err != nil {
		if s.observer != nil {
			s.observer.RecordBackendRequest(resource, 0)
		}
		s.logger.Error("テーブルバックエンドへのリクエストに失敗しました",
			slog.String("method", method),
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if s.observer != nil {
		s.observer.RecordBackendRequest(resource, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		s.logger.Error("テーブルバックエンドがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("url", reqURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}

// encodeQuery はQueryをURLクエリ文字列へ変換する。
func encodeQuery(q Query) string {
	values := url.Values{}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	for key, value := range q.Eq {
		values.Set(key, value)
	}
	return values.Encode()
}
