package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/miyobam/myb/internal/fixtures"
)

// FallbackSource はバックエンド障害時に読み取りを縮退させるSourceデコレータ。
// booksの一覧取得が失敗した場合はデモカタログを返し、
// それ以外のコレクションは空リストへ縮退する。書き込みは縮退せずエラーを返す。
type FallbackSource struct {
	inner  Source
	logger *slog.Logger
}

var _ Source = (*FallbackSource)(nil)

// NewFallbackSource はFallbackSourceの新しいインスタンスを生成する。
func NewFallbackSource(inner Source, logger *slog.Logger) *FallbackSource {
	return &FallbackSource{
		inner:  inner,
		logger: logger,
	}
}

// List は一覧取得に失敗した場合、フィクスチャまたは空リストへ縮退する。
func (s *FallbackSource) List(ctx context.Context, resource string, q Query, out any) error {
	err := s.inner.List(ctx, resource, q, out)
	if err == nil {
		return nil
	}

	s.logger.Warn("テーブルバックエンドから取得できないため縮退します",
		slog.String("resource", resource),
		slog.String("error", err.Error()),
	)

	if resource == ResourceBooks {
		return decodeInto(fixtures.DemoBooks(), out)
	}
	return decodeInto([]struct{}{}, out)
}

// Get は内側のSourceへそのまま委譲する。
func (s *FallbackSource) Get(ctx context.Context, resource, id string, out any) error {
	return s.inner.Get(ctx, resource, id, out)
}

// Create は内側のSourceへそのまま委譲する。書き込みは縮退しない。
func (s *FallbackSource) Create(ctx context.Context, resource string, body, out any) error {
	return s.inner.Create(ctx, resource, body, out)
}

// Update は内側のSourceへそのまま委譲する。
func (s *FallbackSource) Update(ctx context.Context, resource, id string, patch any) error {
	return s.inner.Update(ctx, resource, id, patch)
}

// Replace は内側のSourceへそのまま委譲する。
func (s *FallbackSource) Replace(ctx context.Context, resource, id string, body any) error {
	return s.inner.Replace(ctx, resource, id, body)
}

// Remove は内側のSourceへそのまま委譲する。
func (s *FallbackSource) Remove(ctx context.Context, resource, id string) error {
	return s.inner.Remove(ctx, resource, id)
}

// Act は内側のSourceへそのまま委譲する。
func (s *FallbackSource) Act(ctx context.Context, resource, id, action string, body any) error {
	return s.inner.Act(ctx, resource, id, action, body)
}

// decodeInto は値をJSON経由でoutへ詰め替える。
// HTTPSourceのデコード経路と同じ型変換規則に揃えるためJSONを経由する。
func decodeInto(v, out any) error {
	if out == nil {
		return nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("縮退データのエンコードに失敗しました: %w", err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("縮退データのデコードに失敗しました: %w", err)
	}
	return nil
}
