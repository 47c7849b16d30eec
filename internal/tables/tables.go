// Package tables は汎用テーブルバックエンド（/tables/<name>）のクライアントを提供する。
// 一覧は {"data": [...]} エンベロープ、単体取得・作成はオブジェクト直のレスポンス形式。
package tables

import (
	"context"
	"errors"
)

// リソース名。バックエンドのコレクション名と一致する。
const (
	ResourceBooks           = "books"
	ResourceChapters        = "chapters"
	ResourcePurchases       = "purchases"
	ResourceReadingProgress = "reading_progress"
	ResourceUsers           = "users"
	ResourcePDFStories      = "pdf_stories"
	ResourceStoryReports    = "story_reports"
	ResourceRatings         = "ratings"
	ResourceContests        = "contests"
	ResourceForumPosts      = "forum_posts"
	ResourceNewsletter      = "newsletter_subscribers"
	ResourcePayments        = "payments"
	ResourceMessages        = "messages"
	ResourceBookOfWeek      = "book_of_week"
)

var (
	// ErrUnavailable はバックエンドに到達できない、またはコレクションが存在しないことを表す。
	// 読み取り側はこのエラーを受けてフィクスチャまたは空リストへ縮退する。
	ErrUnavailable = errors.New("tables: backend unavailable")
	// ErrNotFound は指定IDのレコードが存在しないことを表す。
	ErrNotFound = errors.New("tables: record not found")
)

// Query は一覧取得の絞り込み条件。
type Query struct {
	// Limit は最大取得件数。0は未指定。
	Limit int
	// Sort はソートフィールド名。先頭に'-'を付けると降順（例: "-created_at"）。
	Sort string
	// Order はソート方向（"asc"/"desc"）。方向を別パラメータで受け取る
	// コレクション向けで、Sortの'-'接頭辞と等価。
	Order string
	// Eq は等値フィルタ。バックエンドが無視する可能性があるため、
	// 厳密な絞り込みが必要な呼び出し側は取得後にも絞り込むこと。
	Eq map[string]string
}

// Source はテーブルバックエンドへの読み書きを抽象化する。
// outにはデコード先のポインタを渡す（一覧なら *[]T、単体なら *T）。
// 不要な場合はnilを渡してよい。
type Source interface {
	// List はコレクションの一覧を取得してoutへデコードする。
	List(ctx context.Context, resource string, q Query, out any) error
	// Get は指定IDのレコードを取得してoutへデコードする。
	Get(ctx context.Context, resource, id string, out any) error
	// Create はレコードを作成し、バックエンドが返す作成済みレコードをoutへデコードする。
	Create(ctx context.Context, resource string, body, out any) error
	// Update はレコードを部分更新する（PATCH）。
	Update(ctx context.Context, resource, id string, patch any) error
	// Replace はレコードを全体置換する（PUT）。
	Replace(ctx context.Context, resource, id string, body any) error
	// Remove はレコードを削除する。
	Remove(ctx context.Context, resource, id string) error
	// Act はレコード配下のアクションエンドポイント（/tables/<r>/<id>/<action>）へPOSTする。
	Act(ctx context.Context, resource, id, action string, body any) error
}

// tokenKey はリクエストスコープのベアラートークンを運ぶコンテキストキー。
type tokenKey struct{}

// WithToken はバックエンド認証用のベアラートークンをコンテキストに載せる。
// セッションごとにトークンが異なるため、クライアント構造体ではなくコンテキストで運ぶ。
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext はコンテキストからベアラートークンを取り出す。
// 未設定の場合は空文字列とfalseを返す。
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
