// Package handler はサーバーレンダリングされたページと
// フォームPOSTのワークフローを提供するHTTPハンドラー群。
package handler

import (
	"context"
	"sync"

	"github.com/miyobam/myb/internal/activity"
	"github.com/miyobam/myb/internal/catalog"
	"github.com/miyobam/myb/internal/contest"
	"github.com/miyobam/myb/internal/forum"
	"github.com/miyobam/myb/internal/library"
	"github.com/miyobam/myb/internal/metrics"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/payments"
	"github.com/miyobam/myb/internal/repository"
	"github.com/miyobam/myb/internal/session"
	"github.com/miyobam/myb/internal/stories"
	"github.com/miyobam/myb/internal/view"
)

// AuthServiceInterface はハンドラーが必要とする認証サービスのインターフェース。
type AuthServiceInterface interface {
	// SignIn は資格情報を検証し永続化済みセッションを返す。
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	// SignUp は新規アカウントを登録し即座にサインインする。
	SignUp(ctx context.Context, username, email, password string) (*model.Session, error)
	// SignOut は保存済みセッションを削除する。
	SignOut(ctx context.Context, sessionID string) error
}

// Config はハンドラーの設定。
type Config struct {
	CookieSecure  bool
	CookieMaxAge  int // 秒
	UploadMaxSize int64
}

// Handler は全ページ・全ワークフローのHTTPハンドラー。
type Handler struct {
	auth     AuthServiceInterface
	catalog  *catalog.Service
	library  *library.Service
	payments *payments.Service
	stories  *stories.Service
	contests *contest.Service
	forum    *forum.Service
	activity *activity.Service

	renderer *view.Renderer
	states   *session.Store
	prefs    repository.PreferenceRepository
	metrics  metrics.MetricsCollector

	config Config

	// セッションIDごとに一度だけ設定ストアから状態を復元する
	hydrated sync.Map
}

// Deps はNewHandlerに必要な依存関係をまとめた構造体。
type Deps struct {
	Auth     AuthServiceInterface
	Catalog  *catalog.Service
	Library  *library.Service
	Payments *payments.Service
	Stories  *stories.Service
	Contests *contest.Service
	Forum    *forum.Service
	Activity *activity.Service

	Renderer *view.Renderer
	States   *session.Store
	Prefs    repository.PreferenceRepository
	Metrics  metrics.MetricsCollector // nil可

	Config Config
}

// NewHandler はHandlerを生成する。
func NewHandler(deps *Deps) *Handler {
	return &Handler{
		auth:     deps.Auth,
		catalog:  deps.Catalog,
		library:  deps.Library,
		payments: deps.Payments,
		stories:  deps.Stories,
		contests: deps.Contests,
		forum:    deps.Forum,
		activity: deps.Activity,
		renderer: deps.Renderer,
		states:   deps.States,
		prefs:    deps.Prefs,
		metrics:  deps.Metrics,
		config:   deps.Config,
	}
}
