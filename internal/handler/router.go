package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/miyobam/myb/internal/middleware"
	"github.com/miyobam/myb/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResumer middleware.SessionResumer
	SessionConfig  middleware.SessionConfig
	CSRFConfig     middleware.CSRFConfig
	RateLimiter    *middleware.RateLimiter
	Logger         *slog.Logger

	// ハンドラー
	Handler *Handler
}

// NewRouter は全ページ・全ワークフローのルーティングとミドルウェアチェーンを
// 構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → Logging → Recovery → Session → CSRF → RateLimit(General)
//
// ヘルスチェックはミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	h := deps.Handler

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// 静的アセットはセッションやCSRFのミドルウェアを通さない
	r.Method(http.MethodGet, "/static/*", view.StaticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewRecoveryMiddleware())
		r.Use(middleware.NewSessionMiddleware(deps.SessionResumer, deps.SessionConfig))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// SPAからトークンを取り直すためのエンドポイント
		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// アカウント
		r.Post("/signin", h.SignIn)
		r.Post("/signup", h.SignUp)
		r.Post("/signout", h.SignOut)
		r.Post("/theme/toggle", h.ToggleTheme)

		// 書籍ワークフロー
		r.Route("/books/{bookID}", func(r chi.Router) {
			r.Post("/like", h.ToggleLike)
			r.Post("/purchase", h.Purchase)
		})

		// PDFストーリー
		r.Route("/stories", func(r chi.Router) {
			// アップロードは専用のレート制限を追加
			r.With(deps.RateLimiter.UploadMiddleware()).Post("/", h.SubmitStory)

			r.Route("/{storyID}", func(r chi.Router) {
				r.Get("/read", h.ReadStory)
				r.Post("/rate", h.RateStory)
				r.Post("/report", h.ReportStory)
			})
		})

		// コミュニティ
		r.Post("/forum", h.CreateForumPost)
		r.Post("/newsletter", h.Subscribe)
		r.Post("/contests/{contestID}/vote", h.Vote)

		// 管理コンソール
		r.Route("/admin", func(r chi.Router) {
			r.Route("/stories/{storyID}", func(r chi.Router) {
				r.Post("/approve", h.ApproveStory)
				r.Post("/reject", h.RejectStory)
				r.Post("/delete", h.DeleteStory)
			})
			r.Post("/reports/{reportID}/resolve", h.ResolveReport)
			r.Post("/contests", h.CreateContest)
			r.Post("/contests/{contestID}/end", h.EndContest)
			r.Post("/books", h.CreateBook)
			r.Post("/book-of-week", h.SetBookOfWeek)
		})

		// ページ本体。未知のパスはホームへ解決される。
		r.Get("/*", h.ServePage)
	})

	return r
}
