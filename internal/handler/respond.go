package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/miyobam/myb/internal/middleware"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/router"
	"github.com/miyobam/myb/internal/session"
	"github.com/miyobam/myb/internal/tables"
	"github.com/miyobam/myb/internal/view"
)

// state は現在のリクエストのセッション状態を返す。
// プロセス再起動などでメモリ上の状態が失われていても、ミドルウェアが
// 復元した永続セッションがあればサインイン状態を引き継ぐ。
func (h *Handler) state(r *http.Request) *session.State {
	sid, _ := middleware.SIDFromContext(r.Context())
	state := h.states.Get(sid)
	if state.User() == nil {
		if sess := middleware.SessionFromContext(r.Context()); sess != nil {
			state.SignIn(sess.User, sess.Token)
		}
	}
	return state
}

// sessionOf はガード判定用にStateからセッションスナップショットを作る。
// 未サインインならnil。
func (h *Handler) sessionOf(state *session.State) *model.Session {
	user := state.User()
	if user == nil {
		return nil
	}
	return &model.Session{
		ID:    state.ID(),
		User:  *user,
		Token: state.Token(),
	}
}

// backendContext はバックエンド呼び出し用にベアラートークンを載せたコンテキストを返す。
func (h *Handler) backendContext(r *http.Request, state *session.State) context.Context {
	ctx := r.Context()
	if token := state.Token(); token != "" {
		ctx = tables.WithToken(ctx, token)
	}
	return ctx
}

// hydrate は設定ストアからテーマとお気に入りを復元する。セッションごとに一度だけ行う。
func (h *Handler) hydrate(r *http.Request, state *session.State) {
	if _, done := h.hydrated.LoadOrStore(state.ID(), true); done {
		return
	}
	prefs, err := h.prefs.Find(r.Context(), state.ID())
	if err != nil {
		slog.Error("failed to load preferences",
			slog.String("session_id", state.ID()),
			slog.String("error", err.Error()),
		)
		return
	}
	if prefs == nil {
		return
	}
	state.SetTheme(prefs.Theme)
	state.SetLikedBooks(prefs.LikedBooks)
}

// savePreferences は現在のテーマとお気に入りを設定ストアへ保存する。
// 保存失敗はログのみで握りつぶす。表示状態はセッション内に残っている。
func (h *Handler) savePreferences(r *http.Request, state *session.State) {
	prefs := &model.Preferences{
		SessionID:  state.ID(),
		Theme:      state.Theme(),
		LikedBooks: state.LikedBooks(),
		UpdatedAt:  time.Now(),
	}
	if err := h.prefs.Save(r.Context(), prefs); err != nil {
		slog.Error("failed to save preferences",
			slog.String("session_id", state.ID()),
			slog.String("error", err.Error()),
		)
	}
}

// page は共通ヘッダーのビューモデルを組み立て、積まれた通知を取り出す。
func (h *Handler) page(r *http.Request, state *session.State, title string, active router.Page) view.Page {
	p := view.Page{
		Title:     title,
		Active:    string(active),
		Theme:     state.Theme(),
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Notices:   state.Notices().Drain(),
	}
	if user := state.User(); user != nil {
		p.SignedIn = true
		p.IsAdmin = user.IsAdmin()
		p.Username = user.Username
	}
	return p
}

// render はテンプレートを描画し、失敗時は統一エラーレスポンスへ切り替える。
func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, name, data); err != nil {
		slog.Error("failed to render page",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordPageRender(name)
	}
}

// redirect はワークフロー完了後のページ遷移を行う。
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, fragment string) {
	http.Redirect(w, r, "/"+fragment, http.StatusSeeOther)
}

// fail はエラーを通知へ変換して積む。APIErrorはそのメッセージを、
// それ以外は汎用メッセージを表示する。
func (h *Handler) fail(state *session.State, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		state.Notices().Error(apiErr.Message)
		return
	}
	slog.Error("workflow failed", slog.String("error", err.Error()))
	state.Notices().Error("Something went wrong. Please try again.")
}
