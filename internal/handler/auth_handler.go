package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/miyobam/myb/internal/middleware"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/router"
	"github.com/miyobam/myb/internal/session"
)

// sessionConfig はCookie発行用の設定へ変換する。
func (h *Handler) sessionConfig() middleware.SessionConfig {
	return middleware.SessionConfig{
		CookieSecure: h.config.CookieSecure,
		CookieMaxAge: h.config.CookieMaxAge,
	}
}

// SignIn はメールアドレスとパスワードでサインインする。
// 成功するとCookieのセッションIDを永続セッションのIDへ付け替え、
// 匿名セッションで貯めたテーマや「いいね」を引き継ぐ。
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		state.Notices().Error("Enter your email and password.")
		h.redirect(w, r, string(router.PageProfile))
		return
	}

	sess, err := h.auth.SignIn(r.Context(), email, password)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageProfile))
		return
	}

	h.bindSession(w, r, state, sess)
	h.states.Get(sess.ID).Notices().Success("Welcome back, " + sess.User.Username + "!")

	// 管理者は管理ダッシュボードへ、一般ユーザーはホームへ遷移する
	if sess.IsAdmin() {
		h.redirect(w, r, "admin-dashboard")
		return
	}
	h.redirect(w, r, string(router.PageHome))
}

// SignUp は新規アカウントを作成してそのままサインインする。
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)

	username := strings.TrimSpace(r.PostFormValue("username"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if username == "" || email == "" || password == "" {
		state.Notices().Error("Fill in all the fields to create your account.")
		h.redirect(w, r, string(router.PageProfile))
		return
	}

	sess, err := h.auth.SignUp(r.Context(), username, email, password)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageProfile))
		return
	}

	h.bindSession(w, r, state, sess)
	h.states.Get(sess.ID).Notices().Success("Welcome to MYB, " + sess.User.Username + "!")
	h.redirect(w, r, string(router.PageHome))
}

// SignOut は永続セッションを破棄してサインアウトする。
// Cookieは新しい匿名セッションのIDへ付け替え、完了通知はそちらへ積む。
// 破棄したIDに積むと次のリクエストで読まれないまま消えてしまう。
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	next := h.states.Get(uuid.New().String())
	next.SetTheme(state.Theme())

	if sid, ok := middleware.SIDFromContext(r.Context()); ok {
		if err := h.auth.SignOut(r.Context(), sid); err != nil {
			h.fail(next, err)
		}
	}

	next.Notices().Info("Signed out successfully")
	h.states.Delete(state.ID())

	middleware.SetSessionCookie(w, next.ID(), h.sessionConfig())
	h.redirect(w, r, string(router.PageHome))
}

// bindSession はブラウザセッションをサインイン済みセッションへ付け替える。
// 匿名セッションのテーマと「いいね」は新しいセッションへ引き継いだうえで
// 破棄し、以後のリクエストは永続セッションのIDで識別される。
func (h *Handler) bindSession(w http.ResponseWriter, r *http.Request, old *session.State, sess *model.Session) {
	next := h.states.Get(sess.ID)
	next.SetTheme(old.Theme())
	next.SetLikedBooks(old.LikedBooks())
	next.SignIn(sess.User, sess.Token)

	if old.ID() != sess.ID {
		h.states.Delete(old.ID())
	}

	middleware.SetSessionCookie(w, sess.ID, h.sessionConfig())
	h.hydrated.Store(sess.ID, true)
	h.savePreferences(r, next)
}
