// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/miyobam/myb/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// sidContextKey はブラウザセッションIDを格納するためのキー。
	sidContextKey = contextKey("session_id")
	// sessionContextKey はサインイン済みセッションを格納するためのキー。
	sessionContextKey = contextKey("session")
)

// SessionResumer は保存済みセッションの復元に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionResumer interface {
	Resume(ctx context.Context, sessionID string) (*model.Session, error)
}

// SessionConfig はセッションミドルウェアの設定。
type SessionConfig struct {
	CookieSecure bool
	CookieMaxAge int // 秒
}

// NewSessionMiddleware はブラウザセッションを解決するミドルウェアを返す。
// CookieのセッションIDをコンテキストに注入し、保存済みのサインイン状態が
// あれば復元する。匿名閲覧を許すため、未サインインでも拒否しない。
// Cookieが未設定の場合は新しいセッションIDを発行する。
func NewSessionMiddleware(resumer SessionResumer, config SessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if cookie, err := r.Cookie(sessionCookieName); err == nil {
				sid = cookie.Value
			}
			if sid == "" {
				sid = uuid.New().String()
				SetSessionCookie(w, sid, config)
			}

			ctx := context.WithValue(r.Context(), sidContextKey, sid)

			// 保存済みセッションがあればサインイン状態を復元する。
			// 復元失敗は匿名として続行する。
			session, err := resumer.Resume(ctx, sid)
			if err != nil {
				slog.Error("failed to resume session",
					slog.String("error", err.Error()),
				)
			} else if session != nil {
				ctx = context.WithValue(ctx, sessionContextKey, session)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie はセッションIDのCookieを発行する。
// サインイン時にセッションIDを永続セッションへ付け替える際にも使う。
func SetSessionCookie(w http.ResponseWriter, sid string, config SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   config.CookieMaxAge,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SIDFromContext はリクエストコンテキストからブラウザセッションIDを取得する。
func SIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sidContextKey).(string)
	return sid, ok && sid != ""
}

// SessionFromContext はサインイン済みセッションを取得する。
// 匿名リクエストではnilを返す。
func SessionFromContext(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// UserIDFromContext はサインイン済みユーザーのIDを取得する。
// 匿名リクエストでは空文字列とfalseを返す。
func UserIDFromContext(ctx context.Context) (string, bool) {
	if session := SessionFromContext(ctx); session != nil {
		return session.User.ID, true
	}
	return "", false
}

// ContextWithSID はコンテキストにセッションIDを注入する。テスト用。
func ContextWithSID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sidContextKey, sid)
}

// ContextWithSession はコンテキストにサインイン済みセッションを注入する。テスト用。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
