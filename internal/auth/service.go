// Package auth はサインイン・サインアップ・サインアウトとセッション発行を提供する。
// 外部認証エンドポイントを優先し、失敗時はデモアカウント照合へフォールバックする。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/miyobam/myb/internal/fixtures"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/repository"
	"github.com/miyobam/myb/internal/tables"
)

const (
	// minPasswordLength はサインアップ時のパスワード最小文字数。
	minPasswordLength = 6
	// newReaderBio は新規登録ユーザーの初期プロフィール文。
	newReaderBio = "New reader on MYB"
)

// LoginClient は外部認証エンドポイントの呼び出しを抽象化する。
// tables.AuthClientが実装する。
type LoginClient interface {
	Login(ctx context.Context, email, password string) (*tables.LoginResult, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	login    LoginClient
	accounts repository.DemoAccountRepository
	sessions repository.SessionRepository
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	login LoginClient,
	accounts repository.DemoAccountRepository,
	sessions repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		login:    login,
		accounts: accounts,
		sessions: sessions,
		config:   config,
	}
}

// SignIn は資格情報を検証してセッションを発行する。
// 1. 外部認証エンドポイントを試す（成功時はJWTペイロードからユーザー情報を復元）
// 2. 失敗時は組み込みデモアカウントとローカル登録アカウントを照合する
// どちらにも一致しない場合はセッションを作らず認証失敗エラーを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewMissingCredentialsError()
	}

	// サーバー認証を先に試す
	if result, err := s.login.Login(ctx, email, password); err == nil {
		claims, err := extractClaims(result.Token)
		if err != nil {
			slog.Warn("failed to parse auth token, falling back to demo accounts",
				slog.String("error", err.Error()),
			)
		} else {
			user := model.User{
				ID:       claims.ID,
				Username: result.Username,
				Email:    claims.Email,
				Role:     model.Role(claims.Role),
			}
			session, err := s.createSession(ctx, user, result.Token)
			if err != nil {
				return nil, err
			}
			slog.Info("user signed in via auth endpoint",
				slog.String("user_id", user.ID),
				slog.String("role", string(user.Role)),
			)
			return session, nil
		}
	} else {
		slog.Info("auth endpoint unavailable or rejected, trying demo accounts",
			slog.String("error", err.Error()),
		)
	}

	// デモアカウント照合: メールは大文字小文字無視、パスワードは厳密一致
	user, err := s.findDemoAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Password != password {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, *user, "")
	if err != nil {
		return nil, err
	}
	slog.Info("user signed in via demo account",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return session, nil
}

// SignUp は新規アカウントを登録し、そのままサインインする。
// すべての検証（未入力、パスワード長、メール重複）は書き込み前に行う。
func (s *Service) SignUp(ctx context.Context, username, email, password string) (*model.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, model.NewMissingFieldError()
	}
	if len(password) < minPasswordLength {
		return nil, model.NewPasswordTooShortError(minPasswordLength)
	}

	existing, err := s.findDemoAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	now := time.Now()
	user := &model.User{
		ID:         fmt.Sprintf("user-%d", now.UnixMilli()),
		Username:   username,
		Email:      strings.ToLower(email),
		Password:   password,
		Role:       model.RoleUser,
		Bio:        newReaderBio,
		JoinedDate: now,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	session, err := s.createSession(ctx, *user, "")
	if err != nil {
		return nil, err
	}
	slog.Info("new account registered",
		slog.String("user_id", user.ID),
	)
	return session, nil
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("user signed out", slog.String("session_id", sessionID))
	return nil
}

// Resume は保存済みセッションを復元する。期限切れ・未知のIDはnilを返す。
func (s *Service) Resume(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// findDemoAccount は組み込みデモアカウントとローカル登録アカウントを順に照合する。
// 見つからない場合はnilを返す。
func (s *Service) findDemoAccount(ctx context.Context, email string) (*model.User, error) {
	for _, u := range fixtures.DemoUsers() {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up demo account: %w", err)
	}
	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, user model.User, token string) (*model.Session, error) {
	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		User:      user.WithoutPassword(),
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}
