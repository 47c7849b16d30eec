// Package repository はローカル状態ストアの永続化インターフェースを定義する。
// ブラウザ版がlocalStorageに保持していた状態（セッション・登録アカウント・表示設定）の対応物。
package repository

import (
	"context"

	"github.com/miyobam/myb/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを一括削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// DemoAccountRepository はローカル登録アカウントの永続化インターフェース。
// デモモードの制約としてパスワードは平文のまま保存される。
type DemoAccountRepository interface {
	// FindByEmail はメールアドレス（大文字小文字無視）でアカウントを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Create はアカウントを作成する。
	Create(ctx context.Context, user *model.User) error
	// List は全アカウントを登録日時順で返す。
	List(ctx context.Context) ([]*model.User, error)
}

// PreferenceRepository はセッション単位のUI設定の永続化インターフェース。
type PreferenceRepository interface {
	// Find は指定セッションの設定を取得する。未保存の場合はnilを返す。
	Find(ctx context.Context, sessionID string) (*model.Preferences, error)
	// Save は設定を保存する（upsert）。
	Save(ctx context.Context, prefs *model.Preferences) error
}
