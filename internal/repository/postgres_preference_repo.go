package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/miyobam/myb/internal/model"
)

// PostgresPreferenceRepo はPostgreSQLを使用したUI設定リポジトリ。
// お気に入り書籍IDリストはJSONBで保持する。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

// Find は指定セッションの設定を取得する。未保存の場合はnilを返す。
func (r *PostgresPreferenceRepo) Find(ctx context.Context, sessionID string) (*model.Preferences, error) {
	prefs := &model.Preferences{}
	var theme string
	var likedBooks []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, theme, liked_books, updated_at
		 FROM preferences
		 WHERE session_id = $1`,
		sessionID,
	).Scan(&prefs.SessionID, &theme, &likedBooks, &prefs.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find preferences: %w", err)
	}

	prefs.Theme = model.Theme(theme)
	if err := json.Unmarshal(likedBooks, &prefs.LikedBooks); err != nil {
		return nil, fmt.Errorf("failed to decode liked books: %w", err)
	}
	return prefs, nil
}

// Save は設定を保存する（upsert）。
func (r *PostgresPreferenceRepo) Save(ctx context.Context, prefs *model.Preferences) error {
	likedBooks := prefs.LikedBooks
	if likedBooks == nil {
		likedBooks = []string{}
	}
	encoded, err := json.Marshal(likedBooks)
	if err != nil {
		return fmt.Errorf("failed to encode liked books: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO preferences (session_id, theme, liked_books, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id)
		 DO UPDATE SET theme = EXCLUDED.theme,
		               liked_books = EXCLUDED.liked_books,
		               updated_at = EXCLUDED.updated_at`,
		prefs.SessionID, string(prefs.Theme), encoded, prefs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)
