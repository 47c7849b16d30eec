package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/miyobam/myb/internal/model"
)

// PostgresDemoAccountRepo はPostgreSQLを使用したローカル登録アカウントリポジトリ。
type PostgresDemoAccountRepo struct {
	db *sql.DB
}

// NewPostgresDemoAccountRepo はPostgresDemoAccountRepoを生成する。
func NewPostgresDemoAccountRepo(db *sql.DB) *PostgresDemoAccountRepo {
	return &PostgresDemoAccountRepo{db: db}
}

// FindByEmail はメールアドレス（大文字小文字無視）でアカウントを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresDemoAccountRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password, role, bio,
		        followers_count, following_count, posts_count, is_verified, joined_date
		 FROM demo_accounts
		 WHERE lower(email) = lower($1)`,
		email,
	).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &role, &user.Bio,
		&user.FollowersCount, &user.FollowingCount, &user.PostsCount, &user.IsVerified, &user.JoinedDate,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find demo account: %w", err)
	}

	user.Role = model.Role(role)
	return user, nil
}

// Create はアカウントを作成する。メールアドレスは小文字に正規化して保存する。
func (r *PostgresDemoAccountRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO demo_accounts
		     (id, username, email, password, role, bio,
		      followers_count, following_count, posts_count, is_verified, joined_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Username, strings.ToLower(user.Email), user.Password, string(user.Role), user.Bio,
		user.FollowersCount, user.FollowingCount, user.PostsCount, user.IsVerified, user.JoinedDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create demo account: %w", err)
	}
	return nil
}

// List は全アカウントを登録日時順で返す。
func (r *PostgresDemoAccountRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, email, password, role, bio,
		        followers_count, following_count, posts_count, is_verified, joined_date
		 FROM demo_accounts
		 ORDER BY joined_date ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list demo accounts: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		var role string
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.Password, &role, &user.Bio,
			&user.FollowersCount, &user.FollowingCount, &user.PostsCount, &user.IsVerified, &user.JoinedDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan demo account: %w", err)
		}
		user.Role = model.Role(role)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate demo accounts: %w", err)
	}
	return users, nil
}

// compile-time interface check
var _ DemoAccountRepository = (*PostgresDemoAccountRepo)(nil)
