// Package forum はコミュニティフォーラムのスレッド閲覧・投稿を提供する。
package forum

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/tables"
)

// Service はフォーラムのサービス。
type Service struct {
	source tables.Source
}

// NewService はServiceを生成する。
func NewService(source tables.Source) *Service {
	return &Service{source: source}
}

// ListPosts はスレッド一覧を返す。categoryが空または"all"なら全件。
// ピン留めを先頭に、それ以外は作成日時降順で並べる。
func (s *Service) ListPosts(ctx context.Context, category string) ([]model.ForumPost, error) {
	var all []model.ForumPost
	if err := s.source.List(ctx, tables.ResourceForumPosts, tables.Query{}, &all); err != nil {
		return nil, fmt.Errorf("failed to list forum posts: %w", err)
	}

	posts := make([]model.ForumPost, 0, len(all))
	for _, p := range all {
		if category != "" && category != "all" && p.Category != category {
			continue
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Pinned != posts[j].Pinned {
			return posts[i].Pinned
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// CreatePost はスレッドを新規作成する。カウンタはゼロで初期化する。
func (s *Service) CreatePost(ctx context.Context, title, category, content, authorName string) (*model.ForumPost, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" || category == "" {
		return nil, model.NewMissingFieldError()
	}
	post := model.ForumPost{
		Title:      title,
		Category:   category,
		Content:    content,
		AuthorName: authorName,
	}
	var created model.ForumPost
	if err := s.source.Create(ctx, tables.ResourceForumPosts, post, &created); err != nil {
		return nil, fmt.Errorf("failed to create forum post: %w", err)
	}
	slog.Info("forum post created",
		slog.String("post_id", created.ID),
		slog.String("category", created.Category),
	)
	return &created, nil
}

// Subscribe はニュースレター購読としてメールアドレスを登録する。
// 配信そのものは行わない。
func (s *Service) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.NewMissingFieldError()
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewMissingFieldError()
	}
	record := map[string]any{"email": strings.ToLower(email)}
	if err := s.source.Create(ctx, tables.ResourceNewsletter, record, nil); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	slog.Info("newsletter subscription recorded")
	return nil
}
