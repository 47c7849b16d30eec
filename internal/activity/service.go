// Package activity は管理ダッシュボードの集計・アクティビティフィード・分析を提供する。
package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/tables"
)

// feedLimit はアクティビティフィードの最大表示件数。
const feedLimit = 10

// Service は管理ダッシュボードのサービス。
type Service struct {
	source tables.Source
}

// NewService はServiceを生成する。
func NewService(source tables.Source) *Service {
	return &Service{source: source}
}

// ListUsers はユーザーコレクションを登録日の降順で取得する。
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	query := tables.Query{Sort: "joined_date", Order: "desc"}
	if err := s.source.List(ctx, tables.ResourceUsers, query, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// messagesLimit はメッセージタブの最大取得件数。
const messagesLimit = 100

// ListMessages は指定ユーザー宛のメッセージを新着順で取得する。
// バックエンドはフィルタを無視することがあるため、宛先の絞り込みは取得後にも行う。
func (s *Service) ListMessages(ctx context.Context, toUserID string) ([]model.Message, error) {
	var messages []model.Message
	query := tables.Query{
		Limit: messagesLimit,
		Sort:  "sent_at",
		Order: "desc",
		Eq:    map[string]string{"to_user_id": toUserID},
	}
	if err := s.source.List(ctx, tables.ResourceMessages, query, &messages); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	filtered := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if m.ToUserID == toUserID {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// UnreadCount は未読メッセージ数を数える。
func UnreadCount(messages []model.Message) int {
	count := 0
	for _, m := range messages {
		if !m.IsRead {
			count++
		}
	}
	return count
}

// DashboardStats はダッシュボード上部の集計値。
type DashboardStats struct {
	TotalUsers     int
	TotalBooks     int
	PendingStories int
	PendingReports int
}

// Stats はダッシュボードの集計値を計算する。
func Stats(users []model.User, books []model.Book, stories []model.PDFStory, reports []model.StoryReport) DashboardStats {
	stats := DashboardStats{
		TotalUsers: len(users),
		TotalBooks: len(books),
	}
	for _, st := range stories {
		if st.Status == model.StoryPending {
			stats.PendingStories++
		}
	}
	for _, r := range reports {
		if r.Status == model.ReportPending {
			stats.PendingReports++
		}
	}
	return stats
}

// EntryKind はアクティビティの種別。
type EntryKind string

const (
	// EntryUser は新規ユーザー登録。
	EntryUser EntryKind = "user"
	// EntryBook は書籍の公開。
	EntryBook EntryKind = "book"
)

// Entry はアクティビティフィードの1件。
type Entry struct {
	Kind      EntryKind
	Title     string
	Detail    string
	Timestamp time.Time
}

// RecentActivity は新規ユーザーと新着書籍を1本のフィードに束ね、
// 時刻降順で最大10件返す。
func RecentActivity(users []model.User, books []model.Book) []Entry {
	entries := make([]Entry, 0, len(users)+len(books))
	for _, u := range users {
		entries = append(entries, Entry{
			Kind:      EntryUser,
			Title:     u.Username,
			Detail:    "joined the platform",
			Timestamp: u.JoinedDate,
		})
	}
	for _, b := range books {
		entries = append(entries, Entry{
			Kind:      EntryBook,
			Title:     b.Title,
			Detail:    "published by " + b.Author,
			Timestamp: b.PublishedDate,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > feedLimit {
		entries = entries[:feedLimit]
	}
	return entries
}

// Analytics は分析タブの集計値。
type Analytics struct {
	TotalBooks    int
	TotalReads    int
	TotalLikes    int
	AverageRating float64
	TopBooks      []model.Book
}

// topBooksLimit は分析タブの人気書籍の表示件数。
const topBooksLimit = 5

// Analyze は書籍コレクションの分析値を計算する。
// 平均評価は評価が付いた書籍（rating > 0）だけで計算する。
func Analyze(books []model.Book) Analytics {
	a := Analytics{TotalBooks: len(books)}
	ratingSum := 0.0
	rated := 0
	for _, b := range books {
		a.TotalReads += b.Reads
		a.TotalLikes += b.Likes
		if b.Rating > 0 {
			ratingSum += b.Rating
			rated++
		}
	}
	if rated > 0 {
		a.AverageRating = ratingSum / float64(rated)
	}

	top := make([]model.Book, len(books))
	copy(top, books)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Reads > top[j].Reads
	})
	if len(top) > topBooksLimit {
		top = top[:topBooksLimit]
	}
	a.TopBooks = top
	return a
}
