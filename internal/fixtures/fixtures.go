// Package fixtures はバックエンド未接続時に使うデモデータを提供する。
// 書籍カタログと初期アカウントのみ。他のコレクションは空にフォールバックする。
package fixtures

import (
	"time"

	"github.com/miyobam/myb/internal/model"
)

// DemoUsers は組み込みデモアカウントを返す。
// 外部認証もローカル登録ユーザーも照合に失敗したとき、最後にこのリストと照合する。
func DemoUsers() []model.User {
	return []model.User{
		{
			ID:         "admin-001",
			Username:   "Admin",
			Email:      "miyobamhamalila@gmail.com",
			Password:   "2019",
			Role:       model.RoleAdmin,
			IsVerified: true,
			JoinedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Bio:        "Platform Administrator",
		},
		{
			ID:             "demo-user-001",
			Username:       "BookLover",
			Email:          "demo@example.com",
			Password:       "demo123",
			Role:           model.RoleUser,
			FollowersCount: 15,
			FollowingCount: 23,
			PostsCount:     5,
			IsVerified:     true,
			JoinedDate:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			Bio:            "Avid reader and book enthusiast",
		},
		{
			ID:             "demo-user-002",
			Username:       "StoryTeller",
			Email:          "story@example.com",
			Password:       "story123",
			Role:           model.RoleUser,
			FollowersCount: 8,
			FollowingCount: 12,
			PostsCount:     3,
			IsVerified:     false,
			JoinedDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Bio:            "Aspiring writer sharing my stories",
		},
	}
}

// DemoBooks はデモ書籍カタログを返す。
func DemoBooks() []model.Book {
	return []model.Book{
		{
			ID:            "demo-1",
			Title:         "The Lost Kingdom",
			Author:        "Sarah Mitchell",
			Genre:         "Fantasy",
			CoverURL:      "https://via.placeholder.com/200x300?text=The+Lost+Kingdom",
			Synopsis:      "In a world where magic is fading, one young warrior must embark on a quest to restore the ancient powers before darkness consumes everything.",
			Price:         4.99,
			Rating:        4.8,
			Reads:         12500,
			Likes:         890,
			Featured:      true,
			Status:        "completed",
			PublishedDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Tags:          []string{"fantasy", "adventure", "magic"},
		},
		{
			ID:            "demo-2",
			Title:         "Shadows of the Past",
			Author:        "Michael Reynolds",
			Genre:         "Mystery",
			CoverURL:      "https://via.placeholder.com/200x300?text=Shadows+of+the+Past",
			Synopsis:      "A detective uncovers a conspiracy that reaches the highest levels of power, threatening to expose secrets that have been buried for decades.",
			Price:         3.99,
			Rating:        4.6,
			Reads:         8900,
			Likes:         654,
			Featured:      false,
			Status:        "completed",
			PublishedDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Tags:          []string{"mystery", "thriller", "conspiracy"},
		},
		{
			ID:            "demo-3",
			Title:         "Digital Dreams",
			Author:        "Emma Chen",
			Genre:         "Sci-Fi",
			CoverURL:      "https://via.placeholder.com/200x300?text=Digital+Dreams",
			Synopsis:      "In a future where humans and AI coexist, one programmer discovers that the line between reality and virtual worlds is thinner than anyone imagined.",
			Price:         5.49,
			Rating:        4.9,
			Reads:         15600,
			Likes:         1200,
			Featured:      true,
			Status:        "ongoing",
			PublishedDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			Tags:          []string{"sci-fi", "technology", "artificial intelligence"},
		},
		{
			ID:            "demo-4",
			Title:         "Hearts Entwined",
			Author:        "Jessica Parker",
			Genre:         "Romance",
			CoverURL:      "https://via.placeholder.com/200x300?text=Hearts+Entwined",
			Synopsis:      "Two rival chefs are forced to work together when their restaurants are merged, leading to unexpected sparks and culinary delights.",
			Price:         3.49,
			Rating:        4.7,
			Reads:         11200,
			Likes:         980,
			Featured:      false,
			Status:        "completed",
			PublishedDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			Tags:          []string{"romance", "contemporary", "food"},
		},
		{
			ID:            "demo-5",
			Title:         "The Forgotten City",
			Author:        "David Thompson",
			Genre:         "Adventure",
			CoverURL:      "https://via.placeholder.com/200x300?text=The+Forgotten+City",
			Synopsis:      "An archaeologist discovers an ancient city that holds secrets about humanity's origins, but awakening these secrets comes at a terrible cost.",
			Price:         4.49,
			Rating:        4.5,
			Reads:         7800,
			Likes:         567,
			Featured:      false,
			Status:        "completed",
			PublishedDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			Tags:          []string{"adventure", "archaeology", "ancient history"},
		},
		{
			ID:            "demo-6",
			Title:         "Whispers in the Dark",
			Author:        "Rachel Blackwood",
			Genre:         "Horror",
			CoverURL:      "https://via.placeholder.com/200x300?text=Whispers+in+the+Dark",
			Synopsis:      "A family moves into an old Victorian house, only to discover that some residents never truly leave. The whispers start softly, but they grow louder...",
			Price:         3.99,
			Rating:        4.4,
			Reads:         9200,
			Likes:         743,
			Featured:      false,
			Status:        "completed",
			PublishedDate: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
			Tags:          []string{"horror", "supernatural", "ghosts"},
		},
	}
}

// DemoBookOfWeekDescription はデモの今週のおすすめに付ける紹介文。
const DemoBookOfWeekDescription = "This week's featured story - a captivating tale that will keep you turning pages!"

// DemoBookOfWeek はデモの今週のおすすめを返す。
// featured書籍を優先し、なければカタログ先頭を選ぶ。候補がなければnilを返す。
func DemoBookOfWeek(books []model.Book, now time.Time) *model.BookOfWeek {
	var pick *model.Book
	for i := range books {
		if books[i].Featured {
			pick = &books[i]
			break
		}
	}
	if pick == nil && len(books) > 0 {
		pick = &books[0]
	}
	if pick == nil {
		return nil
	}
	return &model.BookOfWeek{
		BookID:      pick.ID,
		WeekStart:   now,
		WeekEnd:     now.Add(7 * 24 * time.Hour),
		Description: DemoBookOfWeekDescription,
	}
}
