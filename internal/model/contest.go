package model

import "time"

// ContestStatus はコンテストの開催状態を表す。
type ContestStatus string

const (
	// ContestActive は開催中。投票を受け付ける。
	ContestActive ContestStatus = "active"
	// ContestEnded は終了済み。
	ContestEnded ContestStatus = "ended"
)

// Contest は作品コンテストを表す。
// Votesはuser_id→story_idのマップで、ユーザーあたり1票。
// 再投票はそのユーザーのエントリを上書きする（last-write-wins）。
type Contest struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	StartDate   time.Time         `json:"start_date,omitempty"`
	EndDate     time.Time         `json:"end_date,omitempty"`
	Stories     []string          `json:"stories"`
	Votes       map[string]string `json:"votes,omitempty"`
	Status      ContestStatus     `json:"status"`
}

// VoteCount は総投票数（投票したユーザー数）を返す。
func (c *Contest) VoteCount() int {
	return len(c.Votes)
}

// VoteTally はstory_idごとの得票数を集計して返す。
// 同点時の順位付けは定義しない。生の得票数のみ。
func (c *Contest) VoteTally() map[string]int {
	tally := make(map[string]int, len(c.Stories))
	for _, storyID := range c.Votes {
		tally[storyID]++
	}
	return tally
}

// VoteBy は指定ユーザーの投票先story_idを返す。未投票なら空文字。
func (c *Contest) VoteBy(userID string) string {
	if c.Votes == nil {
		return ""
	}
	return c.Votes[userID]
}

// ForumPost はフォーラムのスレッドを表す。
// likes/repliesカウンタは表示のみで、現状変更APIには接続されていない。
type ForumPost struct {
	ID         string    `json:"id,omitempty"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name,omitempty"`
	Likes      int       `json:"likes"`
	Replies    int       `json:"replies"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
