// Package notice はフラッシュ通知（トースト）のキューを提供する。
// ワークフロー側が積み、次のページ描画時にまとめて取り出して表示する。
package notice

import "sync"

// Level は通知の種別を表す。
type Level string

const (
	// LevelSuccess は成功通知。
	LevelSuccess Level = "success"
	// LevelError はエラー通知。
	LevelError Level = "error"
	// LevelInfo は情報通知。
	LevelInfo Level = "info"
)

// Notice は1件のフラッシュ通知。
type Notice struct {
	Level   Level
	Message string
}

// Queue はセッション単位の通知キュー。並行アクセスに対して安全。
type Queue struct {
	mu      sync.Mutex
	pending []Notice
}

// NewQueue は空のQueueを生成する。
func NewQueue() *Queue {
	return &Queue{}
}

// Push は通知をキューの末尾へ追加する。
func (q *Queue) Push(level Level, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, Notice{Level: level, Message: message})
}

// Success は成功通知を追加する。
func (q *Queue) Success(message string) { q.Push(LevelSuccess, message) }

// Error はエラー通知を追加する。
func (q *Queue) Error(message string) { q.Push(LevelError, message) }

// Info は情報通知を追加する。
func (q *Queue) Info(message string) { q.Push(LevelInfo, message) }

// Drain は積まれた通知を積んだ順で返し、キューを空にする。
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.pending
	q.pending = nil
	return drained
}

// Len は積まれている通知の件数を返す。
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
