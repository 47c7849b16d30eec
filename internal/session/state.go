// Package session はブラウザセッションごとのアプリケーション状態を管理する。
// ユーザーのスナップショット、テーマ、お気に入り、購入済みリスト、読書位置キャッシュ、
// メニュー開閉フラグと通知キューを保持する。
package session

import (
	"sync"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/notice"
)

// State は1セッション分の状態。並行アクセスに対して安全。
type State struct {
	mu sync.RWMutex

	id    string
	user  *model.User
	token string

	theme      model.Theme
	likedBooks []string

	purchasedBooks []string
	progress       map[string]model.ReadingProgress

	// ハンバーガーメニューと管理者メニューは同時に開かない
	hamburgerOpen bool
	adminMenuOpen bool

	notices *notice.Queue
}

// NewState は未ログインの初期状態を生成する。テーマはライトで開始する。
func NewState(id string) *State {
	return &State{
		id:       id,
		theme:    model.ThemeLight,
		progress: make(map[string]model.ReadingProgress),
		notices:  notice.NewQueue(),
	}
}

// ID はセッションIDを返す。
func (s *State) ID() string {
	return s.id
}

// SignIn はユーザーをセッションへ載せる。パスワードは必ず除去して保持する。
func (s *State) SignIn(user model.User, token string) {
	stripped := user.WithoutPassword()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &stripped
	s.token = token
}

// SignOut はログイン状態と利用者固有のキャッシュを破棄する。
// テーマとお気に入りはブラウザ設定として残す。
func (s *State) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.purchasedBooks = nil
	s.progress = make(map[string]model.ReadingProgress)
	s.hamburgerOpen = false
	s.adminMenuOpen = false
}

// User はログイン中のユーザーを返す。未ログインの場合はnil。
func (s *State) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token はバックエンド用ベアラートークンを返す。
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn はログイン済みかどうかを返す。
func (s *State) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// IsAdmin はログイン中のユーザーが管理者かどうかを返す。
func (s *State) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin()
}

// Theme は現在のテーマを返す。
func (s *State) Theme() model.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme はテーマを設定する。
func (s *State) SetTheme(theme model.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

// ToggleTheme はライトとダークを切り替え、切り替え後のテーマを返す。
func (s *State) ToggleTheme() model.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == model.ThemeDark {
		s.theme = model.ThemeLight
	} else {
		s.theme = model.ThemeDark
	}
	return s.theme
}

// HasLiked は指定書籍がお気に入り済みかどうかを返す。
func (s *State) HasLiked(bookID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.likedBooks {
		if id == bookID {
			return true
		}
	}
	return false
}

// AddLiked は書籍をお気に入りリストへ追加する。既に含まれている場合は何もしない。
func (s *State) AddLiked(bookID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.likedBooks {
		if id == bookID {
			return
		}
	}
	s.likedBooks = append(s.likedBooks, bookID)
}

// RemoveLiked は書籍をお気に入りリストから外す。
func (s *State) RemoveLiked(bookID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.likedBooks {
		if id == bookID {
			s.likedBooks = append(s.likedBooks[:i], s.likedBooks[i+1:]...)
			return
		}
	}
}

// LikedBooks はお気に入り書籍IDのコピーを追加順で返す。
func (s *State) LikedBooks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.likedBooks))
	copy(out, s.likedBooks)
	return out
}

// SetLikedBooks はお気に入りリストを設定する（設定ストアからの復元用）。
func (s *State) SetLikedBooks(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likedBooks = make([]string, len(ids))
	copy(s.likedBooks, ids)
}

// HasPurchased は指定書籍が購入済みかどうかを返す。
func (s *State) HasPurchased(bookID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.purchasedBooks {
		if id == bookID {
			return true
		}
	}
	return false
}

// AddPurchased は書籍を購入済みリストへ追加する。既に含まれている場合は何もしない。
func (s *State) AddPurchased(bookID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.purchasedBooks {
		if id == bookID {
			return
		}
	}
	s.purchasedBooks = append(s.purchasedBooks, bookID)
}

// SetPurchased は購入済みリストを設定する（バックエンドからの再読込用）。
func (s *State) SetPurchased(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchasedBooks = make([]string, len(ids))
	copy(s.purchasedBooks, ids)
}

// PurchasedBooks は購入済み書籍IDのコピーを返す。
func (s *State) PurchasedBooks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.purchasedBooks))
	copy(out, s.purchasedBooks)
	return out
}

// Progress は指定書籍の読書位置を返す。
func (s *State) Progress(bookID string) (model.ReadingProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[bookID]
	return p, ok
}

// SetProgress は読書位置キャッシュを更新する。
func (s *State) SetProgress(p model.ReadingProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[p.BookID] = p
}

// SetAllProgress は読書位置キャッシュを一括設定する（バックエンドからの再読込用）。
func (s *State) SetAllProgress(list []model.ReadingProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = make(map[string]model.ReadingProgress, len(list))
	for _, p := range list {
		s.progress[p.BookID] = p
	}
}

// OpenHamburger はハンバーガーメニューを開く。管理者メニューは強制的に閉じる。
func (s *State) OpenHamburger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hamburgerOpen = true
	s.adminMenuOpen = false
}

// OpenAdminMenu は管理者メニューを開く。ハンバーガーメニューは強制的に閉じる。
func (s *State) OpenAdminMenu() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminMenuOpen = true
	s.hamburgerOpen = false
}

// CloseMenus は両方のメニューを閉じる。
func (s *State) CloseMenus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hamburgerOpen = false
	s.adminMenuOpen = false
}

// HamburgerOpen はハンバーガーメニューの開閉状態を返す。
func (s *State) HamburgerOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hamburgerOpen
}

// AdminMenuOpen は管理者メニューの開閉状態を返す。
func (s *State) AdminMenuOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminMenuOpen
}

// Notices はこのセッションの通知キューを返す。
func (s *State) Notices() *notice.Queue {
	return s.notices
}
