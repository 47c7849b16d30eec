package session

import "sync"

// Store はセッションIDごとのStateを保持するインメモリストア。
// セッション行と設定の永続化はrepository側が担い、ここはプロセス内キャッシュに徹する。
type Store struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{
		states: make(map[string]*State),
	}
}

// Get は指定セッションIDのStateを返す。存在しない場合は初期状態を生成する。
func (s *Store) Get(id string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		state = NewState(id)
		s.states[id] = state
	}
	return state
}

// Delete は指定セッションIDのStateを破棄する。
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
}

// Len は保持しているセッション数を返す。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
