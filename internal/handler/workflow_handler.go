package handler

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/miyobam/myb/internal/payments"
	"github.com/miyobam/myb/internal/router"
)

// ToggleLike は書籍のいいねを切り替える。匿名セッションでも使える。
// いいね済みリストはセッションに持ち、設定ストアへも保存する。
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	bookID := chi.URLParam(r, "bookID")
	ctx := h.backendContext(r, state)

	book, err := h.catalog.GetBook(ctx, bookID)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageLibrary))
		return
	}

	liked := state.HasLiked(bookID)
	if _, err := h.catalog.ToggleLike(ctx, book, liked); err != nil {
		h.fail(state, err)
		h.redirect(w, r, "book/"+bookID)
		return
	}

	if liked {
		state.RemoveLiked(bookID)
		state.Notices().Info("Removed from your favorites.")
	} else {
		state.AddLiked(bookID)
		state.Notices().Success("Added to your favorites!")
	}
	h.savePreferences(r, state)

	h.redirect(w, r, "book/"+bookID)
}

// Purchase は書籍を購入する。カード決済は即時確定、モバイルマネーは
// 決済ワーカーの清算を待つペンディング状態で受け付ける。
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	bookID := chi.URLParam(r, "bookID")

	user := state.User()
	if user == nil {
		state.Notices().Error("Please sign in to purchase books.")
		h.redirect(w, r, "book/"+bookID)
		return
	}

	ctx := h.backendContext(r, state)
	book, err := h.catalog.GetBook(ctx, bookID)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageLibrary))
		return
	}
	if book.Price <= 0 {
		state.Notices().Info("This book is free to read.")
		h.redirect(w, r, "book/"+bookID)
		return
	}

	method := r.PostFormValue("method")
	switch method {
	case payments.ProviderMTN, payments.ProviderAirtel:
		phone := strings.TrimSpace(r.PostFormValue("phone"))
		if phone == "" {
			state.Notices().Error("Enter the phone number to charge.")
			h.redirect(w, r, "book/"+bookID)
			return
		}
		if _, err := h.payments.PurchaseMobile(ctx, *user, *book, method, phone); err != nil {
			h.fail(state, err)
			h.redirect(w, r, "book/"+bookID)
			return
		}
		if h.metrics != nil {
			h.metrics.RecordPurchase(method)
		}
		state.Notices().Info("Payment request sent to your phone. The book unlocks once the payment settles.")

	default:
		if _, err := h.payments.PurchaseCard(ctx, *user, *book); err != nil {
			h.fail(state, err)
			h.redirect(w, r, "book/"+bookID)
			return
		}
		if h.metrics != nil {
			h.metrics.RecordPurchase("card")
		}
		state.AddPurchased(bookID)
		state.Notices().Success("Purchase complete! \"" + book.Title + "\" is now in your library.")
	}

	h.redirect(w, r, "book/"+bookID)
}

// ToggleTheme はライト/ダークテーマを切り替えて元のページへ戻る。
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	state.ToggleTheme()
	h.savePreferences(r, state)
	h.redirectBack(w, r)
}

// CreateForumPost は新しいスレッドを投稿する。
func (h *Handler) CreateForumPost(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)

	user := state.User()
	if user == nil {
		state.Notices().Error("Please sign in to join the discussion.")
		h.redirect(w, r, string(router.PageForum))
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	content := strings.TrimSpace(r.PostFormValue("content"))
	category := r.PostFormValue("category")
	if !slices.Contains(forumCategories, category) {
		category = forumCategories[0]
	}
	if title == "" || content == "" {
		state.Notices().Error("Give your thread a title and some content.")
		h.redirect(w, r, string(router.PageForum))
		return
	}

	ctx := h.backendContext(r, state)
	if _, err := h.forum.CreatePost(ctx, title, category, content, user.Username); err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageForum))
		return
	}

	state.Notices().Success("Thread posted!")
	h.redirect(w, r, string(router.PageForum)+"?category="+url.QueryEscape(category))
}

// Subscribe はニュースレターの購読を受け付ける。
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)

	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" || !strings.Contains(email, "@") {
		state.Notices().Error("Enter a valid email address.")
		h.redirect(w, r, string(router.PageContact))
		return
	}

	ctx := h.backendContext(r, state)
	if err := h.forum.Subscribe(ctx, email); err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageContact))
		return
	}

	state.Notices().Success("You're subscribed! Watch your inbox.")
	h.redirect(w, r, string(router.PageContact))
}

// Vote はコンテストのエントリ作品へ投票する。ユーザーごとに一票で、
// 再投票は投票先の変更として扱われる。
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	contestID := chi.URLParam(r, "contestID")

	user := state.User()
	if user == nil {
		state.Notices().Error("Please sign in to vote.")
		h.redirect(w, r, string(router.PageContests))
		return
	}

	storyID := r.PostFormValue("story_id")
	if storyID == "" {
		state.Notices().Error("Pick a story to vote for.")
		h.redirect(w, r, string(router.PageContests))
		return
	}

	ctx := h.backendContext(r, state)
	contest, err := h.contests.GetContest(ctx, contestID)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageContests))
		return
	}

	if err := h.contests.Vote(ctx, contest, user.ID, storyID); err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageContests))
		return
	}

	state.Notices().Success("Vote recorded. Good luck to your pick!")
	h.redirect(w, r, string(router.PageContests))
}

// redirectBack はリファラのページへ戻る。外部URLには戻らない。
func (h *Handler) redirectBack(w http.ResponseWriter, r *http.Request) {
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		http.Redirect(w, r, ref.Path, http.StatusSeeOther)
		return
	}
	h.redirect(w, r, string(router.PageHome))
}
