package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/miyobam/myb/internal/activity"
	"github.com/miyobam/myb/internal/catalog"
	"github.com/miyobam/myb/internal/library"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/router"
	"github.com/miyobam/myb/internal/session"
	"github.com/miyobam/myb/internal/view"
)

// forumCategories はフォーラムの固定カテゴリ一覧。
var forumCategories = []string{"General", "Book Discussions", "Writing Tips", "Announcements"}

// staticPages は静的ページの見出しと本文。
var staticPages = map[router.Page]view.StaticData{
	router.PageMessages: {
		Heading: "Messages",
		Body:    "Direct messages are coming soon. Stay tuned!",
	},
	router.PageCommunity: {
		Heading: "Community",
		Body:    "Join fellow readers and writers in the forum and contests.",
	},
	router.PageHelp: {
		Heading: "Help Center",
		Body:    "Browse books in the library, purchase with card or mobile money, and read right in your browser.",
	},
	router.PageFAQ: {
		Heading: "Frequently Asked Questions",
		Body:    "Purchased books stay in your library forever. PDF stories are reviewed by our team before publication.",
	},
	router.PageContact: {
		Heading: "Contact Us",
		Body:    "Questions or feedback? Reach us at hello@myb.example — or subscribe to our newsletter below.",
	},
}

// ServePage は全ページのGETリクエストを処理する。
// パスをページルートへ解決し、権限ガードを通してから各ページを描画する。
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	h.hydrate(r, state)

	route := router.Resolve(r.URL.Path)
	route, guardErr := router.Guard(route, h.sessionOf(state))
	if guardErr != nil {
		state.Notices().Error(guardErr.Message)
	}

	switch route.Page {
	case router.PageHome:
		h.renderHome(w, r, state)
	case router.PageLibrary:
		h.renderLibrary(w, r, state)
	case router.PageBookDetail:
		h.renderBook(w, r, state, route.BookID)
	case router.PageReader:
		h.renderReader(w, r, state, route.BookID, route.Chapter)
	case router.PageMyLibrary:
		h.renderMyLibrary(w, r, state)
	case router.PageProfile:
		h.renderProfile(w, r, state)
	case router.PagePDFLibrary:
		h.renderPDFLibrary(w, r, state)
	case router.PageUploadStory:
		h.renderUploadStory(w, r, state)
	case router.PageForum:
		h.renderForum(w, r, state)
	case router.PageContests:
		h.renderContests(w, r, state)
	case router.PageAdmin:
		h.renderAdmin(w, r, state, route.AdminTab)
	default:
		if static, ok := staticPages[route.Page]; ok {
			static.Page = h.page(r, state, static.Heading, route.Page)
			h.render(w, "static", static)
			return
		}
		h.renderHome(w, r, state)
	}
}

func (h *Handler) renderHome(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.HomeData{Page: h.page(r, state, "Home", router.PageHome)}

	books, err := h.catalog.ListBooks(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "home", data)
		return
	}

	data.Featured = h.catalog.Featured(books)
	data.Trending = h.catalog.Trending(books)
	data.TotalBooks = len(books)
	for _, g := range h.catalog.Genres(books) {
		data.Genres = append(data.Genres, view.GenreCard{Name: g.Genre, Count: g.Count})
	}

	if book, description := h.catalog.BookOfWeek(ctx, books); book != nil {
		data.BookOfWeek = &view.BookOfWeekBanner{
			Book:        *book,
			Description: h.renderer.SafeHTML(description),
		}
	}

	h.render(w, "home", data)
}

func (h *Handler) renderLibrary(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)
	q := r.URL.Query()

	filter := catalog.Filter{
		Genre:  q.Get("genre"),
		Status: q.Get("status"),
		Search: q.Get("search"),
		Sort:   catalog.SortOrder(q.Get("sort")),
	}

	data := view.LibraryData{
		Page:   h.page(r, state, "Library", router.PageLibrary),
		Genre:  filter.Genre,
		Status: filter.Status,
		Search: filter.Search,
		Sort:   string(filter.Sort),
	}
	if data.Sort == "" {
		data.Sort = string(catalog.SortPopular)
	}

	books, err := h.catalog.ListBooks(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "library", data)
		return
	}

	for _, g := range h.catalog.Genres(books) {
		data.Genres = append(data.Genres, view.GenreCard{Name: g.Genre, Count: g.Count})
	}
	data.Books = h.catalog.FilterBooks(books, filter)

	h.render(w, "library", data)
}

func (h *Handler) renderBook(w http.ResponseWriter, r *http.Request, state *session.State, bookID string) {
	ctx := h.backendContext(r, state)

	book, err := h.catalog.GetBook(ctx, bookID)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageLibrary))
		return
	}

	// 閲覧数はread-modify-writeで加算する。競合による取りこぼしは許容し、
	// 失敗してもページは表示する。
	if err := h.catalog.IncrementReads(ctx, book); err != nil {
		h.fail(state, err)
	}

	chapters, err := h.catalog.Chapters(ctx, bookID)
	if err != nil {
		h.fail(state, err)
	}

	h.refreshLibrary(r, state)

	continueChapter := 1
	if p, ok := state.Progress(bookID); ok && p.CurrentChapter > 0 {
		continueChapter = p.CurrentChapter
	}

	data := view.BookDetailData{
		Page:            h.page(r, state, book.Title, router.PageBookDetail),
		Book:            *book,
		Synopsis:        h.renderer.SafeHTML(book.Synopsis),
		Chapters:        chapters,
		Purchased:       state.HasPurchased(bookID),
		Liked:           state.HasLiked(bookID),
		ContinueChapter: continueChapter,
	}
	h.render(w, "book", data)
}

func (h *Handler) renderReader(w http.ResponseWriter, r *http.Request, state *session.State, bookID string, chapter int) {
	ctx := h.backendContext(r, state)

	book, err := h.catalog.GetBook(ctx, bookID)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PageLibrary))
		return
	}

	chapters, err := h.catalog.Chapters(ctx, bookID)
	if err != nil || len(chapters) == 0 {
		if err != nil {
			h.fail(state, err)
		} else {
			state.Notices().Info("This book has no chapters yet.")
		}
		h.redirect(w, r, "book/"+bookID)
		return
	}

	// 有料書籍は購入済みのみ閲覧できる
	h.refreshLibrary(r, state)
	if book.Price > 0 && !state.HasPurchased(bookID) {
		state.Notices().Error("Purchase this book to start reading.")
		h.redirect(w, r, "book/"+bookID)
		return
	}

	if chapter < 1 {
		chapter = 1
	}
	if chapter > len(chapters) {
		chapter = len(chapters)
	}
	current := chapters[chapter-1]

	// サインイン済みなら読書位置を保存する
	if user := state.User(); user != nil {
		knownID := ""
		if p, ok := state.Progress(bookID); ok {
			knownID = p.ID
		}
		id, err := h.library.SaveProgress(ctx, user.ID, bookID, current.ChapterNumber, knownID)
		if err != nil {
			h.fail(state, err)
		} else {
			p, _ := state.Progress(bookID)
			p.ID = id
			p.UserID = user.ID
			p.BookID = bookID
			p.CurrentChapter = current.ChapterNumber
			state.SetProgress(p)
		}
	}

	data := view.ReaderData{
		Page:          h.page(r, state, book.Title, router.PageReader),
		Book:          *book,
		Chapter:       current,
		Paragraphs:    h.renderer.Paragraphs(current.Content),
		HasPrev:       chapter > 1,
		HasNext:       chapter < len(chapters),
		PrevChapter:   chapter - 1,
		NextChapter:   chapter + 1,
		TotalChapters: len(chapters),
	}
	h.render(w, "reader", data)
}

func (h *Handler) renderMyLibrary(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	tab := r.URL.Query().Get("tab")
	if tab != "purchased" && tab != "favorites" {
		tab = "reading"
	}

	data := view.MyLibraryData{
		Page: h.page(r, state, "My Library", router.PageMyLibrary),
		Tab:  tab,
	}

	user := state.User()
	if user == nil {
		h.render(w, "mylibrary", data)
		return
	}

	books, err := h.catalog.ListBooks(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "mylibrary", data)
		return
	}

	h.refreshLibrary(r, state)

	progress, err := h.library.LoadProgress(ctx, user.ID)
	if err != nil {
		h.fail(state, err)
	}
	for _, entry := range library.ReadingEntries(books, progress) {
		data.Reading = append(data.Reading, view.ReadingCard{
			Book:           entry.Book,
			CurrentChapter: entry.Progress.CurrentChapter,
			LastRead:       entry.Progress.LastRead,
		})
	}

	data.Purchased = library.BooksByIDs(books, state.PurchasedBooks())
	data.Favorites = library.BooksByIDs(books, state.LikedBooks())

	h.render(w, "mylibrary", data)
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, state *session.State) {
	data := view.ProfileData{Page: h.page(r, state, "Profile", router.PageProfile)}

	user := state.User()
	if user == nil {
		h.render(w, "profile", data)
		return
	}

	ctx := h.backendContext(r, state)
	h.refreshLibrary(r, state)

	progress, err := h.library.LoadProgress(ctx, user.ID)
	if err != nil {
		h.fail(state, err)
	}

	data.User = *user
	data.Bio = h.renderer.SafeHTML(user.Bio)
	data.ReadingCount = len(progress)
	data.PurchasedCount = len(state.PurchasedBooks())

	h.render(w, "profile", data)
}

func (h *Handler) renderPDFLibrary(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.PDFLibraryData{Page: h.page(r, state, "PDF Stories", router.PagePDFLibrary)}

	all, err := h.stories.ListStories(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "pdf_library", data)
		return
	}

	ratings, err := h.stories.RatingSummaries(ctx)
	if err != nil {
		h.fail(state, err)
	}

	data.Stories = h.storyCards(h.stories.ApprovedStories(all), ratings)
	h.render(w, "pdf_library", data)
}

func (h *Handler) renderUploadStory(w http.ResponseWriter, r *http.Request, state *session.State) {
	data := view.UploadStoryData{
		Page:      h.page(r, state, "Share Your Story", router.PageUploadStory),
		MaxSizeMB: h.config.UploadMaxSize / (1024 * 1024),
	}
	h.render(w, "upload_story", data)
}

func (h *Handler) renderForum(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)
	category := r.URL.Query().Get("category")

	data := view.ForumData{
		Page:       h.page(r, state, "Forum", router.PageForum),
		Category:   category,
		Categories: forumCategories,
	}

	posts, err := h.forum.ListPosts(ctx, category)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "forum", data)
		return
	}

	for _, p := range posts {
		data.Posts = append(data.Posts, view.PostCard{
			Post:    p,
			Content: h.renderer.SafeHTML(p.Content),
		})
	}
	h.render(w, "forum", data)
}

func (h *Handler) renderContests(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.ContestsData{Page: h.page(r, state, "Contests", router.PageContests)}

	contests, err := h.contests.ListContests(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "contests", data)
		return
	}

	all, err := h.stories.ListStories(ctx)
	if err != nil {
		h.fail(state, err)
	}

	userID := ""
	if user := state.User(); user != nil {
		userID = user.ID
	}
	data.Contests = h.contestCards(contests, all, userID)

	h.render(w, "contests", data)
}

// refreshLibrary は購入済みリストをバックエンドから再読込してセッションへ反映する。
// 未サインインでは何もしない。失敗はログのみで、手元のリストを使い続ける。
func (h *Handler) refreshLibrary(r *http.Request, state *session.State) {
	user := state.User()
	if user == nil {
		return
	}
	ctx := h.backendContext(r, state)

	purchases, err := h.library.LoadPurchases(ctx, user.ID)
	if err == nil {
		state.SetPurchased(library.PurchasedBookIDs(purchases))
	}
	progress, err := h.library.LoadProgress(ctx, user.ID)
	if err == nil {
		state.SetAllProgress(progress)
	}
}

// storyCards はストーリーへ評価集計とサニタイズ済み説明文を結合する。
func (h *Handler) storyCards(list []model.PDFStory, ratings map[string]model.RatingSummary) []view.StoryCard {
	cards := make([]view.StoryCard, 0, len(list))
	for _, s := range list {
		card := view.StoryCard{
			Story:       s,
			Description: h.renderer.SafeHTML(s.Description),
		}
		if summary, ok := ratings[s.ID]; ok {
			card.RatingAverage = summary.Average
			card.RatingCount = summary.Count
		}
		cards = append(cards, card)
	}
	return cards
}

// contestCards はコンテストへエントリ作品名と得票数を結合する。
func (h *Handler) contestCards(contests []model.Contest, all []model.PDFStory, userID string) []view.ContestCard {
	titles := make(map[string]string, len(all))
	for _, s := range all {
		titles[s.ID] = s.Title
	}

	cards := make([]view.ContestCard, 0, len(contests))
	for _, c := range contests {
		tally := c.VoteTally()
		card := view.ContestCard{
			Contest:    c,
			TotalVotes: c.VoteCount(),
			Ended:      c.Status == model.ContestEnded,
		}
		if userID != "" {
			card.VotedFor = c.VoteBy(userID)
		}
		for _, storyID := range c.Stories {
			title := titles[storyID]
			if title == "" {
				title = storyID
			}
			card.Entries = append(card.Entries, view.ContestEntry{
				StoryID: storyID,
				Title:   title,
				Votes:   tally[storyID],
			})
		}
		cards = append(cards, card)
	}
	return cards
}

// --- 管理コンソール ---

func (h *Handler) renderAdmin(w http.ResponseWriter, r *http.Request, state *session.State, tab router.AdminTab) {
	switch tab {
	case router.AdminApprove:
		h.renderAdminApprove(w, r, state)
	case router.AdminPDFManage:
		h.renderAdminManage(w, r, state)
	case router.AdminUsers:
		h.renderAdminUsers(w, r, state)
	case router.AdminReports:
		h.renderAdminReports(w, r, state)
	case router.AdminMessages:
		h.renderAdminMessages(w, r, state)
	case router.AdminContests:
		h.renderAdminContests(w, r, state)
	case router.AdminAnalytics:
		h.renderAdminAnalytics(w, r, state)
	case router.AdminSettings:
		data := view.AdminSettingsData{Page: h.page(r, state, "Settings", router.PageAdmin)}
		h.render(w, "admin_settings", data)
	default:
		h.renderAdminDashboard(w, r, state)
	}
}

func (h *Handler) renderAdminDashboard(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminDashboardData{Page: h.page(r, state, "Dashboard", router.PageAdmin)}

	users, err := h.activity.ListUsers(ctx)
	if err != nil {
		h.fail(state, err)
	}
	books, err := h.catalog.ListBooks(ctx)
	if err != nil {
		h.fail(state, err)
	}
	all, err := h.stories.ListStories(ctx)
	if err != nil {
		h.fail(state, err)
	}
	reports, err := h.stories.ListReports(ctx)
	if err != nil {
		h.fail(state, err)
	}

	data.Stats = activity.Stats(users, books, all, reports)
	data.Feed = activity.RecentActivity(users, books)
	data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)

	h.render(w, "admin_dashboard", data)
}

func (h *Handler) renderAdminApprove(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminApproveData{Page: h.page(r, state, "Approve PDFs", router.PageAdmin)}

	all, err := h.stories.ListStories(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "admin_approve", data)
		return
	}

	data.Pending = h.storyCards(h.stories.PendingStories(all), nil)
	h.render(w, "admin_approve", data)
}

func (h *Handler) renderAdminManage(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminManageData{Page: h.page(r, state, "Manage PDFs", router.PageAdmin)}

	all, err := h.stories.ListStories(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "admin_manage", data)
		return
	}

	counts := h.stories.StatusCounts(all)
	data.PendingCount = counts[model.StoryPending]
	data.ApprovedCount = counts[model.StoryApproved]
	data.RejectedCount = counts[model.StoryRejected]
	data.Stories = h.storyCards(all, nil)

	h.render(w, "admin_manage", data)
}

func (h *Handler) renderAdminUsers(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminUsersData{Page: h.page(r, state, "Users", router.PageAdmin)}

	users, err := h.activity.ListUsers(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "admin_users", data)
		return
	}

	data.Users = users
	h.render(w, "admin_users", data)
}

func (h *Handler) renderAdminReports(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminReportsData{Page: h.page(r, state, "Reports", router.PageAdmin)}

	reports, err := h.stories.ListReports(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "admin_reports", data)
		return
	}

	all, err := h.stories.ListStories(ctx)
	if err != nil {
		h.fail(state, err)
	}
	titles := make(map[string]string, len(all))
	for _, s := range all {
		titles[s.ID] = s.Title
	}

	for _, report := range reports {
		title := titles[report.StoryID]
		if title == "" {
			title = report.StoryID
		}
		data.Reports = append(data.Reports, view.ReportRow{Report: report, StoryTitle: title})
	}

	h.render(w, "admin_reports", data)
}

func (h *Handler) renderAdminMessages(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminMessagesData{Page: h.page(r, state, "Messages", router.PageAdmin)}

	// ガードを通過済みなので管理者ユーザーが必ずいる
	user := state.User()
	messages, err := h.activity.ListMessages(ctx, user.ID)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "admin_messages", data)
		return
	}

	data.Messages = messages
	data.UnreadCount = activity.UnreadCount(messages)
	h.render(w, "admin_messages", data)
}

func (h *Handler) renderAdminContests(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminContestsData{Page: h.page(r, state, "Contests", router.PageAdmin)}

	contests, err := h.contests.ListContests(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "admin_contests", data)
		return
	}

	all, err := h.stories.ListStories(ctx)
	if err != nil {
		h.fail(state, err)
	}

	data.Contests = h.contestCards(contests, all, "")
	data.Stories = h.stories.ApprovedStories(all)
	sort.SliceStable(data.Stories, func(i, j int) bool {
		return strings.ToLower(data.Stories[i].Title) < strings.ToLower(data.Stories[j].Title)
	})

	h.render(w, "admin_contests", data)
}

func (h *Handler) renderAdminAnalytics(w http.ResponseWriter, r *http.Request, state *session.State) {
	ctx := h.backendContext(r, state)

	data := view.AdminAnalyticsData{Page: h.page(r, state, "Analytics", router.PageAdmin)}

	books, err := h.catalog.ListBooks(ctx)
	if err != nil {
		h.fail(state, err)
		data.Page.Notices = append(data.Page.Notices, state.Notices().Drain()...)
		h.render(w, "admin_analytics", data)
		return
	}

	data.Analytics = activity.Analyze(books)
	h.render(w, "admin_analytics", data)
}
