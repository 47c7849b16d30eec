package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/notice"
	"github.com/miyobam/myb/internal/security"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(security.NewContentSanitizer())
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return r
}

func testPage(active string) Page {
	return Page{
		Title:     "Test",
		Active:    active,
		Theme:     model.ThemeLight,
		CSRFToken: "tok-123",
	}
}

// TestRender_Home はホームページに書籍タイトルとジャンルが描画されることを検証する。
func TestRender_Home(t *testing.T) {
	r := newTestRenderer(t)

	data := HomeData{
		Page: testPage("home"),
		Featured: []model.Book{
			{ID: "b-1", Title: "The Silent River", Author: "Aisha Phiri", Genre: "Drama", Reads: 1500},
		},
		Trending: []model.Book{
			{ID: "b-2", Title: "Copper Sunrise", Author: "John Banda", Genre: "Romance", Reads: 2400},
		},
		Genres:     []GenreCard{{Name: "Drama", Count: 3}, {Name: "Romance", Count: 2}},
		TotalBooks: 5,
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, "home", data); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"The Silent River", "Copper Sunrise", "1.5K reads", "Drama", "5 books"} {
		if !strings.Contains(out, want) {
			t.Errorf("home page should contain %q", want)
		}
	}
}

// TestRender_BookOfWeekBanner は今週のおすすめバナーが描画されることを検証する。
func TestRender_BookOfWeekBanner(t *testing.T) {
	r := newTestRenderer(t)

	data := HomeData{
		Page: testPage("home"),
		BookOfWeek: &BookOfWeekBanner{
			Book:        model.Book{ID: "b-1", Title: "The Silent River", Author: "Aisha Phiri"},
			Description: r.SafeHTML("A haunting story of loss."),
		},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, "home", data); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Book of the Week") {
		t.Error("home page should contain the book of the week banner")
	}
	if !strings.Contains(out, "A haunting story of loss.") {
		t.Error("banner should contain the description")
	}
}

// TestRender_BookDetail_SanitizesSynopsis はあらすじのスクリプトが除去されることを検証する。
func TestRender_BookDetail_SanitizesSynopsis(t *testing.T) {
	r := newTestRenderer(t)

	data := BookDetailData{
		Page:     testPage("book"),
		Book:     model.Book{ID: "b-1", Title: "The Silent River", Price: 0},
		Synopsis: r.SafeHTML(`<p>Good story.</p><script>alert("xss")</script>`),
		Chapters: []model.Chapter{
			{ID: "c-1", BookID: "b-1", ChapterNumber: 1, Title: "Beginnings", WordCount: 1200},
		},
		ContinueChapter: 1,
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, "book", data); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Error("synopsis script tag should be removed")
	}
	if !strings.Contains(out, "Good story.") {
		t.Error("synopsis text should survive sanitization")
	}
	if !strings.Contains(out, "Beginnings") {
		t.Error("chapter list should be rendered")
	}
}

// TestRender_Reader_SplitsParagraphs は章本文が段落に分割されることを検証する。
func TestRender_Reader_SplitsParagraphs(t *testing.T) {
	r := newTestRenderer(t)

	data := ReaderData{
		Page:          testPage("read"),
		Book:          model.Book{ID: "b-1", Title: "The Silent River"},
		Chapter:       model.Chapter{ChapterNumber: 2, Title: "The Crossing"},
		Paragraphs:    r.Paragraphs("First paragraph.\n\nSecond paragraph."),
		HasPrev:       true,
		PrevChapter:   1,
		HasNext:       true,
		NextChapter:   3,
		TotalChapters: 5,
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, "reader", data); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<p>First paragraph.</p>") {
		t.Error("first paragraph should be wrapped in <p>")
	}
	if !strings.Contains(out, "<p>Second paragraph.</p>") {
		t.Error("second paragraph should be wrapped in <p>")
	}
	if !strings.Contains(out, "Chapter 2: The Crossing") {
		t.Error("chapter heading should be rendered")
	}
	if !strings.Contains(out, "2 / 5") {
		t.Error("chapter position should be rendered")
	}
}

// TestRender_Contests_HidesVoteButtonAfterVoting は投票済みコンテストで
// 投票ボタンが消えることを検証する。
func TestRender_Contests_HidesVoteButtonAfterVoting(t *testing.T) {
	r := newTestRenderer(t)

	page := testPage("contests")
	page.SignedIn = true

	card := ContestCard{
		Contest: model.Contest{ID: "contest-1", Title: "Summer Story Contest", EndDate: time.Now().Add(24 * time.Hour)},
		Entries: []ContestEntry{
			{StoryID: "story-a", Title: "The River", Votes: 2},
			{StoryID: "story-b", Title: "The Mountain", Votes: 1},
		},
		TotalVotes: 3,
	}

	// 未投票: 投票ボタンあり
	var before bytes.Buffer
	if err := r.Render(&before, "contests", ContestsData{Page: page, Contests: []ContestCard{card}}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(before.String(), ">Vote<") {
		t.Error("vote buttons should be shown before voting")
	}

	// 投票済み: ボタンが消え、投票先に印が付く
	card.VotedFor = "story-a"
	var after bytes.Buffer
	if err := r.Render(&after, "contests", ContestsData{Page: page, Contests: []ContestCard{card}}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(after.String(), ">Vote<") {
		t.Error("vote buttons should be hidden after voting")
	}
	if !strings.Contains(after.String(), "Your vote") {
		t.Error("the voted entry should be marked")
	}
}

// TestRender_Notices はフラッシュ通知がページ上部に描画されることを検証する。
func TestRender_Notices(t *testing.T) {
	r := newTestRenderer(t)

	page := testPage("home")
	page.Notices = []notice.Notice{
		{Level: notice.LevelSuccess, Message: "Signed out successfully"},
		{Level: notice.LevelError, Message: "Invalid email or password"},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, "home", HomeData{Page: page}); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Signed out successfully") {
		t.Error("success notice should be rendered")
	}
	if !strings.Contains(out, "notice-error") {
		t.Error("error notice should carry its level class")
	}
}

// TestRender_AllTemplatesParse は全ページテンプレートが最小のデータで描画できることを検証する。
func TestRender_AllTemplatesParse(t *testing.T) {
	r := newTestRenderer(t)

	cases := []struct {
		name string
		data any
	}{
		{"home", HomeData{Page: testPage("home")}},
		{"library", LibraryData{Page: testPage("library")}},
		{"book", BookDetailData{Page: testPage("book"), ContinueChapter: 1}},
		{"reader", ReaderData{Page: testPage("read"), TotalChapters: 1}},
		{"mylibrary", MyLibraryData{Page: testPage("mylibrary"), Tab: "reading"}},
		{"profile", ProfileData{Page: testPage("profile")}},
		{"pdf_library", PDFLibraryData{Page: testPage("pdf-library")}},
		{"upload_story", UploadStoryData{Page: testPage("upload-story"), MaxSizeMB: 50}},
		{"forum", ForumData{Page: testPage("forum")}},
		{"contests", ContestsData{Page: testPage("contests")}},
		{"static", StaticData{Page: testPage("help"), Heading: "Help"}},
		{"admin_dashboard", AdminDashboardData{Page: testPage("admin")}},
		{"admin_approve", AdminApproveData{Page: testPage("admin")}},
		{"admin_manage", AdminManageData{Page: testPage("admin")}},
		{"admin_users", AdminUsersData{Page: testPage("admin")}},
		{"admin_reports", AdminReportsData{Page: testPage("admin")}},
		{"admin_contests", AdminContestsData{Page: testPage("admin")}},
		{"admin_analytics", AdminAnalyticsData{Page: testPage("admin")}},
		{"admin_settings", AdminSettingsData{Page: testPage("admin")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Render(&buf, tc.name, tc.data); err != nil {
				t.Fatalf("render %s failed: %v", tc.name, err)
			}
			if buf.Len() == 0 {
				t.Errorf("%s rendered empty output", tc.name)
			}
		})
	}
}
