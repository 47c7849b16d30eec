// Package router はページ遷移の解決とアクセスガードを提供する。
// ブラウザ版のURLフラグメント（#book/<id> など）の形式をそのまま受け付ける。
package router

import (
	"strconv"
	"strings"

	"github.com/miyobam/myb/internal/model"
)

// Page は遷移先ページを表す。
type Page string

const (
	PageHome        Page = "home"
	PageLibrary     Page = "library"
	PageMyLibrary   Page = "mylibrary"
	PageProfile     Page = "profile"
	PageBookDetail  Page = "book"
	PageReader      Page = "read"
	PagePDFLibrary  Page = "pdf-library"
	PageUploadStory Page = "upload-story"
	PageForum       Page = "forum"
	PageContests    Page = "contests"
	PageMessages    Page = "messages"
	PageCommunity   Page = "community"
	PageHelp        Page = "help"
	PageFAQ         Page = "faq"
	PageContact     Page = "contact"
	PageAdmin       Page = "admin"
)

// AdminTab は管理コンソールのサブページ。
type AdminTab string

const (
	AdminDashboard AdminTab = "dashboard"
	AdminApprove   AdminTab = "approve"
	AdminPDFManage AdminTab = "pdf-manage"
	AdminUsers     AdminTab = "users"
	AdminReports   AdminTab = "reports"
	AdminMessages  AdminTab = "messages"
	AdminContests  AdminTab = "contests"
	AdminAnalytics AdminTab = "analytics"
	AdminSettings  AdminTab = "settings"
)

// adminTabs は有効な管理サブページのセット。
var adminTabs = map[AdminTab]bool{
	AdminDashboard: true,
	AdminApprove:   true,
	AdminPDFManage: true,
	AdminUsers:     true,
	AdminReports:   true,
	AdminMessages:  true,
	AdminContests:  true,
	AdminAnalytics: true,
	AdminSettings:  true,
}

// simplePages はパラメータを持たないページのセット。
var simplePages = map[Page]bool{
	PageHome:        true,
	PageLibrary:     true,
	PageMyLibrary:   true,
	PageProfile:     true,
	PagePDFLibrary:  true,
	PageUploadStory: true,
	PageForum:       true,
	PageContests:    true,
	PageMessages:    true,
	PageCommunity:   true,
	PageHelp:        true,
	PageFAQ:         true,
	PageContact:     true,
}

// Route は解決済みの遷移先。
type Route struct {
	Page     Page
	BookID   string   // book/read ページのみ
	Chapter  int      // readページのみ。省略・非数値は1
	AdminTab AdminTab // adminページのみ
}

// Resolve はURLフラグメントを遷移先に解決する。
// 未知のフラグメントはホームに解決する。
func Resolve(fragment string) Route {
	fragment = strings.TrimPrefix(fragment, "#")
	fragment = strings.Trim(fragment, "/")
	if fragment == "" {
		return Route{Page: PageHome}
	}

	parts := strings.Split(fragment, "/")
	head := parts[0]

	switch {
	case head == "book" && len(parts) >= 2 && parts[1] != "":
		return Route{Page: PageBookDetail, BookID: parts[1]}

	case head == "read" && len(parts) >= 2 && parts[1] != "":
		chapter := 1
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil && n >= 1 {
				chapter = n
			}
		}
		return Route{Page: PageReader, BookID: parts[1], Chapter: chapter}

	case head == "admin":
		return Route{Page: PageAdmin, AdminTab: AdminDashboard}

	case strings.HasPrefix(head, "admin-"):
		tab := AdminTab(strings.TrimPrefix(head, "admin-"))
		if adminTabs[tab] {
			return Route{Page: PageAdmin, AdminTab: tab}
		}
		return Route{Page: PageHome}
	}

	if page := Page(head); simplePages[page] {
		return Route{Page: page}
	}
	return Route{Page: PageHome}
}

// signInMessages はサインイン必須ページの案内文。
var signInMessages = map[Page]string{
	PageMyLibrary: "Please sign in to view your library",
	PageMessages:  "Please sign in to view your messages",
}

// Guard は遷移先へのアクセス可否を判定する。
// 管理ページは管理者必須で、満たさない場合はホームへ書き換えてエラーを返す。
// サインイン必須ページは遷移先を変えずにエラーだけを返す（ページ側が
// ログイン案内を表示する）。ガード失敗は必ず通知として可視化される。
func Guard(route Route, session *model.Session) (Route, *model.APIError) {
	if route.Page == PageAdmin {
		if !session.IsAdmin() {
			return Route{Page: PageHome}, model.NewAdminRequiredError()
		}
		return route, nil
	}
	if message, ok := signInMessages[route.Page]; ok && session == nil {
		return route, model.NewUnauthorizedError(message)
	}
	return route, nil
}
