// Package nav builds the role-dependent navigation menus.
package nav

import (
	"strconv"
	"strings"

	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
)

// Kind tells the renderer how to present a link
type Kind string

const (
	KindLink   Kind = "link"
	KindButton Kind = "button"
	KindText   Kind = "text"
	KindBell   Kind = "bell"
	KindLogout Kind = "logout"
)

// Link is one menu entry. Path is empty for KindText and KindBell; for
// KindLogout it is where the client lands after signing out.
type Link struct {
	Label  string `json:"label"`
	Path   string `json:"path,omitempty"`
	Kind   Kind   `json:"kind"`
	Badge  string `json:"badge,omitempty"`
	Active bool   `json:"active,omitempty"`
}

var browseLinks = []Link{
	{Label: "Map", Path: constants.RouteMap, Kind: KindLink},
	{Label: "Campaigns", Path: constants.RouteCampaigns, Kind: KindLink},
	{Label: "Explore", Path: constants.RouteExplore, Kind: KindLink},
}

// Menus builds the menus of a shell whose login pages live at the given
// routes. The zero value uses the default routes.
type Menus struct {
	login      string
	adminLogin string
}

// New returns menus pointing at the given login routes. Empty values fall
// back to the defaults.
func New(login, adminLogin string) Menus {
	return Menus{login: login, adminLogin: adminLogin}
}

func (m Menus) loginPath() string {
	if m.login == "" {
		return constants.RouteLogin
	}
	return m.login
}

func (m Menus) adminLoginPath() string {
	if m.adminLogin == "" {
		return constants.RouteAdminLogin
	}
	return m.adminLogin
}

// Desktop returns the top bar with the default routes.
func Desktop(u *domain.User, unread int) []Link {
	return Menus{}.Desktop(u, unread)
}

// Mobile returns the collapsible menu with the default routes.
func Mobile(u *domain.User) []Link {
	return Menus{}.Mobile(u)
}

// BottomNav returns the mobile tab bar with the default routes.
func BottomNav(path string) []Link {
	return Menus{}.BottomNav(path)
}

// Desktop returns the top bar for u (nil = anonymous). unread feeds the
// notification bell shown to regular users.
func (m Menus) Desktop(u *domain.User, unread int) []Link {
	return m.menu(u, unread, false)
}

// Mobile returns the collapsible menu. It matches Desktop except that the
// profile entry is labelled "Profile" and there is no bell.
func (m Menus) Mobile(u *domain.User) []Link {
	return m.menu(u, 0, true)
}

func (m Menus) menu(u *domain.User, unread int, mobile bool) []Link {
	var links []Link
	if u.Role() != domain.RoleAdmin {
		links = append(links, browseLinks...)
	}

	switch u.Role() {
	case domain.RoleAnonymous:
		return append(links,
			Link{Label: "Login", Path: m.loginPath(), Kind: KindLink},
			Link{Label: "Sign Up", Path: constants.RouteRegister, Kind: KindButton},
		)
	case domain.RoleAdmin:
		links = append(links,
			Link{Label: "Admin Panel", Path: constants.RouteAdminDashboard, Kind: KindButton},
			Link{Label: "Admin: " + u.Name, Kind: KindText},
		)
	default:
		profile := u.Name
		if mobile {
			profile = "Profile"
		}
		links = append(links,
			Link{Label: "Report Issue", Path: constants.RouteReport, Kind: KindButton},
			Link{Label: profile, Path: constants.RouteProfile, Kind: KindLink},
			Link{Label: "Dashboard", Path: constants.RouteDashboard, Kind: KindLink},
		)
		if !mobile {
			links = append(links, Link{Label: "Notifications", Kind: KindBell, Badge: BadgeLabel(unread)})
		}
	}

	return append(links, Link{Label: "Logout", Path: constants.RouteHome, Kind: KindLogout})
}

// BadgeLabel renders an unread count: empty for zero, "9+" above nine.
func BadgeLabel(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 9:
		return "9+"
	default:
		return strconv.Itoa(n)
	}
}

var bottomItems = []Link{
	{Label: "Home", Path: constants.RouteHome, Kind: KindLink},
	{Label: "Map", Path: constants.RouteMap, Kind: KindLink},
	{Label: "Report", Path: constants.RouteReport, Kind: KindLink},
	{Label: "Events", Path: constants.RouteCampaigns, Kind: KindLink},
	{Label: "Explore", Path: constants.RouteExplore, Kind: KindLink},
	{Label: "Rewards", Path: constants.RouteRewards, Kind: KindLink},
}

// BottomNav returns the mobile tab bar for the page at path, or nil on
// admin and auth pages where it is hidden.
func (m Menus) BottomNav(path string) []Link {
	if strings.HasPrefix(path, constants.RouteAdminPrefix) ||
		path == m.loginPath() ||
		path == m.adminLoginPath() ||
		path == constants.RouteRegister {
		return nil
	}

	items := make([]Link, len(bottomItems))
	copy(items, bottomItems)
	for i := range items {
		items[i].Active = items[i].Path == path
	}
	return items
}
