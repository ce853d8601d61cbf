package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicspot/internal/domain"
)

func labels(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Label)
	}
	return out
}

func TestDesktop(t *testing.T) {
	member := &domain.User{ID: "u1", Name: "Ann"}
	admin := &domain.User{ID: "a1", Name: "Root", IsAdmin: true}

	tests := []struct {
		name string
		user *domain.User
		want []string
	}{
		{name: "anonymous", user: nil, want: []string{"Map", "Campaigns", "Explore", "Login", "Sign Up"}},
		{name: "member", user: member, want: []string{"Map", "Campaigns", "Explore", "Report Issue", "Ann", "Dashboard", "Notifications", "Logout"}},
		{name: "admin", user: admin, want: []string{"Admin Panel", "Admin: Root", "Logout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labels(Desktop(tt.user, 3)))
		})
	}
}

func TestMobile(t *testing.T) {
	member := &domain.User{ID: "u1", Name: "Ann"}

	links := Mobile(member)
	assert.Equal(t, []string{"Map", "Campaigns", "Explore", "Report Issue", "Profile", "Dashboard", "Logout"}, labels(links))
	assert.Equal(t, "/profile", links[4].Path)
	assert.Equal(t, KindLogout, links[6].Kind)
	assert.Equal(t, "/", links[6].Path)

	assert.Equal(t, labels(Desktop(nil, 0)), labels(Mobile(nil)))
}

func TestDesktopBell(t *testing.T) {
	links := Desktop(&domain.User{ID: "u1", Name: "Ann"}, 12)
	bell := links[6]
	assert.Equal(t, KindBell, bell.Kind)
	assert.Equal(t, "9+", bell.Badge)
}

func TestBadgeLabel(t *testing.T) {
	assert.Equal(t, "", BadgeLabel(0))
	assert.Equal(t, "", BadgeLabel(-1))
	assert.Equal(t, "1", BadgeLabel(1))
	assert.Equal(t, "9", BadgeLabel(9))
	assert.Equal(t, "9+", BadgeLabel(10))
}

func TestBottomNav(t *testing.T) {
	for _, hidden := range []string{"/admin/dashboard", "/admin/login", "/login", "/register"} {
		assert.Nil(t, BottomNav(hidden), hidden)
	}

	items := BottomNav("/campaigns")
	assert.Equal(t, []string{"Home", "Map", "Report", "Events", "Explore", "Rewards"}, labels(items))
	for _, item := range items {
		assert.Equal(t, item.Path == "/campaigns", item.Active, item.Label)
	}

	assert.False(t, BottomNav("/")[3].Active, "active flags must not leak between calls")
}

func TestMenusFollowConfiguredLoginRoutes(t *testing.T) {
	m := New("/signin", "/staff/signin")

	links := m.Desktop(nil, 0)
	assert.Equal(t, "Login", links[3].Label)
	assert.Equal(t, "/signin", links[3].Path)
	assert.Equal(t, "/signin", m.Mobile(nil)[3].Path)

	assert.Nil(t, m.BottomNav("/signin"))
	assert.Nil(t, m.BottomNav("/staff/signin"))
	assert.NotNil(t, m.BottomNav("/login"), "default login path is an ordinary page here")

	assert.Equal(t, "/login", Desktop(nil, 0)[3].Path)
}
