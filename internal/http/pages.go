package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/nav"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PageView is the JSON rendition of a page: who is signed in, the menus
// for that role and any page data.
type PageView struct {
	Page      string                     `json:"page"`
	User      *domain.User               `json:"user"`
	Nav       []nav.Link                 `json:"nav"`
	MobileNav []nav.Link                 `json:"mobileNav"`
	BottomNav []nav.Link                 `json:"bottomNav,omitempty"`
	Data      map[string]json.RawMessage `json:"data,omitempty"`
}

// pageData loads the data a page shows. Keys with failed fetches are left out.
type pageData func(ctx context.Context, u *domain.User) map[string]json.RawMessage

func (s *Server) page(name string, load pageData) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := s.session.User()

		unread := 0
		if s.badge != nil {
			unread = s.badge.Count()
		}

		view := PageView{
			Page:      name,
			User:      u,
			Nav:       s.menus.Desktop(u, unread),
			MobileNav: s.menus.Mobile(u),
			BottomNav: s.menus.BottomNav(c.Request.URL.Path),
		}
		if load != nil {
			view.Data = load(c.Request.Context(), u)
		}
		c.JSON(http.StatusOK, view)
	}
}

// fetcher is one named piece of page data
type fetcher struct {
	key   string
	fetch func(ctx context.Context) (json.RawMessage, error)
}

// fetchAll runs the fetchers in parallel. A failed fetch is logged and
// omitted so the page still renders.
func (s *Server) fetchAll(ctx context.Context, fetchers ...fetcher) map[string]json.RawMessage {
	results := make([]json.RawMessage, len(fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fetchers {
		g.Go(func() error {
			data, err := f.fetch(gctx)
			if err != nil {
				s.logger.WarnContext(ctx, "failed to load page data", "key", f.key, "error", err)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]json.RawMessage, len(fetchers))
	for i, f := range fetchers {
		if results[i] != nil {
			out[f.key] = results[i]
		}
	}
	return out
}

func (s *Server) dashboardData(ctx context.Context, u *domain.User) map[string]json.RawMessage {
	if u == nil {
		// signed out between the guard check and the render
		return nil
	}
	return s.fetchAll(ctx,
		fetcher{"reports", s.client.MyReports},
		fetcher{"campaigns", func(ctx context.Context) (json.RawMessage, error) {
			joined, err := s.client.JoinedCampaigns(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(joined)
		}},
		fetcher{"posts", s.client.MyPosts},
	)
}

func (s *Server) adminDashboardData(ctx context.Context, _ *domain.User) map[string]json.RawMessage {
	return s.fetchAll(ctx, fetcher{"stats", s.client.AdminStats})
}

func (s *Server) rewardsData(ctx context.Context, _ *domain.User) map[string]json.RawMessage {
	return s.fetchAll(ctx,
		fetcher{"rewards", s.client.MyRewards},
		fetcher{"leaderboard", s.client.Leaderboard},
	)
}

func (s *Server) campaignsData(ctx context.Context, _ *domain.User) map[string]json.RawMessage {
	return s.fetchAll(ctx, fetcher{"campaigns", s.client.Campaigns})
}
