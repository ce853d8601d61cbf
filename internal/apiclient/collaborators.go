package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/civicspot/internal/apipaths"
)

// Verbs used by the pages around the session. Payload shapes belong to
// the backend and are passed through untouched.

// UnreadNotificationCount returns the caller's unread notification count
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.GetJSON(ctx, apipaths.UnreadCount, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkNotificationRead marks one notification as read
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.SendJSON(ctx, http.MethodPatch, apipaths.NotificationRead(id), nil, nil)
}

// AdminStats returns the admin dashboard counters
func (c *Client) AdminStats(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, apipaths.AdminStats)
}

// MyReports returns the reports filed by the caller
func (c *Client) MyReports(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, apipaths.MyReports)
}

// Campaigns returns every campaign
func (c *Client) Campaigns(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, apipaths.Campaigns)
}

// JoinedCampaigns returns the campaigns whose participants include userID.
func (c *Client) JoinedCampaigns(ctx context.Context, userID string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	if err := c.GetJSON(ctx, apipaths.Campaigns, &all); err != nil {
		return nil, err
	}

	joined := make([]json.RawMessage, 0, len(all))
	for _, campaign := range all {
		var parsed struct {
			Participants []struct {
				ID  string `json:"id"`
				OID string `json:"_id"`
			} `json:"participants"`
		}
		if err := json.Unmarshal(campaign, &parsed); err != nil {
			continue
		}
		for _, p := range parsed.Participants {
			if p.OID == userID || p.ID == userID {
				joined = append(joined, campaign)
				break
			}
		}
	}
	return joined, nil
}

// JoinCampaign adds the caller to a campaign
func (c *Client) JoinCampaign(ctx context.Context, id string) error {
	return c.SendJSON(ctx, http.MethodPost, apipaths.CampaignJoin(id), nil, nil)
}

// MyPosts returns the posts shared by the caller
func (c *Client) MyPosts(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, apipaths.MyPosts)
}

// DeletePost removes one of the caller's posts
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.SendJSON(ctx, http.MethodDelete, apipaths.PostByID(id), nil, nil)
}

// MyRewards returns the caller's points and badges
func (c *Client) MyRewards(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, apipaths.MyRewards)
}

// Leaderboard returns the public points ranking
func (c *Client) Leaderboard(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, apipaths.Leaderboard)
}

func (c *Client) raw(ctx context.Context, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
