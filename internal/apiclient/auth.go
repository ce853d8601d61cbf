package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/civicspot/internal/apipaths"
	"github.com/civicspot/internal/domain"
)

type profileResponse struct {
	User *domain.User `json:"user"`
}

// FetchProfile returns the identity of the bound credential.
func (c *Client) FetchProfile(ctx context.Context) (*domain.User, error) {
	var resp profileResponse
	if err := c.GetJSON(ctx, apipaths.AuthProfile, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("profile response carried no user")
	}
	return resp.User, nil
}

// Login exchanges email and password for a token.
func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, apipaths.AuthLogin, body)
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, name, email, password string) (domain.AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.authenticate(ctx, apipaths.AuthRegister, body)
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.SendJSON(ctx, http.MethodPost, path, body, &res); err != nil {
		return domain.AuthResult{}, err
	}
	if res.Token == "" {
		return domain.AuthResult{}, domain.NewDomainError(domain.ErrMissingToken.Code,
			fmt.Sprintf("%s response carried no token", path), nil)
	}
	return res, nil
}

// UpdateProfile sends the profile form as multipart and returns the saved identity.
func (c *Client) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("name", upd.Name); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}
	if upd.Username != "" {
		if err := w.WriteField("username", upd.Username); err != nil {
			return nil, fmt.Errorf("failed to write form: %w", err)
		}
	}
	if len(upd.Picture) > 0 {
		part, err := w.CreateFormFile("profilePicture", upd.PictureName)
		if err != nil {
			return nil, fmt.Errorf("failed to write form: %w", err)
		}
		if _, err := part.Write(upd.Picture); err != nil {
			return nil, fmt.Errorf("failed to write form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}

	var resp profileResponse
	if err := c.do(ctx, http.MethodPut, apipaths.AuthProfile, &buf, w.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("profile response carried no user")
	}
	return resp.User, nil
}
