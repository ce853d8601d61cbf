package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/civicspot/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, NewBinding(), opts...)
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("http://localhost:5000", nil)
	assert.ErrorIs(t, err, domain.ErrMissingDependency)

	_, err = NewClient("not a url", NewBinding())
	assert.Error(t, err)
}

func TestBindingAttachesCurrentCredential(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]int{"total": 1})
	})
	ctx := context.Background()

	_, err := c.AdminStats(ctx)
	require.NoError(t, err)

	c.SetCredential("abc123")
	_, err = c.AdminStats(ctx)
	require.NoError(t, err)

	c.ClearCredential()
	_, err = c.AdminStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer abc123", ""}, seen)
}

func TestBindingTransportDoesNotMutateRequest(t *testing.T) {
	b := NewBinding()
	b.SetCredential("T")

	var got string
	rt := b.Transport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get("Authorization")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://backend/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer stale")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer T", got)
	assert.Equal(t, "Bearer stale", req.Header.Get("Authorization"))

	b.ClearCredential()
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, got, "unbound transport must drop the header")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "pw", body["password"])

		writeJSON(w, http.StatusOK, map[string]any{"token": "T", "user": map[string]any{"_id": "u1"}})
	})

	res, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "T", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "u1", res.User.ID)
}

func TestRegisterWithoutTokenFails(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		writeJSON(w, http.StatusCreated, map[string]any{"user": map[string]any{"id": "u1"}})
	})

	_, err := c.Register(context.Background(), "Ann", "a@b.com", "pw")
	assert.ErrorIs(t, err, domain.ErrMissingToken)
}

func TestErrorPayloadKeptIntact(t *testing.T) {
	payload := `{"message":"Invalid credentials","field":"password"}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, payload)
	})

	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.JSONEq(t, payload, string(apiErr.Body))
	assert.JSONEq(t, payload, string(apiErr.Payload()))
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestUnauthorizedProfile(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token is not valid"})
	})

	_, err := c.FetchProfile(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPlainTextErrorPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	err := c.GetJSON(context.Background(), "/api/reports", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream unavailable", apiErr.Message)
	assert.JSONEq(t, `{"message":"upstream unavailable"}`, string(apiErr.Payload()))
}

func TestPlainTextErrorMessageKeepsRunes(t *testing.T) {
	body := strings.Repeat("é", 150)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, body)
	})

	err := c.GetJSON(context.Background(), "/api/reports", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, utf8.ValidString(apiErr.Message))
	assert.Equal(t, strings.Repeat("é", maxMessageLen/2), apiErr.Message)
}

func TestCredentialNotSentAcrossRedirectToOtherHost(t *testing.T) {
	var foreignAuth string
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]int{"total": 1})
	}))
	t.Cleanup(foreign.Close)

	var ownAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ownAuth = r.Header.Get("Authorization")
		http.Redirect(w, r, foreign.URL+"/elsewhere", http.StatusFound)
	})
	c.SetCredential("abc123")

	_, err := c.AdminStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc123", ownAuth)
	assert.Empty(t, foreignAuth)
}

func TestRequestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var traceparent string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		if r.URL.Path == "/api/auth/profile" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token is not valid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"total": 1})
	}, WithTracerProvider(tp))
	ctx := context.Background()

	_, err := c.AdminStats(ctx)
	require.NoError(t, err)
	_, err = c.FetchProfile(ctx)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /api/admin/stats", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "GET /api/auth/profile", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "Token is not valid", spans[1].Status().Description)

	traceID := spans[1].SpanContext().TraceID().String()
	assert.Contains(t, traceparent, traceID, "backend must receive the trace context")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var statuses []int
	c, err := NewClient(url, NewBinding(), WithObserver(func(method string, status int, elapsed time.Duration) {
		statuses = append(statuses, status)
	}))
	require.NoError(t, err)

	_, err = c.FetchProfile(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetworkOperation)
	assert.Equal(t, []int{0}, statuses)
}

func TestUpdateProfileMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/auth/profile", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "New Name", r.FormValue("name"))
		assert.Equal(t, "newbie", r.FormValue("username"))
		file, header, err := r.FormFile("profilePicture")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "me.png", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte{0x89, 0x50}, data)

		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "u1", "name": "New Name"}})
	})

	u, err := c.UpdateProfile(context.Background(), domain.ProfileUpdate{
		Name:        "New Name",
		Username:    "newbie",
		PictureName: "me.png",
		Picture:     []byte{0x89, 0x50},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", u.Name)
}

func TestUpdateProfileOmitsOptionalFields(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hasUsername := r.MultipartForm.Value["username"]
		assert.False(t, hasUsername)
		assert.Empty(t, r.MultipartForm.File["profilePicture"])
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "u1", "name": "Ann"}})
	})

	_, err := c.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: "Ann"})
	require.NoError(t, err)
}

func TestJoinedCampaigns(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"_id": "c1", "participants": []map[string]string{{"_id": "u1"}}},
			{"_id": "c2", "participants": []map[string]string{{"_id": "u2"}}},
			{"_id": "c3", "participants": []map[string]string{}},
		})
	})

	joined, err := c.JoinedCampaigns(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Contains(t, string(joined[0]), `"c1"`)
}

func TestUnreadNotificationCount(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications/unread-count", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]int{"count": 4})
	})

	n, err := c.UnreadNotificationCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCollaboratorVerbsUseBackendPaths(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		writeJSON(w, http.StatusOK, []any{})
	})
	ctx := context.Background()

	require.NoError(t, c.JoinCampaign(ctx, "c1"))
	require.NoError(t, c.DeletePost(ctx, "p1"))
	require.NoError(t, c.MarkNotificationRead(ctx, "n1"))
	_, err := c.MyReports(ctx)
	require.NoError(t, err)
	_, err = c.MyPosts(ctx)
	require.NoError(t, err)
	_, err = c.MyRewards(ctx)
	require.NoError(t, err)
	_, err = c.Leaderboard(ctx)
	require.NoError(t, err)
	_, err = c.Campaigns(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /api/campaigns/c1/join",
		"DELETE /api/posts/p1",
		"PATCH /api/notifications/n1/read",
		"GET /api/reports/my-reports",
		"GET /api/posts/my-posts",
		"GET /api/rewards/my-rewards",
		"GET /api/rewards/leaderboard",
		"GET /api/campaigns",
	}, calls)
}
