package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipefeed/auth"
	"swipefeed/feeds"
	"swipefeed/models"
	"swipefeed/server"
)

const (
	secret = "test-secret"
	viewer = "00000000-0000-0000-0000-000000000001"
	other  = "00000000-0000-0000-0000-000000000002"
)

type fakeRepository struct {
	mu sync.Mutex

	page     *models.FeedPage
	fetchErr error

	interactErr error

	fetchCalls   int
	lastLimit    int
	lastCursor   *models.Cursor
	interactions []models.Interaction
	bumped       []string
}

func (r *fakeRepository) FetchFeedPage(ctx context.Context, viewerID string, limit int, cursor *models.Cursor) (*models.FeedPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchCalls++
	r.lastLimit = limit
	r.lastCursor = cursor
	return r.page, r.fetchErr
}

func (r *fakeRepository) RecordInteraction(ctx context.Context, fromUserID, toUserID string, kind models.InteractionKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions = append(r.interactions, models.Interaction{FromUserID: fromUserID, ToUserID: toUserID, Kind: kind})
	return r.interactErr
}

func (r *fakeRepository) BumpUserActivity(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bumped = append(r.bumped, userID)
}

func newApp(t *testing.T, repo *fakeRepository) (*server.ServerConfig, string) {
	t.Helper()
	token, err := auth.IssueToken(secret, viewer, "authenticated", time.Hour)
	require.NoError(t, err)

	return &server.ServerConfig{
		Repository:   repo,
		Verifier:     auth.NewJWTVerifier(secret, "authenticated", ""),
		DefaultLimit: 20,
		CorsOrigins:  "*",
	}, token
}

func do(t *testing.T, cfg *server.ServerConfig, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := server.Server(cfg).Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]interface{}{}
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &body), string(data))
	}
	return resp.StatusCode, body
}

func feedRequest(token string, query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/feed"+query, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func interactionRequest(token string, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestGetFeed(t *testing.T) {
	score := 42.5
	repo := &fakeRepository{page: &models.FeedPage{
		Items:      []models.CandidateProfile{{UserID: other, Name: "Ana", Score: &score}},
		NextCursor: &models.Cursor{AfterScore: 42.5, AfterUser: other},
	}}
	cfg, token := newApp(t, repo)

	status, body := do(t, cfg, feedRequest(token, "?limit=1"))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, repo.lastLimit)
	assert.Nil(t, repo.lastCursor)
	assert.Equal(t, []string{viewer}, repo.bumped)

	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, other, items[0].(map[string]interface{})["user_id"])
	assert.Equal(t, map[string]interface{}{"after_score": 42.5, "after_user": other}, body["nextCursor"])
}

func TestGetFeedOmitsMissingCursor(t *testing.T) {
	repo := &fakeRepository{page: &models.FeedPage{Items: []models.CandidateProfile{}}}
	cfg, token := newApp(t, repo)

	status, body := do(t, cfg, feedRequest(token, ""))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 20, repo.lastLimit)
	assert.Equal(t, []interface{}{}, body["items"])
	assert.NotContains(t, body, "nextCursor")
}

func TestGetFeedPassesCursor(t *testing.T) {
	repo := &fakeRepository{page: &models.FeedPage{Items: []models.CandidateProfile{}}}
	cfg, token := newApp(t, repo)

	status, _ := do(t, cfg, feedRequest(token, "?limit=10&after_score=42.5&after_user="+other))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, &models.Cursor{AfterScore: 42.5, AfterUser: other}, repo.lastCursor)
}

func TestGetFeedUnauthenticated(t *testing.T) {
	expired, err := auth.IssueToken(secret, viewer, "authenticated", -time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{"no token": "", "expired": expired, "garbage": "abc"} {
		t.Run(name, func(t *testing.T) {
			repo := &fakeRepository{}
			cfg, _ := newApp(t, repo)

			status, body := do(t, cfg, feedRequest(token, "?limit=10"))

			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "No autorizado", body["message"])
			assert.Zero(t, repo.fetchCalls)
		})
	}
}

func TestGetFeedInvalidLimit(t *testing.T) {
	for _, query := range []string{"?limit=0", "?limit=51", "?limit=-3", "?limit=abc"} {
		t.Run(query, func(t *testing.T) {
			repo := &fakeRepository{}
			cfg, token := newApp(t, repo)

			status, body := do(t, cfg, feedRequest(token, query))

			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, map[string]interface{}{"message": "El límite debe estar entre 1 y 50"}, body)
			assert.Zero(t, repo.fetchCalls)
		})
	}
}

func TestGetFeedInvalidCursor(t *testing.T) {
	for _, query := range []string{
		"?after_score=1.5",
		"?after_user=" + other,
		"?after_score=abc&after_user=" + other,
		"?after_score=NaN&after_user=" + other,
		"?after_score=1&after_user=u9",
	} {
		t.Run(query, func(t *testing.T) {
			repo := &fakeRepository{}
			cfg, token := newApp(t, repo)

			status, body := do(t, cfg, feedRequest(token, query))

			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "Cursor inválido", body["message"])
			assert.Zero(t, repo.fetchCalls)
		})
	}
}

func TestGetFeedUpstreamFailure(t *testing.T) {
	for name, err := range map[string]error{
		"upstream":       feeds.ErrUpstream,
		"invalid record": feeds.ErrInvalidRecord,
	} {
		t.Run(name, func(t *testing.T) {
			repo := &fakeRepository{fetchErr: err}
			cfg, token := newApp(t, repo)

			status, body := do(t, cfg, feedRequest(token, "?limit=10"))

			assert.Equal(t, http.StatusBadGateway, status)
			assert.Equal(t, "Error al obtener el feed", body["message"])
			assert.Empty(t, repo.bumped)
		})
	}
}

func TestPostInteraction(t *testing.T) {
	repo := &fakeRepository{}
	cfg, token := newApp(t, repo)

	status, body := do(t, cfg, interactionRequest(token, `{"toUserId":"`+other+`","interactionType":"like"}`))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"success": true}, body)
	assert.Equal(t, []models.Interaction{{FromUserID: viewer, ToUserID: other, Kind: models.InteractionLike}}, repo.interactions)
}

func TestPostInteractionRejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "self interaction",
			body:    `{"toUserId":"` + viewer + `","interactionType":"like"}`,
			message: "No puedes interactuar contigo mismo",
		},
		{
			name:    "missing target",
			body:    `{"interactionType":"dislike"}`,
			message: "Datos de interacción inválidos",
		},
		{
			name:    "unknown type",
			body:    `{"toUserId":"` + other + `","interactionType":"superlike"}`,
			message: "Datos de interacción inválidos",
		},
		{
			name:    "malformed json",
			body:    `{"toUserId":`,
			message: "Datos de interacción inválidos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepository{}
			cfg, token := newApp(t, repo)

			status, body := do(t, cfg, interactionRequest(token, tt.body))

			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.message, body["message"])
			assert.Empty(t, repo.interactions, "rejected interaction reached the repository")
		})
	}
}

func TestPostInteractionUnauthenticated(t *testing.T) {
	repo := &fakeRepository{}
	cfg, _ := newApp(t, repo)

	status, _ := do(t, cfg, interactionRequest("", `{"toUserId":"`+other+`","interactionType":"like"}`))

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, repo.interactions)
}

func TestPostInteractionFailure(t *testing.T) {
	repo := &fakeRepository{interactErr: errors.New("insert failed")}
	cfg, token := newApp(t, repo)

	status, body := do(t, cfg, interactionRequest(token, `{"toUserId":"`+other+`","interactionType":"dislike"}`))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error al registrar la interacción", body["message"])
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	cfg, _ := newApp(t, &fakeRepository{})

	resp, err := server.Server(cfg).Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cfg.Health = failingPinger{}
	resp, err = server.Server(cfg).Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
