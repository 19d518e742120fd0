// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora/internal/api"
	"github.com/agora-social/agora/internal/api/mocks"
	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/observability"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/profile"
)

const validToken = "valid-token"

type fixture struct {
	router   http.Handler
	auth     *mocks.MockAuthService
	posts    *mocks.MockPostService
	profiles *mocks.MockProfileService
	tokens   *mocks.MockTokenVerifier
	metrics  *observability.Metrics
	actor    ulid.ULID
}

func newFixture(t *testing.T, opts ...func(*api.Config)) *fixture {
	t.Helper()
	f := &fixture{
		auth:     mocks.NewMockAuthService(t),
		posts:    mocks.NewMockPostService(t),
		profiles: mocks.NewMockProfileService(t),
		tokens:   mocks.NewMockTokenVerifier(t),
		metrics:  observability.NewMetrics(prometheus.NewRegistry()),
		actor:    ulid.Make(),
	}
	cfg := api.Config{
		Auth:     f.auth,
		Posts:    f.posts,
		Profiles: f.profiles,
		Tokens:   f.tokens,
		Metrics:  f.metrics,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	router, err := api.NewRouter(cfg)
	require.NoError(t, err)
	f.router = router
	return f
}

func (f *fixture) authorize() {
	f.tokens.On("Verify", validToken).Return(f.actor, nil)
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) authed(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, body, api.DefaultTokenHeader, validToken)
}

type errorResponse struct {
	Kind    string              `json:"kind"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func fieldNames(errs []apperr.FieldError) []string {
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return names
}

func TestNewRouter_RequiresServices(t *testing.T) {
	_, err := api.NewRouter(api.Config{})
	require.Error(t, err)
}

func TestGuard(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/posts", `{"text":"hello"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "Unauthenticated", body.Kind)
		assert.Equal(t, "No token, authorization denied", body.Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		f := newFixture(t)
		f.tokens.On("Verify", "forged").Return(ulid.ULID{}, auth.ErrTokenInvalidSignature)
		rec := f.do(http.MethodGet, "/api/auth", "", api.DefaultTokenHeader, "forged")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Token is not valid", decodeError(t, rec).Message)
	})

	t.Run("bearer token", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		f.auth.On("CurrentIdentity", mock.Anything, f.actor).Return(&auth.Account{ID: f.actor, Name: "Ann"}, nil)
		rec := f.do(http.MethodGet, "/api/auth", "", "Authorization", "Bearer "+validToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("custom header", func(t *testing.T) {
		f := newFixture(t, func(c *api.Config) { c.TokenHeader = "X-Session" })
		f.authorize()
		f.auth.On("CurrentIdentity", mock.Anything, f.actor).Return(&auth.Account{ID: f.actor, Name: "Ann"}, nil)

		rec := f.do(http.MethodGet, "/api/auth", "", "X-Session", validToken)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = f.do(http.MethodGet, "/api/auth", "", api.DefaultTokenHeader, validToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stores actor in context", func(t *testing.T) {
		f := newFixture(t)
		id := ulid.Make()
		var seen ulid.ULID
		handler := api.Guard(f.tokens, "", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = auth.AccountIDFromContext(r.Context())
		}))
		f.tokens.On("Verify", "t").Return(id, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(api.DefaultTokenHeader, "t")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, id, seen)
	})
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(t)
		in := auth.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}
		f.auth.On("Register", mock.Anything, in).Return("tok", nil)

		rec := f.do(http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"token":"tok"}`, rec.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/users", `{"name":"Ann"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "ValidationFailed", body.Kind)
		assert.ElementsMatch(t, []string{"email", "password"}, fieldNames(body.Errors))
	})

	t.Run("malformed email", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/users", `{"name":"Ann","email":"nope","password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"email"}, fieldNames(decodeError(t, rec).Errors))
	})

	t.Run("not json", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/users", `name=Ann`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"body"}, fieldNames(decodeError(t, rec).Errors))
	})

	t.Run("email taken", func(t *testing.T) {
		f := newFixture(t)
		f.auth.On("Register", mock.Anything, mock.Anything).
			Return("", apperr.Duplicate("ACCOUNT_EMAIL_TAKEN", "User already exists"))

		rec := f.do(http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "DuplicateEntry", body.Kind)
		assert.Equal(t, "User already exists", body.Message)
		assert.Empty(t, body.Errors)
	})
}

func TestLoginAndIdentity(t *testing.T) {
	f := newFixture(t)
	f.auth.On("Login", mock.Anything, auth.LoginInput{Email: "ann@example.com", Password: "secret1"}).Return("tok", nil)

	rec := f.do(http.MethodPost, "/api/auth", `{"email":"ann@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tok"}`, rec.Body.String())

	f.authorize()
	f.auth.On("CurrentIdentity", mock.Anything, f.actor).Return(&auth.Account{
		ID:           f.actor,
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "$argon2id$secret",
		Avatar:       "//avatar",
	}, nil)

	rec = f.authed(http.MethodGet, "/api/auth", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2id")
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, f.actor.String(), got["id"])
	assert.NotContains(t, got, "password")
}

func TestPostRoutes(t *testing.T) {
	postID := ulid.Make()
	commentID := ulid.Make()

	t.Run("create", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		created := &post.Post{ID: postID, Author: f.actor, Text: "hello", Likes: []post.Like{}, Comments: []post.Comment{}}
		f.posts.On("Create", mock.Anything, f.actor, post.CreateInput{Text: "hello"}).Return(created, nil)

		rec := f.authed(http.MethodPost, "/api/posts", `{"text":"hello"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		var got post.Post
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, postID, got.ID)
		assert.Equal(t, f.actor, got.Author)
	})

	t.Run("create with wrong type", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		rec := f.authed(http.MethodPost, "/api/posts", `{"text":5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"text"}, fieldNames(decodeError(t, rec).Errors))
	})

	t.Run("list empty", func(t *testing.T) {
		f := newFixture(t)
		f.posts.On("List", mock.Anything).Return(nil, nil)
		rec := f.do(http.MethodGet, "/api/posts", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("get missing", func(t *testing.T) {
		f := newFixture(t)
		f.posts.On("Get", mock.Anything, "nope").Return(nil, apperr.NotFound("POST_NOT_FOUND", "Post not found"))
		rec := f.do(http.MethodGet, "/api/posts/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errorResponse{Kind: "NotFound", Message: "Post not found"}, decodeError(t, rec))
	})

	t.Run("reads need no token", func(t *testing.T) {
		f := newFixture(t)
		p := &post.Post{ID: postID, Author: ulid.Make(), Text: "hello", Likes: []post.Like{}, Comments: []post.Comment{}}
		f.posts.On("List", mock.Anything).Return([]*post.Post{p}, nil)
		f.posts.On("Get", mock.Anything, postID.String()).Return(p, nil)

		rec := f.do(http.MethodGet, "/api/posts", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		var list []post.Post
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, postID, list[0].ID)

		rec = f.do(http.MethodGet, "/api/posts/"+postID.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		f.tokens.AssertNotCalled(t, "Verify", mock.Anything)
	})

	t.Run("writes need a token", func(t *testing.T) {
		f := newFixture(t)
		id := postID.String()
		for _, tc := range []struct{ method, path string }{
			{http.MethodPost, "/api/posts"},
			{http.MethodDelete, "/api/posts/" + id},
			{http.MethodPut, "/api/posts/like/" + id},
			{http.MethodPut, "/api/posts/unlike/" + id},
			{http.MethodPost, "/api/posts/comment/" + id},
			{http.MethodDelete, "/api/posts/comment/" + id + "/" + commentID.String()},
		} {
			rec := f.do(tc.method, tc.path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		}
	})

	t.Run("delete forbidden", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		f.posts.On("Delete", mock.Anything, f.actor, postID.String()).
			Return(apperr.Forbidden("POST_FORBIDDEN", "User not authorized"))
		rec := f.authed(http.MethodDelete, "/api/posts/"+postID.String(), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		f.posts.On("Delete", mock.Anything, f.actor, postID.String()).Return(nil)
		rec := f.authed(http.MethodDelete, "/api/posts/"+postID.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"msg":"Post removed"}`, rec.Body.String())
	})

	t.Run("like and unlike", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		like := post.Like{ID: ulid.Make(), User: f.actor}
		f.posts.On("Like", mock.Anything, f.actor, postID.String()).Return([]post.Like{like}, nil)
		f.posts.On("Unlike", mock.Anything, f.actor, postID.String()).Return([]post.Like{}, nil)

		rec := f.authed(http.MethodPut, "/api/posts/like/"+postID.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		var likes []post.Like
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &likes))
		require.Len(t, likes, 1)
		assert.Equal(t, f.actor, likes[0].User)

		rec = f.authed(http.MethodPut, "/api/posts/unlike/"+postID.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("already liked", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		f.posts.On("Like", mock.Anything, f.actor, postID.String()).
			Return(nil, apperr.Duplicate("LIKE_DUPLICATE", "Post already liked"))
		rec := f.authed(http.MethodPut, "/api/posts/like/"+postID.String(), "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Post already liked", decodeError(t, rec).Message)
	})

	t.Run("comments", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		comment := post.Comment{ID: commentID, User: f.actor, Text: "nice"}
		f.posts.On("AddComment", mock.Anything, f.actor, postID.String(), post.CommentInput{Text: "nice"}).
			Return([]post.Comment{comment}, nil)
		f.posts.On("RemoveComment", mock.Anything, f.actor, postID.String(), commentID.String()).
			Return([]post.Comment{}, nil)

		rec := f.authed(http.MethodPost, "/api/posts/comment/"+postID.String(), `{"text":"nice"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		var comments []post.Comment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comments))
		require.Len(t, comments, 1)
		assert.Equal(t, commentID, comments[0].ID)

		rec = f.authed(http.MethodDelete, "/api/posts/comment/"+postID.String()+"/"+commentID.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("store failure is opaque", func(t *testing.T) {
		f := newFixture(t)
		f.posts.On("List", mock.Anything).
			Return(nil, apperr.Unavailable(errors.New("dial tcp: connection refused"), "POST_LIST_FAILED", "list posts"))
		rec := f.do(http.MethodGet, "/api/posts", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, errorResponse{Kind: "Unavailable", Message: "server error"}, body)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestProfileRoutes(t *testing.T) {
	owner := ulid.Make()

	t.Run("public routes need no token", func(t *testing.T) {
		f := newFixture(t)
		p := &profile.Profile{ID: ulid.Make(), User: owner, Status: "Developer", Skills: []string{"go"}}
		f.profiles.On("List", mock.Anything).Return([]*profile.Profile{p}, nil)
		f.profiles.On("GetByOwner", mock.Anything, owner.String()).Return(p, nil)

		rec := f.do(http.MethodGet, "/api/profile", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		var list []profile.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, owner, list[0].User)

		rec = f.do(http.MethodGet, "/api/profile/user/"+owner.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("owner lookup miss", func(t *testing.T) {
		f := newFixture(t)
		f.profiles.On("GetByOwner", mock.Anything, "bogus").
			Return(nil, apperr.NotFound("PROFILE_NOT_FOUND", "There is no profile for this user"))
		rec := f.do(http.MethodGet, "/api/profile/user/bogus", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "There is no profile for this user", decodeError(t, rec).Message)
	})

	t.Run("guarded routes", func(t *testing.T) {
		f := newFixture(t)
		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/profile/me"},
			{http.MethodPost, "/api/profile"},
			{http.MethodDelete, "/api/profile"},
			{http.MethodPut, "/api/profile/experience"},
			{http.MethodDelete, "/api/profile/experience/x"},
			{http.MethodPut, "/api/profile/education"},
			{http.MethodDelete, "/api/profile/education/x"},
		} {
			rec := f.do(tc.method, tc.path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		}
	})

	t.Run("upsert", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		in := profile.UpsertInput{Status: "Developer", Skills: "go, sql", Twitter: "@ann"}
		f.profiles.On("Upsert", mock.Anything, f.actor, in).
			Return(&profile.Profile{User: f.actor, Status: "Developer", Skills: []string{"go", "sql"}}, nil)

		rec := f.authed(http.MethodPost, "/api/profile", `{"status":"Developer","skills":"go, sql","twitter":"@ann"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		var got profile.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, []string{"go", "sql"}, got.Skills)
	})

	t.Run("upsert missing status", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		rec := f.authed(http.MethodPost, "/api/profile", `{"skills":"go"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"status"}, fieldNames(decodeError(t, rec).Errors))
	})

	t.Run("me without profile", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		f.profiles.On("Me", mock.Anything, f.actor).
			Return(nil, apperr.NotFound("PROFILE_NOT_FOUND", "There is no profile for this user"))
		rec := f.authed(http.MethodGet, "/api/profile/me", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		f.profiles.On("Delete", mock.Anything, f.actor).Return(nil)
		rec := f.authed(http.MethodDelete, "/api/profile", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"msg":"Profile deleted"}`, rec.Body.String())
	})

	t.Run("experience", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		in := profile.ExperienceInput{Title: "Engineer", Company: "Acme", From: "2020-01-02", Current: true}
		f.profiles.On("AddExperience", mock.Anything, f.actor, in).Return(&profile.Profile{User: f.actor}, nil)
		f.profiles.On("RemoveExperience", mock.Anything, f.actor, "exp1").Return(&profile.Profile{User: f.actor}, nil)

		rec := f.authed(http.MethodPut, "/api/profile/experience",
			`{"title":"Engineer","company":"Acme","from":"2020-01-02","current":true}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = f.authed(http.MethodDelete, "/api/profile/experience/exp1", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("experience bad date", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		rec := f.authed(http.MethodPut, "/api/profile/experience",
			`{"title":"Engineer","company":"Acme","from":"02/01/2020"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"from"}, fieldNames(decodeError(t, rec).Errors))
	})

	t.Run("education", func(t *testing.T) {
		f := newFixture(t)
		f.authorize()
		in := profile.EducationInput{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2010-09-01", To: ""}
		f.profiles.On("AddEducation", mock.Anything, f.actor, in).Return(&profile.Profile{User: f.actor}, nil)
		f.profiles.On("RemoveEducation", mock.Anything, f.actor, "edu1").
			Return(nil, apperr.NotFound("EDUCATION_NOT_FOUND", "Education does not exist"))

		rec := f.authed(http.MethodPut, "/api/profile/education",
			`{"school":"MIT","degree":"BSc","fieldofstudy":"CS","from":"2010-09-01","to":""}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = f.authed(http.MethodDelete, "/api/profile/education/edu1", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decodeError(t, rec).Kind)
}

func TestRequestMetrics(t *testing.T) {
	f := newFixture(t)
	f.posts.On("Get", mock.Anything, mock.Anything).Return(nil, apperr.NotFound("POST_NOT_FOUND", "Post not found"))

	f.do(http.MethodGet, "/api/posts/a", "")
	f.do(http.MethodGet, "/api/posts/b", "")

	assert.Equal(t, float64(2), testutil.ToFloat64(
		f.metrics.RequestsTotal.WithLabelValues("/api/posts/{id}", http.MethodGet, "404")))
}

func TestRequestMetrics_RejectedRequestsKeepRoute(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodDelete, "/api/posts/a", "")
	f.do(http.MethodPut, "/api/posts/like/a", "")
	f.do(http.MethodDelete, "/api/profile/experience/a", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(
		f.metrics.RequestsTotal.WithLabelValues("/api/posts/{id}", http.MethodDelete, "401")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		f.metrics.RequestsTotal.WithLabelValues("/api/posts/like/{id}", http.MethodPut, "401")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		f.metrics.RequestsTotal.WithLabelValues("/api/profile/experience/{exp_id}", http.MethodDelete, "401")))
	assert.Equal(t, float64(0), testutil.ToFloat64(
		f.metrics.RequestsTotal.WithLabelValues("/api/posts/*", http.MethodDelete, "401")))
}

func TestRequestTimeout(t *testing.T) {
	f := newFixture(t, func(c *api.Config) { c.RequestTimeout = time.Minute })
	f.posts.On("List", mock.Anything).
		Run(func(args mock.Arguments) {
			_, ok := args.Get(0).(context.Context).Deadline()
			assert.True(t, ok, "request context should carry a deadline")
		}).
		Return([]*post.Post{}, nil)

	rec := f.do(http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	withOrigins := func(c *api.Config) { c.CORSOrigins = []string{"https://*.agora.test"} }

	t.Run("preflight from allowed origin", func(t *testing.T) {
		f := newFixture(t, withOrigins)
		rec := f.do(http.MethodOptions, "/api/posts", "",
			"Origin", "https://app.agora.test",
			"Access-Control-Request-Method", http.MethodPost)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.agora.test", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), api.DefaultTokenHeader)
	})

	t.Run("simple request from allowed origin", func(t *testing.T) {
		f := newFixture(t, withOrigins)
		f.profiles.On("List", mock.Anything).Return([]*profile.Profile{}, nil)
		rec := f.do(http.MethodGet, "/api/profile", "", "Origin", "https://app.agora.test")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://app.agora.test", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		f := newFixture(t, withOrigins)
		f.profiles.On("List", mock.Anything).Return([]*profile.Profile{}, nil)
		rec := f.do(http.MethodGet, "/api/profile", "", "Origin", "https://evil.example")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := api.CORS([]string{"https://[agora"}, api.DefaultTokenHeader)
		require.Error(t, err)
	})
}
