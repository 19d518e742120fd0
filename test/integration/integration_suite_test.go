// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

//go:build integration

// Package integration drives the Agora API end to end against a real
// PostgreSQL container.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/agora-social/agora/internal/api"
	"github.com/agora-social/agora/internal/app"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/store/pgtest"
)

var testSecret = auth.Secret("integration-secret-0123456789abcdef")

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}

// testEnv holds the database and the API server under test.
type testEnv struct {
	ctx    context.Context
	cancel context.CancelFunc
	db     *pgtest.Database
	app    *app.App
	server *httptest.Server
}

var env *testEnv

var _ = BeforeSuite(func() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	db, err := pgtest.Start(ctx)
	if err != nil {
		cancel()
	}
	Expect(err).NotTo(HaveOccurred())

	agora, err := app.New(db.Pool, app.Options{
		TokenSecret:     testSecret,
		Hasher:          auth.HasherParams{Memory: 64, Time: 1, Threads: 1},
		ConflictRetries: 20,
	})
	Expect(err).NotTo(HaveOccurred())

	env = &testEnv{
		ctx:    ctx,
		cancel: cancel,
		db:     db,
		app:    agora,
		server: httptest.NewServer(agora.Handler),
	}
})

var _ = AfterSuite(func() {
	if env == nil {
		return
	}
	env.server.Close()
	env.db.Close(context.Background())
	env.cancel()
})

var _ = BeforeEach(func() {
	Expect(env.db.Truncate(env.ctx)).To(Succeed())
})

// response is a decoded API reply.
type response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the body into v.
func (r response) Decode(v any) {
	GinkgoHelper()
	Expect(json.Unmarshal(r.Body, v)).To(Succeed(), "body: %s", r.Body)
}

// errorBody mirrors the API error envelope.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (r response) Error() errorBody {
	GinkgoHelper()
	var body errorBody
	r.Decode(&body)
	return body
}

// call sends a request with an optional JSON body and identity token.
func call(method, path, token string, body any) response {
	GinkgoHelper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(api.DefaultTokenHeader, token)
	}

	resp, err := env.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return response{Status: resp.StatusCode, Body: data}
}

// register creates an account and returns its token.
func register(name, email string) string {
	GinkgoHelper()
	resp := call(http.MethodPost, "/api/users", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	Expect(resp.Status).To(Equal(http.StatusCreated), "body: %s", resp.Body)
	var body struct {
		Token string `json:"token"`
	}
	resp.Decode(&body)
	Expect(body.Token).NotTo(BeEmpty())
	return body.Token
}
