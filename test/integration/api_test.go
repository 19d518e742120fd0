// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/profile"
)

var _ = Describe("Accounts", func() {
	It("registers, logs in and reports the current identity", func() {
		token := register("Ada Lovelace", "Ada@Example.com")

		resp := call(http.MethodPost, "/api/auth", "", map[string]string{
			"email": "ada@example.com", "password": "secret123",
		})
		Expect(resp.Status).To(Equal(http.StatusOK))

		me := call(http.MethodGet, "/api/auth", token, nil)
		Expect(me.Status).To(Equal(http.StatusOK))
		var account auth.Account
		me.Decode(&account)
		Expect(account.Name).To(Equal("Ada Lovelace"))
		Expect(account.Email).To(Equal("ada@example.com"))
		Expect(account.Avatar).To(ContainSubstring("gravatar.com/avatar/"))
		Expect(string(me.Body)).NotTo(ContainSubstring("password"))
	})

	It("rejects a second account with the same email", func() {
		register("Ada", "ada@example.com")
		resp := call(http.MethodPost, "/api/users", "", map[string]string{
			"name": "Impostor", "email": "ADA@example.com", "password": "secret123",
		})
		Expect(resp.Status).To(Equal(http.StatusConflict))
		Expect(resp.Error().Message).To(Equal("User already exists"))
	})

	It("does not reveal whether the email or the password was wrong", func() {
		register("Ada", "ada@example.com")
		wrongPassword := call(http.MethodPost, "/api/auth", "", map[string]string{
			"email": "ada@example.com", "password": "nope",
		})
		unknownEmail := call(http.MethodPost, "/api/auth", "", map[string]string{
			"email": "nobody@example.com", "password": "secret123",
		})
		Expect(wrongPassword.Status).To(Equal(http.StatusUnauthorized))
		Expect(unknownEmail.Status).To(Equal(http.StatusUnauthorized))
		Expect(wrongPassword.Error().Message).To(Equal(unknownEmail.Error().Message))
	})

	It("refuses guarded routes without a valid token", func() {
		Expect(call(http.MethodGet, "/api/auth", "", nil).Status).To(Equal(http.StatusUnauthorized))
		Expect(call(http.MethodGet, "/api/auth", "garbage", nil).Status).To(Equal(http.StatusUnauthorized))
		Expect(call(http.MethodPost, "/api/posts", "", map[string]string{"text": "hi"}).Status).
			To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("Posts", func() {
	var (
		ada, grace string
		postID     string
	)

	BeforeEach(func() {
		ada = register("Ada", "ada@example.com")
		grace = register("Grace", "grace@example.com")

		resp := call(http.MethodPost, "/api/posts", ada, map[string]string{"text": "Hello, Agora"})
		Expect(resp.Status).To(Equal(http.StatusCreated))
		var p post.Post
		resp.Decode(&p)
		Expect(p.Name).To(Equal("Ada"))
		Expect(p.Likes).To(BeEmpty())
		postID = p.ID.String()
	})

	It("lists posts newest first", func() {
		Expect(call(http.MethodPost, "/api/posts", grace, map[string]string{"text": "second"}).Status).
			To(Equal(http.StatusCreated))

		var posts []post.Post
		call(http.MethodGet, "/api/posts", "", nil).Decode(&posts)
		Expect(posts).To(HaveLen(2))
		Expect(posts[0].Text).To(Equal("second"))
		Expect(posts[1].Text).To(Equal("Hello, Agora"))
	})

	It("likes once per account and unlikes", func() {
		resp := call(http.MethodPut, "/api/posts/like/"+postID, grace, nil)
		Expect(resp.Status).To(Equal(http.StatusOK))
		var likes []post.Like
		resp.Decode(&likes)
		Expect(likes).To(HaveLen(1))

		again := call(http.MethodPut, "/api/posts/like/"+postID, grace, nil)
		Expect(again.Status).To(Equal(http.StatusConflict))
		Expect(again.Error().Message).To(Equal("Post already liked"))

		resp = call(http.MethodPut, "/api/posts/unlike/"+postID, grace, nil)
		Expect(resp.Status).To(Equal(http.StatusOK))
		resp.Decode(&likes)
		Expect(likes).To(BeEmpty())
	})

	It("keeps every like when many accounts like at once", func() {
		const likers = 12
		tokens := make([]string, likers)
		for i := range tokens {
			tokens[i] = register(fmt.Sprintf("Liker %d", i), fmt.Sprintf("liker%d@example.com", i))
		}

		var wg sync.WaitGroup
		statuses := make([]int, likers)
		for i, token := range tokens {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				statuses[i] = call(http.MethodPut, "/api/posts/like/"+postID, token, nil).Status
			}()
		}
		wg.Wait()

		for _, status := range statuses {
			Expect(status).To(Equal(http.StatusOK))
		}
		var p post.Post
		call(http.MethodGet, "/api/posts/"+postID, "", nil).Decode(&p)
		Expect(p.Likes).To(HaveLen(likers))
	})

	It("lets commenters and the post author remove comments, nobody else", func() {
		resp := call(http.MethodPost, "/api/posts/comment/"+postID, grace, map[string]string{"text": "Nice"})
		Expect(resp.Status).To(Equal(http.StatusOK))
		var comments []post.Comment
		resp.Decode(&comments)
		Expect(comments).To(HaveLen(1))
		Expect(comments[0].Name).To(Equal("Grace"))
		commentID := comments[0].ID.String()

		mallory := register("Mallory", "mallory@example.com")
		forbidden := call(http.MethodDelete, "/api/posts/comment/"+postID+"/"+commentID, mallory, nil)
		Expect(forbidden.Status).To(Equal(http.StatusForbidden))

		resp = call(http.MethodDelete, "/api/posts/comment/"+postID+"/"+commentID, ada, nil)
		Expect(resp.Status).To(Equal(http.StatusOK))
		resp.Decode(&comments)
		Expect(comments).To(BeEmpty())

		missing := call(http.MethodDelete, "/api/posts/comment/"+postID+"/"+commentID, ada, nil)
		Expect(missing.Status).To(Equal(http.StatusNotFound))
	})

	It("only lets the author delete a post", func() {
		Expect(call(http.MethodDelete, "/api/posts/"+postID, grace, nil).Status).To(Equal(http.StatusForbidden))

		resp := call(http.MethodDelete, "/api/posts/"+postID, ada, nil)
		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(resp.Body).To(MatchJSON(`{"msg":"Post removed"}`))

		Expect(call(http.MethodGet, "/api/posts/"+postID, ada, nil).Status).To(Equal(http.StatusNotFound))
		Expect(call(http.MethodPut, "/api/posts/like/"+postID, grace, nil).Status).To(Equal(http.StatusNotFound))
	})

	It("treats malformed ids as missing", func() {
		Expect(call(http.MethodGet, "/api/posts/not-an-id", ada, nil).Status).To(Equal(http.StatusNotFound))
		Expect(call(http.MethodDelete, "/api/posts/not-an-id", ada, nil).Status).To(Equal(http.StatusNotFound))
	})
})

var _ = Describe("Profiles", func() {
	var ada string

	BeforeEach(func() {
		ada = register("Ada", "ada@example.com")
	})

	It("creates, updates and publishes a profile", func() {
		Expect(call(http.MethodGet, "/api/profile/me", ada, nil).Status).To(Equal(http.StatusNotFound))

		resp := call(http.MethodPost, "/api/profile", ada, map[string]string{
			"status": "Developer", "skills": "go, postgres ,", "twitter": "https://twitter.com/ada",
		})
		Expect(resp.Status).To(Equal(http.StatusOK))
		var created profile.Profile
		resp.Decode(&created)
		Expect(created.Skills).To(Equal([]string{"go", "postgres"}))
		Expect(created.Social.Twitter).To(Equal("https://twitter.com/ada"))

		resp = call(http.MethodPost, "/api/profile", ada, map[string]string{
			"status": "Lead", "skills": "go",
		})
		var updated profile.Profile
		resp.Decode(&updated)
		Expect(updated.ID).To(Equal(created.ID))
		Expect(updated.Status).To(Equal("Lead"))

		var all []profile.Profile
		call(http.MethodGet, "/api/profile", "", nil).Decode(&all)
		Expect(all).To(HaveLen(1))
		Expect(all[0].Owner).NotTo(BeNil())
		Expect(all[0].Owner.Name).To(Equal("Ada"))

		byOwner := call(http.MethodGet, "/api/profile/user/"+created.User.String(), "", nil)
		Expect(byOwner.Status).To(Equal(http.StatusOK))
	})

	It("adds and removes experience and education", func() {
		Expect(call(http.MethodPost, "/api/profile", ada, map[string]string{
			"status": "Developer", "skills": "go",
		}).Status).To(Equal(http.StatusOK))

		resp := call(http.MethodPut, "/api/profile/experience", ada, map[string]any{
			"title": "Engineer", "company": "Analytical", "from": "2020-01-01", "current": true,
		})
		Expect(resp.Status).To(Equal(http.StatusOK))
		var p profile.Profile
		resp.Decode(&p)
		Expect(p.Experience).To(HaveLen(1))
		expID := p.Experience[0].ID.String()

		resp = call(http.MethodPut, "/api/profile/education", ada, map[string]any{
			"school": "Cambridge", "degree": "BSc", "fieldofstudy": "Maths",
			"from": "2010-09-01", "to": "2013-06-30",
		})
		Expect(resp.Status).To(Equal(http.StatusOK))
		resp.Decode(&p)
		Expect(p.Education).To(HaveLen(1))

		resp = call(http.MethodDelete, "/api/profile/experience/"+expID, ada, nil)
		Expect(resp.Status).To(Equal(http.StatusOK))
		resp.Decode(&p)
		Expect(p.Experience).To(BeEmpty())
		Expect(p.Education).To(HaveLen(1))

		Expect(call(http.MethodDelete, "/api/profile/experience/"+expID, ada, nil).Status).
			To(Equal(http.StatusNotFound))
	})

	It("deletes only the profile", func() {
		Expect(call(http.MethodPost, "/api/profile", ada, map[string]string{
			"status": "Developer", "skills": "go",
		}).Status).To(Equal(http.StatusOK))
		Expect(call(http.MethodPost, "/api/posts", ada, map[string]string{"text": "still here"}).Status).
			To(Equal(http.StatusCreated))

		resp := call(http.MethodDelete, "/api/profile", ada, nil)
		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(resp.Body).To(MatchJSON(`{"msg":"Profile deleted"}`))

		var all []profile.Profile
		call(http.MethodGet, "/api/profile", "", nil).Decode(&all)
		Expect(all).To(BeEmpty())
		Expect(call(http.MethodDelete, "/api/profile", ada, nil).Status).To(Equal(http.StatusNotFound))

		var posts []post.Post
		call(http.MethodGet, "/api/posts", ada, nil).Decode(&posts)
		Expect(posts).To(HaveLen(1))
		Expect(call(http.MethodGet, "/api/auth", ada, nil).Status).To(Equal(http.StatusOK))
	})
})
