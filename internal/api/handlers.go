// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/profile"
)

// respond writes v with status, or the error when err is set.
func (h *handler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, v)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := h.decode(w, r, SchemaRegister, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	token, err := h.auth.Register(r.Context(), in)
	h.respond(w, r, http.StatusCreated, tokenBody{Token: token}, err)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := h.decode(w, r, SchemaLogin, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	token, err := h.auth.Login(r.Context(), in)
	h.respond(w, r, http.StatusOK, tokenBody{Token: token}, err)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.CurrentIdentity(r.Context(), actor(r))
	h.respond(w, r, http.StatusOK, account, err)
}

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	var in post.CreateInput
	if err := h.decode(w, r, SchemaPost, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.posts.Create(r.Context(), actor(r), in)
	h.respond(w, r, http.StatusCreated, p, err)
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if posts == nil {
		posts = []*post.Post{}
	}
	h.respond(w, r, http.StatusOK, posts, err)
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request) {
	err := h.posts.Delete(r.Context(), actor(r), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, messageBody{Msg: "Post removed"}, err)
}

func (h *handler) likePost(w http.ResponseWriter, r *http.Request) {
	likes, err := h.posts.Like(r.Context(), actor(r), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, likes, err)
}

func (h *handler) unlikePost(w http.ResponseWriter, r *http.Request) {
	likes, err := h.posts.Unlike(r.Context(), actor(r), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, likes, err)
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request) {
	var in post.CommentInput
	if err := h.decode(w, r, SchemaComment, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	comments, err := h.posts.AddComment(r.Context(), actor(r), chi.URLParam(r, "id"), in)
	h.respond(w, r, http.StatusOK, comments, err)
}

func (h *handler) removeComment(w http.ResponseWriter, r *http.Request) {
	comments, err := h.posts.RemoveComment(r.Context(), actor(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "comment_id"))
	h.respond(w, r, http.StatusOK, comments, err)
}

func (h *handler) myProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Me(r.Context(), actor(r))
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *handler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var in profile.UpsertInput
	if err := h.decode(w, r, SchemaProfile, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.profiles.Upsert(r.Context(), actor(r), in)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if profiles == nil {
		profiles = []*profile.Profile{}
	}
	h.respond(w, r, http.StatusOK, profiles, err)
}

func (h *handler) profileByOwner(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.GetByOwner(r.Context(), chi.URLParam(r, "user_id"))
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	err := h.profiles.Delete(r.Context(), actor(r))
	h.respond(w, r, http.StatusOK, messageBody{Msg: "Profile deleted"}, err)
}

func (h *handler) addExperience(w http.ResponseWriter, r *http.Request) {
	var in profile.ExperienceInput
	if err := h.decode(w, r, SchemaExperience, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.profiles.AddExperience(r.Context(), actor(r), in)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *handler) removeExperience(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.RemoveExperience(r.Context(), actor(r), chi.URLParam(r, "exp_id"))
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *handler) addEducation(w http.ResponseWriter, r *http.Request) {
	var in profile.EducationInput
	if err := h.decode(w, r, SchemaEducation, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.profiles.AddEducation(r.Context(), actor(r), in)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *handler) removeEducation(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.RemoveEducation(r.Context(), actor(r), chi.URLParam(r, "edu_id"))
	h.respond(w, r, http.StatusOK, p, err)
}
