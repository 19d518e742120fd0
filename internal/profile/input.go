// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package profile

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/agora-social/agora/internal/apperr"
)

// DateLayout is the accepted date format for experience and education.
const DateLayout = time.DateOnly

// UpsertInput is the create-or-update profile request. Skills is a comma
// separated list.
type UpsertInput struct {
	Company        string `json:"company,omitempty"`
	Website        string `json:"website,omitempty"`
	Location       string `json:"location,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Status         string `json:"status" jsonschema:"minLength=1"`
	Skills         string `json:"skills" jsonschema:"minLength=1"`
	GitHubUsername string `json:"githubusername,omitempty"`
	YouTube        string `json:"youtube,omitempty"`
	Twitter        string `json:"twitter,omitempty"`
	Facebook       string `json:"facebook,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty"`
	Instagram      string `json:"instagram,omitempty"`
}

// Validate requires status and at least one skill.
func (in UpsertInput) Validate() error {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Status) == "" {
		fields = append(fields, apperr.Field("status", "Status is required"))
	}
	if len(ParseSkills(in.Skills)) == 0 {
		fields = append(fields, apperr.Field("skills", "Skills are required"))
	}
	return apperr.Validation("PROFILE_INVALID", fields...)
}

// ParseSkills splits a comma separated list into trimmed, non-empty
// skills in their original order. Repeated skills are kept.
func ParseSkills(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

// apply copies the non-empty fields of in onto p.
func (in UpsertInput) apply(p *Profile) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&p.Company, in.Company)
	set(&p.Website, in.Website)
	set(&p.Location, in.Location)
	set(&p.Bio, in.Bio)
	set(&p.Status, in.Status)
	set(&p.GitHubUsername, in.GitHubUsername)
	if skills := ParseSkills(in.Skills); len(skills) > 0 {
		p.Skills = skills
	}
	set(&p.Social.YouTube, in.YouTube)
	set(&p.Social.Twitter, in.Twitter)
	set(&p.Social.Facebook, in.Facebook)
	set(&p.Social.LinkedIn, in.LinkedIn)
	set(&p.Social.Instagram, in.Instagram)
}

// ExperienceInput is the add experience request. Dates are YYYY-MM-DD.
type ExperienceInput struct {
	Title       string `json:"title" jsonschema:"minLength=1"`
	Company     string `json:"company" jsonschema:"minLength=1"`
	Location    string `json:"location,omitempty"`
	From        string `json:"from" jsonschema:"format=date"`
	To          string `json:"to,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate checks required fields and the date range.
func (in ExperienceInput) Validate() error {
	_, err := in.toExperience()
	return err
}

func (in ExperienceInput) toExperience() (Experience, error) {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, apperr.Field("title", "Title is required"))
	}
	if strings.TrimSpace(in.Company) == "" {
		fields = append(fields, apperr.Field("company", "Company is required"))
	}
	span, spanFields := parseSpan(in.From, in.To, in.Current)
	fields = append(fields, spanFields...)
	if err := apperr.Validation("EXPERIENCE_INVALID", fields...); err != nil {
		return Experience{}, err
	}
	return Experience{
		Title:       strings.TrimSpace(in.Title),
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		From:        span.from,
		To:          span.to,
		Current:     in.Current,
		Description: in.Description,
	}, nil
}

// EducationInput is the add education request. Dates are YYYY-MM-DD.
type EducationInput struct {
	School       string `json:"school" jsonschema:"minLength=1"`
	Degree       string `json:"degree" jsonschema:"minLength=1"`
	FieldOfStudy string `json:"fieldofstudy" jsonschema:"minLength=1"`
	From         string `json:"from" jsonschema:"format=date"`
	To           string `json:"to,omitempty"`
	Current      bool   `json:"current,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Validate checks required fields and the date range.
func (in EducationInput) Validate() error {
	_, err := in.toEducation()
	return err
}

func (in EducationInput) toEducation() (Education, error) {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.School) == "" {
		fields = append(fields, apperr.Field("school", "School is required"))
	}
	if strings.TrimSpace(in.Degree) == "" {
		fields = append(fields, apperr.Field("degree", "Degree is required"))
	}
	if strings.TrimSpace(in.FieldOfStudy) == "" {
		fields = append(fields, apperr.Field("fieldofstudy", "Field of study is required"))
	}
	span, spanFields := parseSpan(in.From, in.To, in.Current)
	fields = append(fields, spanFields...)
	if err := apperr.Validation("EDUCATION_INVALID", fields...); err != nil {
		return Education{}, err
	}
	return Education{
		School:       strings.TrimSpace(in.School),
		Degree:       strings.TrimSpace(in.Degree),
		FieldOfStudy: strings.TrimSpace(in.FieldOfStudy),
		From:         span.from,
		To:           span.to,
		Current:      in.Current,
		Description:  in.Description,
	}, nil
}

type span struct {
	from time.Time
	to   *time.Time
}

// parseSpan reads a from/to date pair. A current entry has no end date.
func parseSpan(rawFrom, rawTo string, current bool) (span, []apperr.FieldError) {
	var (
		s      span
		fields []apperr.FieldError
	)
	rawFrom = strings.TrimSpace(rawFrom)
	if rawFrom == "" {
		fields = append(fields, apperr.Field("from", "From date is required"))
	} else if from, err := time.Parse(DateLayout, rawFrom); err != nil {
		fields = append(fields, apperr.Field("from", "From date must be YYYY-MM-DD"))
	} else {
		s.from = from
	}

	rawTo = strings.TrimSpace(rawTo)
	if rawTo == "" || current {
		return s, fields
	}
	to, err := time.Parse(DateLayout, rawTo)
	if err != nil {
		return s, append(fields, apperr.Field("to", "To date must be YYYY-MM-DD"))
	}
	if !s.from.IsZero() && to.Before(s.from) {
		return s, append(fields, apperr.Field("to", "To date must not be before from date"))
	}
	s.to = &to
	return s, fields
}
