// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	collectionpg "github.com/agora-social/agora/internal/collection/postgres"
	"github.com/agora-social/agora/internal/profile"
	"github.com/agora-social/agora/internal/store"
)

// ExperienceTable maps experience onto profile_experience.
func ExperienceTable() collectionpg.Table[profile.Experience] {
	return collectionpg.Table[profile.Experience]{
		Name:            "PROFILE",
		NotFoundMessage: notFoundMessage,
		Parent:          "profiles",
		OwnerColumn:     "owner_id",
		Touch:           "updated_at = now()",
		Child:           "profile_experience",
		ParentRef:       "profile_id",
		Columns: []string{
			"id", "title", "company", "location", "from_date", "to_date", "current", "description",
		},
		Values: func(e profile.Experience) []any {
			return []any{e.ID.String(), e.Title, e.Company, e.Location, e.From, e.To, e.Current, e.Description}
		},
		Scan: scanExperience,
		ID:   func(e profile.Experience) ulid.ULID { return e.ID },
	}
}

// EducationTable maps education onto profile_education.
func EducationTable() collectionpg.Table[profile.Education] {
	return collectionpg.Table[profile.Education]{
		Name:            "PROFILE",
		NotFoundMessage: notFoundMessage,
		Parent:          "profiles",
		OwnerColumn:     "owner_id",
		Touch:           "updated_at = now()",
		Child:           "profile_education",
		ParentRef:       "profile_id",
		Columns: []string{
			"id", "school", "degree", "field_of_study", "from_date", "to_date", "current", "description",
		},
		Values: func(e profile.Education) []any {
			return []any{e.ID.String(), e.School, e.Degree, e.FieldOfStudy, e.From, e.To, e.Current, e.Description}
		},
		Scan: scanEducation,
		ID:   func(e profile.Education) ulid.ULID { return e.ID },
	}
}

// NewExperienceStore creates the experience collection store.
func NewExperienceStore(pool store.Pool) (*collectionpg.Store[profile.Experience], error) {
	return collectionpg.NewStore(pool, ExperienceTable())
}

// NewEducationStore creates the education collection store.
func NewEducationStore(pool store.Pool) (*collectionpg.Store[profile.Education], error) {
	return collectionpg.NewStore(pool, EducationTable())
}

func scanExperience(row pgx.Row) (profile.Experience, error) {
	var (
		e  profile.Experience
		id string
	)
	if err := row.Scan(&id, &e.Title, &e.Company, &e.Location, &e.From, &e.To, &e.Current, &e.Description); err != nil {
		return profile.Experience{}, err //nolint:wrapcheck // wrapped by the collection store
	}
	parsed, err := parseID(id)
	if err != nil {
		return profile.Experience{}, err
	}
	e.ID = parsed
	return e, nil
}

func scanEducation(row pgx.Row) (profile.Education, error) {
	var (
		e  profile.Education
		id string
	)
	if err := row.Scan(&id, &e.School, &e.Degree, &e.FieldOfStudy, &e.From, &e.To, &e.Current, &e.Description); err != nil {
		return profile.Education{}, err //nolint:wrapcheck // wrapped by the collection store
	}
	parsed, err := parseID(id)
	if err != nil {
		return profile.Education{}, err
	}
	e.ID = parsed
	return e, nil
}

func parseID(raw string) (ulid.ULID, error) {
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("PROFILE_ID_CORRUPT").With("id", raw).Wrap(err)
	}
	return id, nil
}
