package store

import (
	"context"
	"strings"

	"devfolio-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

const (
	ExperienceCompany        Column = "company"
	ExperiencePosition       Column = "position"
	ExperienceStartDate      Column = "start_date"
	ExperienceEndDate        Column = "end_date"
	ExperienceDescription    Column = "description"
	ExperienceAchievements   Column = "achievements"
	ExperienceTechnologies   Column = "technologies"
	ExperienceCompanyLogo    Column = "company_logo"
	ExperienceLocation       Column = "location"
	ExperienceEmploymentType Column = "employment_type"
)

var experienceUpdates = updateBuilder{
	table: "experiences",
	columns: []Column{
		ExperienceCompany, ExperiencePosition, ExperienceStartDate, ExperienceEndDate,
		ExperienceDescription, ExperienceAchievements, ExperienceTechnologies,
		ExperienceCompanyLogo, ExperienceLocation, ExperienceEmploymentType,
	},
}

const experienceColumns = `id, company, position, start_date, end_date, description, achievements, technologies,
  company_logo, location, employment_type, created_at, updated_at`

type Experiences struct {
	db *sqlx.DB
}

// List returns current positions first, then by most recent end (or start) date.
func (e *Experiences) List(ctx context.Context) ([]models.Experience, error) {
	items := []models.Experience{}
	err := e.db.SelectContext(ctx, &items, `SELECT `+experienceColumns+` FROM experiences
ORDER BY CASE WHEN end_date IS NULL THEN 0 ELSE 1 END, COALESCE(end_date, start_date) DESC, start_date DESC, id DESC`)
	if err != nil {
		return nil, storageError(ctx, "experiences.list", 0, err)
	}
	return items, nil
}

func (e *Experiences) Get(ctx context.Context, id int64) (*models.Experience, error) {
	return getOne[models.Experience](ctx, e.db, "experiences.get", id, `SELECT `+experienceColumns+` FROM experiences WHERE id = ?`, id)
}

func (e *Experiences) Create(ctx context.Context, in models.ExperienceInput) (*models.Experience, error) {
	in = in.Normalize()
	at := now()
	var id int64
	err := e.db.GetContext(ctx, &id, e.db.Rebind(`
INSERT INTO experiences (company, position, start_date, end_date, description, achievements, technologies,
  company_logo, location, employment_type, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`),
		in.Company, in.Position, in.StartDate, in.EndDate, in.Description, in.Achievements, in.Technologies,
		in.CompanyLogo, in.Location, string(in.EmploymentType), at, at)
	if err != nil {
		return nil, storageError(ctx, "experiences.create", 0, err)
	}
	return e.Get(ctx, id)
}

func (e *Experiences) Update(ctx context.Context, id int64, patch models.ExperiencePatch) (*models.Experience, error) {
	columns := ExperienceColumns(patch)
	if columns.Empty() {
		return e.Get(ctx, id)
	}
	query, args, err := experienceUpdates.build(id, columns, now())
	if err != nil {
		return nil, storageError(ctx, "experiences.update", id, err)
	}
	result, err := e.db.ExecContext(ctx, e.db.Rebind(query), args...)
	if err != nil {
		return nil, storageError(ctx, "experiences.update", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, nil
	}
	return e.Get(ctx, id)
}

func (e *Experiences) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, e.db, "experiences", id)
}

func (e *Experiences) LogoURLs(ctx context.Context) ([]string, error) {
	var values []*string
	if err := e.db.SelectContext(ctx, &values, `SELECT company_logo FROM experiences`); err != nil {
		return nil, storageError(ctx, "experiences.logo_urls", 0, err)
	}
	return nonEmpty(values), nil
}

func ExperienceColumns(patch models.ExperiencePatch) Patch {
	columns := Patch{}
	if patch.Company != nil {
		columns.Set(ExperienceCompany, strings.TrimSpace(*patch.Company))
	}
	if patch.Position != nil {
		columns.Set(ExperiencePosition, strings.TrimSpace(*patch.Position))
	}
	if patch.StartDate != nil {
		columns.Set(ExperienceStartDate, *patch.StartDate)
	}
	if patch.EndDate.Set {
		if patch.EndDate.Value == nil {
			columns.Set(ExperienceEndDate, nil)
		} else {
			columns.Set(ExperienceEndDate, *patch.EndDate.Value)
		}
	}
	if patch.Description != nil {
		columns.Set(ExperienceDescription, strings.TrimSpace(*patch.Description))
	}
	if patch.Achievements != nil {
		columns.Set(ExperienceAchievements, patch.Achievements.Clean())
	}
	if patch.Technologies != nil {
		columns.Set(ExperienceTechnologies, patch.Technologies.Clean())
	}
	if patch.CompanyLogo != nil {
		columns.Set(ExperienceCompanyLogo, optionalText(patch.CompanyLogo))
	}
	if patch.Location != nil {
		columns.Set(ExperienceLocation, strings.TrimSpace(*patch.Location))
	}
	if patch.EmploymentType != nil {
		columns.Set(ExperienceEmploymentType, string(*patch.EmploymentType))
	}
	return columns
}
