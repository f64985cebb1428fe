package store

import (
	"testing"
	"time"

	"devfolio-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBuilderUsesWhitelistOrder(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	patch := Patch{}.Set(ProjectFeatured, true).Set(ProjectTitle, "New")

	query, args, err := projectUpdates.build(7, patch, at)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE projects SET title = ?, featured = ?, updated_at = ? WHERE id = ?", query)
	assert.Equal(t, []any{"New", true, at, int64(7)}, args)
}

func TestUpdateBuilderRejectsUnknownColumn(t *testing.T) {
	patch := Patch{"title; DROP TABLE projects": "x"}
	_, _, err := projectUpdates.build(1, patch, time.Now())
	assert.Error(t, err)

	_, _, err = projectUpdates.build(1, Patch{ExperienceCompany: "Acme"}, time.Now())
	assert.Error(t, err)
}

func TestExperienceColumnsEndDate(t *testing.T) {
	assert.True(t, ExperienceColumns(models.ExperiencePatch{}).Empty())

	cleared := ExperienceColumns(models.ExperiencePatch{EndDate: models.SetDate(nil)})
	value, ok := cleared[ExperienceEndDate]
	assert.True(t, ok)
	assert.Nil(t, value)

	end := models.NewDate(2024, 5, 1)
	set := ExperienceColumns(models.ExperiencePatch{EndDate: models.SetDate(&end)})
	assert.Equal(t, end, set[ExperienceEndDate])
}

func TestProjectColumnsBlankURLClears(t *testing.T) {
	blank := " "
	columns := ProjectColumns(models.ProjectPatch{DemoURL: &blank})
	value, ok := columns[ProjectDemoURL]
	assert.True(t, ok)
	assert.Nil(t, value)
}
