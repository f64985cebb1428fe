package validation

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"devfolio-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFieldFirstFailureWins(t *testing.T) {
	rules := []Rule{
		Required("required"),
		MinLength(3, "too short"),
		MaxLength(5, "too long"),
	}
	assert.Equal(t, FieldResult{IsValid: false, Error: "required"}, ValidateField("  ", rules...))
	assert.Equal(t, FieldResult{IsValid: false, Error: "too short"}, ValidateField("ab", rules...))
	assert.Equal(t, FieldResult{IsValid: false, Error: "too long"}, ValidateField("abcdef", rules...))
	assert.Equal(t, FieldResult{IsValid: true}, ValidateField("abcd", rules...))
}

func TestOptionalRulesSkipEmptyValues(t *testing.T) {
	var missing *string
	for _, rule := range []Rule{
		MinLength(3, "x"),
		Email("x"),
		URL("x"),
		HostURL("github.com", "x"),
		OneOf("x", "a"),
		FileType("x", "image/png"),
	} {
		assert.True(t, rule.Check(""), rule.Name)
		assert.True(t, rule.Check(missing), rule.Name)
		assert.True(t, rule.Check(nil), rule.Name)
	}
}

func TestRules(t *testing.T) {
	cases := []struct {
		name  string
		rule  Rule
		value any
		want  bool
	}{
		{"email ok", Email("x"), "jo@example.com", true},
		{"email bad", Email("x"), "jo@", false},
		{"url https", URL("x"), "https://example.com/demo", true},
		{"url no scheme", URL("x"), "example.com", false},
		{"url ftp", URL("x"), "ftp://example.com", false},
		{"host exact", HostURL("github.com", "x"), "https://github.com/me/repo", true},
		{"host subdomain", HostURL("github.com", "x"), "https://gist.github.com/me", true},
		{"host other", HostURL("github.com", "x"), "https://gitlab.com/me/repo", false},
		{"host lookalike", HostURL("github.com", "x"), "https://notgithub.com/me", false},
		{"min items", MinItems(1, "x"), []string{"Go"}, true},
		{"min items blanks", MinItems(1, "x"), []string{" ", ""}, false},
		{"min items nil", MinItems(1, "x"), []string(nil), false},
		{"one of", OneOf("x", "project", "logo"), "logo", true},
		{"one of miss", OneOf("x", "project", "logo"), "avatar", false},
		{"size under", MaxFileSize(10, "x"), int64(10), true},
		{"size over", MaxFileSize(10, "x"), 11, false},
		{"type params", FileType("x", "image/png"), "image/PNG; charset=binary", true},
		{"type other", FileType("x", "image/png"), "application/pdf", false},
		{"min length runes", MinLength(3, "x"), "żół", true},
		{"pattern match", Pattern(regexp.MustCompile(`^v\d+$`), "x"), "v2", true},
		{"pattern miss", Pattern(regexp.MustCompile(`^v\d+$`), "x"), "2", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.rule.Check(tc.value))
		})
	}
}

func TestNotBefore(t *testing.T) {
	start := models.NewDate(2022, time.March, 1)
	rule := NotBefore(func() any { return start }, "before")

	assert.False(t, rule.Check(models.NewDate(2022, time.February, 28)))
	assert.True(t, rule.Check(models.NewDate(2022, time.March, 1)))
	assert.True(t, rule.Check(nil))

	var noStart *models.Date
	open := NotBefore(func() any { return noStart }, "before")
	assert.True(t, open.Check(models.NewDate(1990, time.January, 1)))
}

func TestValidateFormAggregatesInFieldOrder(t *testing.T) {
	result := ValidateProject(models.ProjectInput{})
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"Description is required",
		"Project image is required",
		"Add at least one technology",
		"Title is required",
	}, result.Errors)
	assert.Equal(t, "Title is required", result.FieldErrors["title"])
	assert.NotContains(t, result.FieldErrors, "githubUrl")
}

func TestValidateProject(t *testing.T) {
	github := "https://github.com/me/site"
	in := models.ProjectInput{
		Title:       "Portfolio",
		Description: "Personal site and CMS backend",
		TechStack:   models.StringList{"Go"},
		GithubURL:   &github,
		ImageURL:    "/uploads/projects/site.png",
	}
	assert.True(t, ValidateProject(in).IsValid)

	gitlab := "https://gitlab.com/me/site"
	in.GithubURL = &gitlab
	in.Title = strings.Repeat("a", 101)
	result := ValidateProject(in)
	assert.False(t, result.IsValid)
	assert.Equal(t, map[string]string{
		"githubUrl": "GitHub URL must point to github.com",
		"title":     "Title must be at most 100 characters",
	}, result.FieldErrors)
}

func TestValidateExperience(t *testing.T) {
	end := models.NewDate(2020, time.January, 1)
	in := models.ExperienceInput{
		Company:        "Acme",
		Position:       "Engineer",
		StartDate:      models.NewDate(2021, time.June, 1),
		EndDate:        &end,
		Description:    "Built the billing platform",
		Achievements:   models.StringList{"Shipped v2"},
		Technologies:   models.StringList{"Go"},
		Location:       "Remote",
		EmploymentType: "Volunteer",
	}
	result := ValidateExperience(in)
	require.False(t, result.IsValid)
	assert.Equal(t, "End date cannot be before start date", result.FieldErrors["endDate"])
	assert.Equal(t, "Employment type is not supported", result.FieldErrors["employmentType"])

	in.EndDate = nil
	in.EmploymentType = models.FullTime
	assert.True(t, ValidateExperience(in).IsValid)

	in.StartDate = models.Date{}
	assert.Equal(t, "Start date is required", ValidateExperience(in).FieldErrors["startDate"])
}

func TestValidateContact(t *testing.T) {
	for _, name := range []string{"Jo Smith", "Jo 2", "Anna (Acme)"} {
		ok := models.ContactInput{Name: name, Email: "jo@example.com", Message: "Hello there, nice site"}
		assert.True(t, ValidateContact(ok).IsValid, name)
	}

	bad := models.ContactInput{Name: "J", Email: "jo", Message: "hi"}
	result := ValidateContact(bad)
	assert.Equal(t, map[string]string{
		"name":    "Name must be at least 2 characters",
		"email":   "Please enter a valid email address",
		"message": "Message must be at least 10 characters",
	}, result.FieldErrors)
}

func TestUploadSchema(t *testing.T) {
	schema := UploadSchema(0)
	result := ValidateForm(Record{
		"size":        DefaultMaxUploadBytes + 1,
		"contentType": "application/pdf",
		"type":        "avatar",
	}, schema)
	assert.Equal(t, map[string]string{
		"size":        "File must be smaller than 5MB",
		"contentType": "Only JPEG, PNG, WebP and GIF images are allowed",
		"type":        "Upload type must be project or logo",
	}, result.FieldErrors)

	assert.True(t, ValidateForm(Record{
		"size":        int64(1024),
		"contentType": "image/webp",
		"type":        "project",
	}, schema).IsValid)
}
