package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

type ProjectInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TechStack   StringList `json:"techStack"`
	GithubURL   *string    `json:"githubUrl,omitempty"`
	DemoURL     *string    `json:"demoUrl,omitempty"`
	ImageURL    string     `json:"imageUrl"`
	Featured    bool       `json:"featured"`
}

// Normalize trims text fields, de-duplicates the tech stack and turns blank optional URLs into nil.
func (in ProjectInput) Normalize() ProjectInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.TechStack = in.TechStack.Clean()
	in.GithubURL = blankToNil(in.GithubURL)
	in.DemoURL = blankToNil(in.DemoURL)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

func (p Project) Input() ProjectInput {
	return ProjectInput{
		Title:       p.Title,
		Description: p.Description,
		TechStack:   append(StringList{}, p.TechStack...),
		GithubURL:   p.GithubURL,
		DemoURL:     p.DemoURL,
		ImageURL:    p.ImageURL,
		Featured:    p.Featured,
	}
}

// ProjectPatch carries only the fields supplied by the caller. A blank optional URL clears it.
type ProjectPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	TechStack   *StringList `json:"techStack,omitempty"`
	GithubURL   *string     `json:"githubUrl,omitempty"`
	DemoURL     *string     `json:"demoUrl,omitempty"`
	ImageURL    *string     `json:"imageUrl,omitempty"`
	Featured    *bool       `json:"featured,omitempty"`
}

func (p ProjectPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.TechStack == nil && p.GithubURL == nil &&
		p.DemoURL == nil && p.ImageURL == nil && p.Featured == nil
}

// Apply returns the input that results from applying the patch to in.
func (p ProjectPatch) Apply(in ProjectInput) ProjectInput {
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.TechStack != nil {
		in.TechStack = *p.TechStack
	}
	if p.GithubURL != nil {
		in.GithubURL = p.GithubURL
	}
	if p.DemoURL != nil {
		in.DemoURL = p.DemoURL
	}
	if p.ImageURL != nil {
		in.ImageURL = *p.ImageURL
	}
	if p.Featured != nil {
		in.Featured = *p.Featured
	}
	return in.Normalize()
}

// Full turns a complete input into a patch touching every field.
func (in ProjectInput) Full() ProjectPatch {
	in = in.Normalize()
	stack := in.TechStack
	featured := in.Featured
	return ProjectPatch{
		Title:       &in.Title,
		Description: &in.Description,
		TechStack:   &stack,
		GithubURL:   nilToBlank(in.GithubURL),
		DemoURL:     nilToBlank(in.DemoURL),
		ImageURL:    &in.ImageURL,
		Featured:    &featured,
	}
}

type ExperienceInput struct {
	Company        string         `json:"company"`
	Position       string         `json:"position"`
	StartDate      Date           `json:"startDate"`
	EndDate        *Date          `json:"endDate,omitempty"`
	Description    string         `json:"description"`
	Achievements   StringList     `json:"achievements"`
	Technologies   StringList     `json:"technologies"`
	CompanyLogo    *string        `json:"companyLogo,omitempty"`
	Location       string         `json:"location"`
	EmploymentType EmploymentType `json:"employmentType"`
}

func (in ExperienceInput) Normalize() ExperienceInput {
	in.Company = strings.TrimSpace(in.Company)
	in.Position = strings.TrimSpace(in.Position)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Achievements = in.Achievements.Clean()
	in.Technologies = in.Technologies.Clean()
	in.CompanyLogo = blankToNil(in.CompanyLogo)
	if in.EndDate != nil && in.EndDate.IsZero() {
		in.EndDate = nil
	}
	return in
}

func (e Experience) Input() ExperienceInput {
	return ExperienceInput{
		Company:        e.Company,
		Position:       e.Position,
		StartDate:      e.StartDate,
		EndDate:        e.EndDate,
		Description:    e.Description,
		Achievements:   append(StringList{}, e.Achievements...),
		Technologies:   append(StringList{}, e.Technologies...),
		CompanyLogo:    e.CompanyLogo,
		Location:       e.Location,
		EmploymentType: e.EmploymentType,
	}
}

// OptionalDate distinguishes an absent JSON key from an explicit null.
type OptionalDate struct {
	Set   bool
	Value *Date
}

func SetDate(d *Date) OptionalDate {
	return OptionalDate{Set: true, Value: d}
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		o.Value = nil
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	o.Value = &parsed
	return nil
}

func (o OptionalDate) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return o.Value.MarshalJSON()
}

type ExperiencePatch struct {
	Company        *string         `json:"company,omitempty"`
	Position       *string         `json:"position,omitempty"`
	StartDate      *Date           `json:"startDate,omitempty"`
	EndDate        OptionalDate    `json:"endDate"`
	Description    *string         `json:"description,omitempty"`
	Achievements   *StringList     `json:"achievements,omitempty"`
	Technologies   *StringList     `json:"technologies,omitempty"`
	CompanyLogo    *string         `json:"companyLogo,omitempty"`
	Location       *string         `json:"location,omitempty"`
	EmploymentType *EmploymentType `json:"employmentType,omitempty"`
}

// MarshalJSON leaves endDate out unless it was explicitly set.
func (p ExperiencePatch) MarshalJSON() ([]byte, error) {
	type plain ExperiencePatch
	raw, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	if p.EndDate.Set {
		return raw, nil
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "endDate")
	return json.Marshal(fields)
}

func (p ExperiencePatch) Empty() bool {
	return p.Company == nil && p.Position == nil && p.StartDate == nil && !p.EndDate.Set &&
		p.Description == nil && p.Achievements == nil && p.Technologies == nil &&
		p.CompanyLogo == nil && p.Location == nil && p.EmploymentType == nil
}

func (p ExperiencePatch) Apply(in ExperienceInput) ExperienceInput {
	if p.Company != nil {
		in.Company = *p.Company
	}
	if p.Position != nil {
		in.Position = *p.Position
	}
	if p.StartDate != nil {
		in.StartDate = *p.StartDate
	}
	if p.EndDate.Set {
		in.EndDate = p.EndDate.Value
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Achievements != nil {
		in.Achievements = *p.Achievements
	}
	if p.Technologies != nil {
		in.Technologies = *p.Technologies
	}
	if p.CompanyLogo != nil {
		in.CompanyLogo = p.CompanyLogo
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.EmploymentType != nil {
		in.EmploymentType = *p.EmploymentType
	}
	return in.Normalize()
}

func (in ExperienceInput) Full() ExperiencePatch {
	in = in.Normalize()
	start := in.StartDate
	achievements := in.Achievements
	technologies := in.Technologies
	employment := in.EmploymentType
	return ExperiencePatch{
		Company:        &in.Company,
		Position:       &in.Position,
		StartDate:      &start,
		EndDate:        SetDate(in.EndDate),
		Description:    &in.Description,
		Achievements:   &achievements,
		Technologies:   &technologies,
		CompanyLogo:    nilToBlank(in.CompanyLogo),
		Location:       &in.Location,
		EmploymentType: &employment,
	}
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (in ContactInput) Normalize() ContactInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Message = strings.TrimSpace(in.Message)
	return in
}

// ContactPatch is the only mutation allowed on a stored message.
type ContactPatch struct {
	Read *bool `json:"read"`
}

func (p ContactPatch) Empty() bool { return p.Read == nil }

func blankToNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nilToBlank(value *string) *string {
	if value == nil {
		empty := ""
		return &empty
	}
	return value
}
