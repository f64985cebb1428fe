package validation

import (
	"strconv"

	"devfolio-backend-go/internal/models"
)

var ImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

const DefaultMaxUploadBytes int64 = 5 << 20

func ProjectSchema() Schema {
	return Schema{
		"title": {
			Required("Title is required"),
			MinLength(3, "Title must be at least 3 characters"),
			MaxLength(100, "Title must be at most 100 characters"),
		},
		"description": {
			Required("Description is required"),
			MinLength(10, "Description must be at least 10 characters"),
			MaxLength(1000, "Description must be at most 1000 characters"),
		},
		"techStack": {
			MinItems(1, "Add at least one technology"),
		},
		"githubUrl": {
			HostURL("github.com", "GitHub URL must point to github.com"),
		},
		"demoUrl": {
			URL("Demo URL must be a valid URL"),
		},
		"imageUrl": {
			Required("Project image is required"),
		},
	}
}

func ProjectRecord(in models.ProjectInput) Record {
	return Record{
		"title":       in.Title,
		"description": in.Description,
		"techStack":   []string(in.TechStack),
		"githubUrl":   in.GithubURL,
		"demoUrl":     in.DemoURL,
		"imageUrl":    in.ImageURL,
	}
}

func employmentTypeNames() []string {
	names := make([]string, 0, len(models.EmploymentTypes))
	for _, t := range models.EmploymentTypes {
		names = append(names, string(t))
	}
	return names
}

// ExperienceSchema checks the end date against the start date returned by start.
func ExperienceSchema(start func() any) Schema {
	return Schema{
		"company": {
			Required("Company is required"),
			MinLength(2, "Company must be at least 2 characters"),
			MaxLength(100, "Company must be at most 100 characters"),
		},
		"position": {
			Required("Position is required"),
			MinLength(2, "Position must be at least 2 characters"),
			MaxLength(100, "Position must be at most 100 characters"),
		},
		"description": {
			Required("Description is required"),
			MinLength(10, "Description must be at least 10 characters"),
			MaxLength(2000, "Description must be at most 2000 characters"),
		},
		"location": {
			Required("Location is required"),
			MinLength(2, "Location must be at least 2 characters"),
			MaxLength(100, "Location must be at most 100 characters"),
		},
		"employmentType": {
			Required("Employment type is required"),
			OneOf("Employment type is not supported", employmentTypeNames()...),
		},
		"startDate": {
			Required("Start date is required"),
		},
		"endDate": {
			NotBefore(start, "End date cannot be before start date"),
		},
		"achievements": {
			MinItems(1, "Add at least one achievement"),
		},
		"technologies": {
			MinItems(1, "Add at least one technology"),
		},
	}
}

func ExperienceRecord(in models.ExperienceInput) Record {
	var end any
	if in.EndDate != nil {
		end = *in.EndDate
	}
	return Record{
		"company":        in.Company,
		"position":       in.Position,
		"description":    in.Description,
		"location":       in.Location,
		"employmentType": string(in.EmploymentType),
		"startDate":      in.StartDate,
		"endDate":        end,
		"achievements":   []string(in.Achievements),
		"technologies":   []string(in.Technologies),
	}
}

// ValidateExperience binds the cross-field date check to in.
func ValidateExperience(in models.ExperienceInput) FormResult {
	return ValidateForm(ExperienceRecord(in), ExperienceSchema(func() any { return in.StartDate }))
}

func ValidateProject(in models.ProjectInput) FormResult {
	return ValidateForm(ProjectRecord(in), ProjectSchema())
}

func ContactSchema() Schema {
	return Schema{
		"name": {
			Required("Name is required"),
			MinLength(2, "Name must be at least 2 characters"),
			MaxLength(100, "Name must be at most 100 characters"),
		},
		"email": {
			Required("Email is required"),
			MaxLength(254, "Email must be at most 254 characters"),
			Email("Please enter a valid email address"),
		},
		"message": {
			Required("Message is required"),
			MinLength(10, "Message must be at least 10 characters"),
			MaxLength(2000, "Message must be at most 2000 characters"),
		},
	}
}

func ValidateContact(in models.ContactInput) FormResult {
	return ValidateForm(Record{
		"name":    in.Name,
		"email":   in.Email,
		"message": in.Message,
	}, ContactSchema())
}

func UploadSchema(maxBytes int64) Schema {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return Schema{
		"size": {
			MaxFileSize(maxBytes, "File must be smaller than "+strconv.FormatInt(maxBytes>>20, 10)+"MB"),
		},
		"contentType": {
			Required("File type could not be determined"),
			FileType("Only JPEG, PNG, WebP and GIF images are allowed", ImageTypes...),
		},
		"type": {
			Required("Upload type is required"),
			OneOf("Upload type must be project or logo", "project", "logo"),
		},
	}
}
