package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// StringList is an ordered list of strings stored in a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch value := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	default:
		return errors.New("string list: unsupported column type")
	}
	items := []string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
	}
	*l = items
	return nil
}

// Clean trims entries, drops empties and removes duplicates, keeping first occurrence order.
func (l StringList) Clean() StringList {
	seen := make(map[string]bool, len(l))
	cleaned := make(StringList, 0, len(l))
	for _, item := range l {
		value := strings.TrimSpace(item)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		cleaned = append(cleaned, value)
	}
	return cleaned
}

type EmploymentType string

const (
	FullTime   EmploymentType = "Full-time"
	PartTime   EmploymentType = "Part-time"
	Contract   EmploymentType = "Contract"
	Freelance  EmploymentType = "Freelance"
	Internship EmploymentType = "Internship"
)

var EmploymentTypes = []EmploymentType{FullTime, PartTime, Contract, Freelance, Internship}

func (t EmploymentType) Valid() bool {
	for _, known := range EmploymentTypes {
		if t == known {
			return true
		}
	}
	return false
}

const RoleAdmin = "admin"

type Project struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	TechStack   StringList `db:"tech_stack" json:"techStack"`
	GithubURL   *string    `db:"github_url" json:"githubUrl,omitempty"`
	DemoURL     *string    `db:"demo_url" json:"demoUrl,omitempty"`
	ImageURL    string     `db:"image_url" json:"imageUrl"`
	Featured    bool       `db:"featured" json:"featured"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

func (p Project) Key() int64 { return p.ID }

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

const DateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return Date{parsed.UTC().Truncate(24 * time.Hour)}, nil
		}
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return Date{}, err
	}
	return Date{parsed}, nil
}

func (d Date) String() string {
	return d.UTC().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.UTC(), nil
}

func (d *Date) Scan(src any) error {
	switch value := src.(type) {
	case time.Time:
		d.Time = time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		parsed, err := ParseDate(value[:min(len(value), len(DateLayout))])
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(value))
	}
	return errors.New("date: unsupported column type")
}

type Experience struct {
	ID             int64          `db:"id" json:"id"`
	Company        string         `db:"company" json:"company"`
	Position       string         `db:"position" json:"position"`
	StartDate      Date           `db:"start_date" json:"startDate"`
	EndDate        *Date          `db:"end_date" json:"endDate,omitempty"`
	Description    string         `db:"description" json:"description"`
	Achievements   StringList     `db:"achievements" json:"achievements"`
	Technologies   StringList     `db:"technologies" json:"technologies"`
	CompanyLogo    *string        `db:"company_logo" json:"companyLogo,omitempty"`
	Location       string         `db:"location" json:"location"`
	EmploymentType EmploymentType `db:"employment_type" json:"employmentType"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

func (e Experience) Key() int64 { return e.ID }

// Current reports whether the position has no end date.
func (e Experience) Current() bool { return e.EndDate == nil }

type ContactMessage struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (m ContactMessage) Key() int64 { return m.ID }

type AdminIdentity struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"externalId"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	Role       string    `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

type MetricSample struct {
	ID                string    `db:"id" json:"-"`
	CapturedAt        time.Time `db:"captured_at" json:"capturedAt"`
	ProcessRSSBytes   int64     `db:"process_rss_bytes" json:"processRssBytes"`
	SystemMemoryTotal int64     `db:"system_memory_total_bytes" json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `db:"system_memory_used_bytes" json:"systemMemoryUsedBytes"`
	UploadsDiskTotal  int64     `db:"uploads_disk_total_bytes" json:"uploadsDiskTotalBytes"`
	UploadsDiskUsed   int64     `db:"uploads_disk_used_bytes" json:"uploadsDiskUsedBytes"`
	ProcessCPULoad    float64   `db:"process_cpu_load" json:"processCpuLoad"`
	SystemCPULoad     float64   `db:"system_cpu_load" json:"systemCpuLoad"`
}

// ContentCounts summarizes the admin dashboard.
type ContentCounts struct {
	Projects         int `db:"projects" json:"projects"`
	FeaturedProjects int `db:"featured_projects" json:"featuredProjects"`
	Experiences      int `db:"experiences" json:"experiences"`
	Messages         int `db:"messages" json:"messages"`
	UnreadMessages   int `db:"unread_messages" json:"unreadMessages"`
}
