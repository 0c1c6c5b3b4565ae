// Package models defines core data structures for profiles, nodes, and query results.
package models

import "strings"

// YearMonth is a partial date as found in profile sources. Month is 0 when unknown.
type YearMonth struct {
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month,omitempty" yaml:"month,omitempty"`
}

// IsZero reports whether no year is set.
func (ym *YearMonth) IsZero() bool {
	return ym == nil || ym.Year == 0
}

// ProfileRecord is the structured professional profile handed to ingestion.
// It is produced once by an acquisition collaborator and not mutated afterwards.
type ProfileRecord struct {
	FullName    string       `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Headline    string       `json:"headline,omitempty" yaml:"headline,omitempty"`
	Summary     string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Location    string       `json:"location,omitempty" yaml:"location,omitempty"`
	Country     string       `json:"country,omitempty" yaml:"country,omitempty"`
	Experiences []Experience `json:"experiences,omitempty" yaml:"experiences,omitempty"`
	Education   []Education  `json:"education,omitempty" yaml:"education,omitempty"`
	Skills      []string     `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// Experience is one position held. A nil EndsAt means the position is current.
type Experience struct {
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Company     string     `json:"company,omitempty" yaml:"company,omitempty"`
	Location    string     `json:"location,omitempty" yaml:"location,omitempty"`
	StartsAt    *YearMonth `json:"starts_at,omitempty" yaml:"starts_at,omitempty"`
	EndsAt      *YearMonth `json:"ends_at,omitempty" yaml:"ends_at,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Current reports whether the position has no end date.
func (e *Experience) Current() bool {
	return e.EndsAt.IsZero()
}

// IsEmpty reports whether the entry carries no text at all.
func (e *Experience) IsEmpty() bool {
	return e.Title == "" && e.Company == "" && e.Description == "" && e.Location == ""
}

// Education is one education entry.
type Education struct {
	School       string     `json:"school,omitempty" yaml:"school,omitempty"`
	Degree       string     `json:"degree,omitempty" yaml:"degree,omitempty"`
	FieldOfStudy string     `json:"field_of_study,omitempty" yaml:"field_of_study,omitempty"`
	StartsAt     *YearMonth `json:"starts_at,omitempty" yaml:"starts_at,omitempty"`
	EndsAt       *YearMonth `json:"ends_at,omitempty" yaml:"ends_at,omitempty"`
}

// IsEmpty reports whether the entry carries no text at all.
func (e *Education) IsEmpty() bool {
	return e.School == "" && e.Degree == "" && e.FieldOfStudy == ""
}

// Clean returns a copy of p with surrounding whitespace trimmed, empty experience and
// education entries dropped, and blank or duplicate skills removed. Source order is kept.
func (p *ProfileRecord) Clean() *ProfileRecord {
	if p == nil {
		return nil
	}
	out := &ProfileRecord{
		FullName: strings.TrimSpace(p.FullName),
		Headline: strings.TrimSpace(p.Headline),
		Summary:  strings.TrimSpace(p.Summary),
		Location: strings.TrimSpace(p.Location),
		Country:  strings.TrimSpace(p.Country),
	}
	for _, e := range p.Experiences {
		e.Title = strings.TrimSpace(e.Title)
		e.Company = strings.TrimSpace(e.Company)
		e.Location = strings.TrimSpace(e.Location)
		e.Description = strings.TrimSpace(e.Description)
		if e.StartsAt.IsZero() {
			e.StartsAt = nil
		}
		if e.EndsAt.IsZero() {
			e.EndsAt = nil
		}
		if e.IsEmpty() {
			continue
		}
		out.Experiences = append(out.Experiences, e)
	}
	for _, e := range p.Education {
		e.School = strings.TrimSpace(e.School)
		e.Degree = strings.TrimSpace(e.Degree)
		e.FieldOfStudy = strings.TrimSpace(e.FieldOfStudy)
		if e.StartsAt.IsZero() {
			e.StartsAt = nil
		}
		if e.EndsAt.IsZero() {
			e.EndsAt = nil
		}
		if e.IsEmpty() {
			continue
		}
		out.Education = append(out.Education, e)
	}
	seen := make(map[string]bool, len(p.Skills))
	for _, s := range p.Skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out.Skills = append(out.Skills, s)
	}
	return out
}
