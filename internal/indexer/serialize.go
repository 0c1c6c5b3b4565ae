package indexer

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/pkg/utils"
)

// Source field names recorded in node metadata.
const (
	FieldIdentity   = "identity"
	FieldSummary    = "summary"
	FieldExperience = "experience"
	FieldEducation  = "education"
	FieldSkills     = "skills"
)

// fieldGroup is one serialized group of profile fields, chunked independently.
type fieldGroup struct {
	field string
	text  string
}

// serializeProfile renders p as prose, one group per field in a fixed order:
// identity, summary, each experience, each education entry, skills.
// Groups with no content are omitted. p must already be cleaned.
func serializeProfile(p *models.ProfileRecord) []fieldGroup {
	subject := p.FullName
	if subject == "" {
		subject = "This person"
	}
	var groups []fieldGroup
	add := func(field, text string) {
		if text = utils.CollapseSpace(text); text != "" {
			groups = append(groups, fieldGroup{field: field, text: text})
		}
	}

	add(FieldIdentity, identityText(subject, p))
	if p.Summary != "" {
		add(FieldSummary, fmt.Sprintf("About %s: %s", subject, p.Summary))
	}
	for i := range p.Experiences {
		add(fmt.Sprintf("%s[%d]", FieldExperience, i), experienceText(subject, &p.Experiences[i]))
	}
	for i := range p.Education {
		add(fmt.Sprintf("%s[%d]", FieldEducation, i), educationText(subject, &p.Education[i]))
	}
	if len(p.Skills) > 0 {
		add(FieldSkills, fmt.Sprintf("%s's skills include: %s.", subject, strings.Join(p.Skills, ", ")))
	}
	return groups
}

func identityText(subject string, p *models.ProfileRecord) string {
	if p.Headline == "" && p.Location == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(subject)
	if p.Headline != "" {
		b.WriteString(" is ")
		b.WriteString(p.Headline)
		if p.Location != "" {
			b.WriteString(",")
		}
	}
	if p.Location != "" {
		b.WriteString(" based in ")
		b.WriteString(p.Location)
		if p.Country != "" && !strings.Contains(p.Location, p.Country) {
			b.WriteString(", ")
			b.WriteString(p.Country)
		}
	}
	b.WriteString(".")
	return b.String()
}

func experienceText(subject string, e *models.Experience) string {
	var b strings.Builder
	b.WriteString(subject)
	if e.Current() {
		b.WriteString(" works")
	} else {
		b.WriteString(" worked")
	}
	if e.Title != "" {
		b.WriteString(" as ")
		b.WriteString(e.Title)
	}
	if e.Company != "" {
		b.WriteString(" at ")
		b.WriteString(e.Company)
	}
	if e.Location != "" {
		b.WriteString(" in ")
		b.WriteString(e.Location)
	}
	switch {
	case e.Current() && !e.StartsAt.IsZero():
		fmt.Fprintf(&b, " since %s, current role", formatYearMonth(e.StartsAt))
	case e.Current():
		b.WriteString(", current role")
	case !e.StartsAt.IsZero():
		fmt.Fprintf(&b, " from %s to %s", formatYearMonth(e.StartsAt), formatYearMonth(e.EndsAt))
	default:
		fmt.Fprintf(&b, " until %s", formatYearMonth(e.EndsAt))
	}
	b.WriteString(".")
	if e.Description != "" {
		b.WriteString(" ")
		b.WriteString(e.Description)
	}
	return b.String()
}

func educationText(subject string, e *models.Education) string {
	var b strings.Builder
	b.WriteString(subject)
	b.WriteString(" studied")
	if e.FieldOfStudy != "" {
		b.WriteString(" ")
		b.WriteString(e.FieldOfStudy)
	}
	if e.School != "" {
		b.WriteString(" at ")
		b.WriteString(e.School)
	}
	if e.Degree != "" {
		fmt.Fprintf(&b, " (%s)", e.Degree)
	}
	switch {
	case !e.StartsAt.IsZero() && !e.EndsAt.IsZero():
		fmt.Fprintf(&b, ", from %d to %d", e.StartsAt.Year, e.EndsAt.Year)
	case !e.StartsAt.IsZero():
		fmt.Fprintf(&b, ", starting %d", e.StartsAt.Year)
	case !e.EndsAt.IsZero():
		fmt.Fprintf(&b, ", finishing %d", e.EndsAt.Year)
	}
	b.WriteString(".")
	return b.String()
}

// formatYearMonth renders "March 2020", or "2020" when the month is unknown.
func formatYearMonth(ym *models.YearMonth) string {
	if ym.IsZero() {
		return ""
	}
	if ym.Month >= 1 && ym.Month <= 12 {
		return fmt.Sprintf("%s %d", time.Month(ym.Month), ym.Year)
	}
	return fmt.Sprintf("%d", ym.Year)
}
