package profile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/icebreaker/internal/models"
)

type section int

const (
	headerSection section = iota
	summarySection
	experienceSection
	educationSection
	skillsSection
)

var headings = map[string]section{
	"summary":         summarySection,
	"about":           summarySection,
	"profile":         summarySection,
	"experience":      experienceSection,
	"work experience": experienceSection,
	"employment":      experienceSection,
	"education":       educationSection,
	"skills":          skillsSection,
}

var (
	datePart  = `(?:[A-Za-z]{3,9}\.?\s+)?\d{4}`
	dateRange = regexp.MustCompile(`(?i)(` + datePart + `)\s*(?:-|\x{2013}|\x{2014}|to)\s*(` + datePart + `|present|current|now)`)
	yearOnly  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	schoolRe  = regexp.MustCompile(`(?i)universit|college|school|institut|academ`)
	skillSep  = regexp.MustCompile(`[,;|•·]`)
)

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseResume builds a profile from résumé text. The first line is taken as
// the name, the next two as headline and location, and the rest is split by
// section headings (Summary, Experience, Education, Skills). In Experience, a
// line naming "Title at Company" or a date range starts a new position and
// other lines extend its description. Unrecognized text ends up in the summary.
func ParseResume(text string) *models.ProfileRecord {
	p := &models.ProfileRecord{}
	var header, summary []string
	current := headerSection

	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}
		if s, ok := headings[strings.ToLower(strings.TrimSuffix(line, ":"))]; ok {
			current = s
			continue
		}
		switch current {
		case headerSection:
			header = append(header, line)
		case summarySection:
			summary = append(summary, line)
		case experienceSection:
			parseExperienceLine(p, line)
		case educationSection:
			p.Education = append(p.Education, parseEducation(line))
		case skillsSection:
			for _, s := range skillSep.Split(line, -1) {
				if s = strings.TrimSpace(s); s != "" {
					p.Skills = append(p.Skills, s)
				}
			}
		}
	}

	for i, line := range header {
		switch i {
		case 0:
			p.FullName = line
		case 1:
			p.Headline = line
		case 2:
			if !strings.ContainsAny(line, "0123456789@") {
				p.Location = line
				continue
			}
			summary = append(summary, line)
		default:
			summary = append(summary, line)
		}
	}
	p.Summary = strings.Join(summary, " ")
	return p
}

func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#*-•· \t")
	return strings.TrimSpace(s)
}

func parseExperienceLine(p *models.ProfileRecord, line string) {
	rest, start, end, dated := cutDates(line)
	title, company, ok := strings.Cut(rest, " at ")
	if !ok && !dated {
		if n := len(p.Experiences); n > 0 {
			e := &p.Experiences[n-1]
			e.Description = strings.TrimSpace(e.Description + " " + line)
			return
		}
		p.Experiences = append(p.Experiences, models.Experience{Description: line})
		return
	}
	e := models.Experience{StartsAt: start, EndsAt: end}
	if ok {
		e.Title = strings.TrimSpace(title)
		company, location, _ := strings.Cut(company, ",")
		e.Company = strings.TrimSpace(company)
		e.Location = strings.TrimSpace(location)
	} else {
		e.Title = rest
	}
	p.Experiences = append(p.Experiences, e)
}

func parseEducation(line string) models.Education {
	rest, start, end, _ := cutDates(line)
	if start == nil {
		if m := yearOnly.FindString(rest); m != "" {
			year, _ := strconv.Atoi(m)
			end = &models.YearMonth{Year: year}
			rest = trimSeparators(strings.Replace(rest, m, "", 1))
		}
	}
	e := models.Education{StartsAt: start, EndsAt: end}
	var other []string
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case e.School == "" && schoolRe.MatchString(part):
			e.School = part
		default:
			other = append(other, part)
		}
	}
	if e.School == "" && len(other) > 0 {
		e.School, other = other[0], other[1:]
	}
	if len(other) > 0 {
		degree, field, _ := strings.Cut(strings.Join(other, ", "), " in ")
		e.Degree = strings.TrimSpace(degree)
		e.FieldOfStudy = strings.TrimSpace(field)
	}
	return e
}

// cutDates removes the first date range from line. A range ending in
// "present" or similar leaves end nil.
func cutDates(line string) (rest string, start, end *models.YearMonth, ok bool) {
	loc := dateRange.FindStringSubmatchIndex(line)
	if loc == nil {
		return trimSeparators(line), nil, nil, false
	}
	start = parseYearMonth(line[loc[2]:loc[3]])
	end = parseYearMonth(line[loc[4]:loc[5]])
	rest = trimSeparators(line[:loc[0]] + line[loc[1]:])
	return rest, start, end, true
}

func parseYearMonth(s string) *models.YearMonth {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	year, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil
	}
	ym := &models.YearMonth{Year: year}
	if len(fields) > 1 {
		name := strings.ToLower(strings.TrimSuffix(fields[0], "."))
		if len(name) >= 3 {
			ym.Month = months[name[:3]]
		}
	}
	return ym
}

func trimSeparators(s string) string {
	s = strings.ReplaceAll(s, "()", "")
	return strings.Trim(strings.TrimSpace(s), ",;|-\u2013\u2014() \t")
}
