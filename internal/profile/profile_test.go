package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleResume = `# Jane Doe
Senior Engineer at Acme
Berlin, Germany

## Summary
Builds distributed systems.
Mentors engineers.

## Experience
- Senior Engineer at Acme, Berlin, 2020 – present
  Leads the platform team.
- Engineer at Initech (Mar 2015 - Dec 2019)

## Education
BSc in Physics, State University, 2011-2015

Skills:
Go, Kubernetes; PostgreSQL
`

func TestParseResume(t *testing.T) {
	p := ParseResume(sampleResume)

	if p.FullName != "Jane Doe" || p.Headline != "Senior Engineer at Acme" || p.Location != "Berlin, Germany" {
		t.Errorf("header = %q / %q / %q", p.FullName, p.Headline, p.Location)
	}
	if p.Summary != "Builds distributed systems. Mentors engineers." {
		t.Errorf("summary = %q", p.Summary)
	}

	if len(p.Experiences) != 2 {
		t.Fatalf("experiences = %+v", p.Experiences)
	}
	cur := p.Experiences[0]
	if cur.Title != "Senior Engineer" || cur.Company != "Acme" || cur.Location != "Berlin" {
		t.Errorf("current = %+v", cur)
	}
	if !cur.Current() || cur.StartsAt == nil || cur.StartsAt.Year != 2020 {
		t.Errorf("current dates = %+v - %+v", cur.StartsAt, cur.EndsAt)
	}
	if cur.Description != "Leads the platform team." {
		t.Errorf("description = %q", cur.Description)
	}
	past := p.Experiences[1]
	if past.Company != "Initech" || past.StartsAt.Month != 3 || past.EndsAt == nil || past.EndsAt.Year != 2019 || past.EndsAt.Month != 12 {
		t.Errorf("past = %+v start=%+v end=%+v", past, past.StartsAt, past.EndsAt)
	}

	if len(p.Education) != 1 {
		t.Fatalf("education = %+v", p.Education)
	}
	edu := p.Education[0]
	if edu.School != "State University" || edu.Degree != "BSc" || edu.FieldOfStudy != "Physics" {
		t.Errorf("education = %+v", edu)
	}
	if edu.StartsAt.Year != 2011 || edu.EndsAt.Year != 2015 {
		t.Errorf("education dates = %+v - %+v", edu.StartsAt, edu.EndsAt)
	}

	want := []string{"Go", "Kubernetes", "PostgreSQL"}
	if len(p.Skills) != len(want) {
		t.Fatalf("skills = %v", p.Skills)
	}
	for i := range want {
		if p.Skills[i] != want[i] {
			t.Errorf("skills[%d] = %q", i, p.Skills[i])
		}
	}
}

func TestParseResume_NoSections(t *testing.T) {
	p := ParseResume("John Roe\nArchitect\njohn@example.com\nDesigns payment platforms.")
	if p.FullName != "John Roe" || p.Headline != "Architect" || p.Location != "" {
		t.Errorf("header = %+v", p)
	}
	if p.Summary != "john@example.com Designs payment platforms." {
		t.Errorf("summary = %q", p.Summary)
	}
}

func TestParseResume_EducationSingleYear(t *testing.T) {
	p := ParseResume("A\n\nEducation\nMIT, MSc in Robotics, 2019")
	if len(p.Education) != 1 {
		t.Fatalf("education = %+v", p.Education)
	}
	e := p.Education[0]
	if e.School != "MIT" || e.Degree != "MSc" || e.FieldOfStudy != "Robotics" || e.EndsAt == nil || e.EndsAt.Year != 2019 {
		t.Errorf("education = %+v end=%+v", e, e.EndsAt)
	}
}

func TestMock(t *testing.T) {
	p := Mock()
	if p.FullName != "Eden Marco" || len(p.Experiences) != 2 || len(p.Skills) != 9 {
		t.Errorf("mock = %+v", p)
	}
	if !p.Experiences[0].Current() || p.Experiences[1].Current() {
		t.Error("first experience should be current, second past")
	}
	p.FullName = "changed"
	if Mock().FullName != "Eden Marco" {
		t.Error("Mock should return a fresh copy")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	p, err := Load(write("p.json", `{"full_name":"Jane","experiences":[{"title":"Engineer","starts_at":{"year":2020}}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Jane" || p.Experiences[0].StartsAt.Year != 2020 {
		t.Errorf("json = %+v", p)
	}

	p, err = Load(write("p.yaml", "full_name: Jane\nskills: [Go, Rust]\neducation:\n  - school: MIT\n    starts_at: {year: 2010}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Jane" || len(p.Skills) != 2 || p.Education[0].StartsAt.Year != 2010 {
		t.Errorf("yaml = %+v", p)
	}

	p, err = Load(write("cv.md", sampleResume))
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Jane Doe" || len(p.Experiences) != 2 {
		t.Errorf("markdown = %+v", p)
	}

	if _, err := Load(write("empty.json", "  \n")); !errors.Is(err, ErrEmptySource) {
		t.Errorf("empty: err = %v", err)
	}
	if _, err := Load(write("bad.json", "{")); err == nil {
		t.Error("invalid json should fail")
	}
	if _, err := Load(write("cv.xlsx", "x")); err == nil {
		t.Error("unsupported format should fail")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}
