// Package content loads the static portfolio content: profile, experience,
// education, skills and Markdown projects. Pages read it at render time.
package content

import (
	"html/template"
	"sort"
	"strings"
	"time"
)

// Link is an external profile link.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Profile is the biography block of the home page.
type Profile struct {
	Name     string   `yaml:"name"`
	Title    string   `yaml:"title"`
	Location string   `yaml:"location"`
	Email    string   `yaml:"email"`
	Summary  string   `yaml:"summary"`
	About    []string `yaml:"about"`
	Links    []Link   `yaml:"links"`
}

// Experience is one position.
type Experience struct {
	Company    string   `yaml:"company"`
	Role       string   `yaml:"role"`
	Location   string   `yaml:"location"`
	Start      string   `yaml:"start"`
	End        string   `yaml:"end"`
	Highlights []string `yaml:"highlights"`
}

// Period formats the start and end of the position.
func (e Experience) Period() string {
	end := e.End
	if end == "" {
		end = "Present"
	}
	return e.Start + " – " + end
}

// Education is one degree or course.
type Education struct {
	Institution string `yaml:"institution"`
	Degree      string `yaml:"degree"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Notes       string `yaml:"notes"`
}

// SkillGroup is a titled list of skills.
type SkillGroup struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

// Project is a Markdown project page. Body is rendered HTML.
type Project struct {
	Slug     string    `yaml:"slug"`
	Title    string    `yaml:"title"`
	Summary  string    `yaml:"summary"`
	Date     time.Time `yaml:"date"`
	Tags     []string  `yaml:"tags"`
	Featured bool      `yaml:"featured"`
	Repo     string    `yaml:"repo"`
	URL      string    `yaml:"url"`
	Draft    bool      `yaml:"draft"`

	Body template.HTML `yaml:"-"`
}

// Matches reports whether q occurs in the title, summary or a tag.
func (p Project) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Summary), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Site is a complete, immutable content snapshot.
type Site struct {
	Profile    Profile
	Experience []Experience
	Education  []Education
	Skills     []SkillGroup
	// Projects are ordered featured first, then newest first.
	Projects []Project

	bySlug map[string]int
}

// Project looks up a project by slug.
func (s *Site) Project(slug string) (Project, bool) {
	i, ok := s.bySlug[slug]
	if !ok {
		return Project{}, false
	}
	return s.Projects[i], true
}

// Featured returns the featured projects in display order.
func (s *Site) Featured() []Project {
	var out []Project
	for _, p := range s.Projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Search returns the projects matching q in display order.
func (s *Site) Search(q string) []Project {
	out := make([]Project, 0, len(s.Projects))
	for _, p := range s.Projects {
		if p.Matches(q) {
			out = append(out, p)
		}
	}
	return out
}

// Tags returns every project tag once, sorted.
func (s *Site) Tags() []string {
	seen := map[string]struct{}{}
	for _, p := range s.Projects {
		for _, t := range p.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func (s *Site) index() {
	sort.SliceStable(s.Projects, func(i, j int) bool {
		a, b := s.Projects[i], s.Projects[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		return a.Date.After(b.Date)
	})
	s.bySlug = make(map[string]int, len(s.Projects))
	for i, p := range s.Projects {
		s.bySlug[p.Slug] = i
	}
}
