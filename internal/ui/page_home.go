package ui

import (
	"portfolio/internal/content"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func homeBody(site *content.Site) []Node {
	p := site.Profile

	links := make([]Node, 0, len(p.Links)+1)
	for _, l := range p.Links {
		links = append(links, Li(externalLink(l.URL, l.Label)))
	}
	if p.Email != "" {
		links = append(links, Li(A(Href("mailto:"+p.Email), Text(p.Email))))
	}

	about := make([]Node, 0, len(p.About))
	for _, para := range p.About {
		about = append(about, P(Text(para)))
	}

	body := []Node{
		Section(
			Class("hero"),
			H1(Text(p.Name)),
			If(p.Title != "", P(Class("lead"), Text(p.Title))),
			If(p.Location != "", P(Class("muted"), Text(p.Location))),
			If(p.Summary != "", P(Text(p.Summary))),
			If(len(links) > 0, Ul(Class("links"), Group(links))),
		),
	}
	if len(about) > 0 {
		body = append(body, Section(Aria("labelledby", "about"), H2(ID("about"), Text("About")), Group(about)))
	}
	if featured := site.Featured(); len(featured) > 0 {
		body = append(body, Section(
			Aria("labelledby", "featured"),
			H2(ID("featured"), Text("Featured projects")),
			Div(Class("project-grid"), Map(featured, projectCard)),
			P(A(Href("/projects"), Text("All projects"))),
		))
	}
	if len(site.Experience) > 0 {
		body = append(body, Section(
			Aria("labelledby", "experience"),
			H2(ID("experience"), Text("Experience")),
			Ol(Class("timeline"), Map(site.Experience, experienceItem)),
		))
	}
	if len(site.Skills) > 0 {
		body = append(body, Section(
			Aria("labelledby", "skills"),
			H2(ID("skills"), Text("Skills")),
			Map(site.Skills, func(g content.SkillGroup) Node {
				return Div(Class("skill-group"), H3(Text(g.Name)), tagList(g.Items))
			}),
		))
	}
	if len(site.Education) > 0 {
		body = append(body, Section(
			Aria("labelledby", "education"),
			H2(ID("education"), Text("Education")),
			Ol(Class("timeline"), Map(site.Education, educationItem)),
		))
	}
	return body
}

func experienceItem(e content.Experience) Node {
	highlights := make([]Node, 0, len(e.Highlights))
	for _, hl := range e.Highlights {
		highlights = append(highlights, Li(Text(hl)))
	}
	return Li(
		H3(Text(e.Role+" · "+e.Company)),
		P(Class("muted"), Text(e.Period()), If(e.Location != "", Text(" · "+e.Location))),
		If(len(highlights) > 0, Ul(Group(highlights))),
	)
}

func educationItem(e content.Education) Node {
	period := e.Start
	if e.End != "" {
		period += " – " + e.End
	}
	return Li(
		H3(Text(e.Degree)),
		P(Class("muted"), Text(e.Institution), If(period != "", Text(" · "+period))),
		If(e.Notes != "", P(Text(e.Notes))),
	)
}

func projectCard(p content.Project) Node {
	return Article(
		Class(cardClass("project-card")),
		H3(A(Href("/projects/"+p.Slug), Text(p.Title))),
		If(!p.Date.IsZero(), P(Class("muted"), Text(formatDate(p.Date)))),
		If(p.Summary != "", P(Text(p.Summary))),
		tagList(p.Tags),
	)
}
