package ui

import (
	"strings"

	"portfolio/internal/content"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

// projectsBody lists every project with a datastar quick filter. The server
// applies q as well so the list works without scripts.
func projectsBody(site *content.Site, q string) []Node {
	q = strings.TrimSpace(q)
	all := site.Projects
	shown := site.Search(q)
	visible := make(map[string]bool, len(shown))
	for _, p := range shown {
		visible[p.Slug] = true
	}

	cards := make([]Node, 0, len(all))
	for _, p := range all {
		cards = append(cards, Div(
			Class("project-item"),
			If(!visible[p.Slug], Style("display: none")),
			data.Show(containsExpr(p.Title+" "+p.Summary+" "+strings.Join(p.Tags, " "))),
			projectCard(p),
		))
	}

	return []Node{
		H1(Text("Projects")),
		Form(
			Method("get"),
			Action("/projects"),
			Class(cardClass("toolbar")),
			data.Signals(map[string]any{"q": q}),
			Label(For("project-filter"), Class("sr-only"), Text("Filter projects")),
			Input(
				ID("project-filter"),
				Type("search"),
				Name("q"),
				Value(q),
				Placeholder("Filter by title, summary or tag"),
				AutoComplete("off"),
				data.Bind("q"),
			),
		),
		If(len(all) == 0, P(Class("muted"), Text("No projects yet."))),
		If(len(all) > 0 && len(shown) == 0, P(Class("muted"), Text("No projects match "+q+"."))),
		Div(Class("project-grid"), Group(cards)),
	}
}

func projectDetailBody(p content.Project) []Node {
	links := []Node{}
	if p.Repo != "" {
		links = append(links, Li(externalLink(p.Repo, "Source")))
	}
	if p.URL != "" {
		links = append(links, Li(externalLink(p.URL, "Live")))
	}

	return []Node{
		Article(
			Class("project"),
			P(A(Href("/projects"), Text("← All projects"))),
			H1(Text(p.Title)),
			If(!p.Date.IsZero(), P(Class("muted"), Text(formatDate(p.Date)))),
			If(p.Summary != "", P(Class("lead"), Text(p.Summary))),
			tagList(p.Tags),
			If(len(links) > 0, Ul(Class("links"), Group(links))),
			Div(Class("prose"), Raw(string(p.Body))),
		),
	}
}
