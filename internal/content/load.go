package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// SiteFile is the YAML document holding everything except projects.
const SiteFile = "site.yaml"

// ProjectsDir holds one Markdown file per project.
const ProjectsDir = "projects"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

type siteDocument struct {
	Profile    Profile      `yaml:"profile"`
	Experience []Experience `yaml:"experience"`
	Education  []Education  `yaml:"education"`
	Skills     []SkillGroup `yaml:"skills"`
}

// Load reads a content tree: site.yaml at the root and projects/*.md with
// YAML front matter. Drafts are skipped.
func Load(fsys fs.FS) (*Site, error) {
	var doc siteDocument
	if err := loadYAMLFile(fsys, SiteFile, &doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Profile.Name) == "" {
		return nil, fmt.Errorf("%s: profile.name is required", SiteFile)
	}

	site := &Site{
		Profile:    doc.Profile,
		Experience: doc.Experience,
		Education:  doc.Education,
		Skills:     doc.Skills,
	}

	entries, err := fs.ReadDir(fsys, ProjectsDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", ProjectsDir, err)
	}
	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		name := path.Join(ProjectsDir, e.Name())
		p, err := loadProject(fsys, name)
		if err != nil {
			return nil, err
		}
		if p.Draft {
			continue
		}
		if prev, dup := seen[p.Slug]; dup {
			return nil, fmt.Errorf("%s: slug %q already used by %s", name, p.Slug, prev)
		}
		seen[p.Slug] = name
		site.Projects = append(site.Projects, p)
	}

	site.index()
	return site, nil
}

// loadYAMLFile decodes a YAML file strictly: unknown fields are errors.
func loadYAMLFile(fsys fs.FS, name string, target any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func loadProject(fsys fs.FS, name string) (Project, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Project{}, fmt.Errorf("read %s: %w", name, err)
	}
	front, body, err := splitFrontMatter(data)
	if err != nil {
		return Project{}, fmt.Errorf("%s: %w", name, err)
	}

	var p Project
	decoder := yaml.NewDecoder(bytes.NewReader(front))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return Project{}, fmt.Errorf("parse %s front matter: %w", name, err)
	}
	if p.Slug == "" {
		p.Slug = strings.TrimSuffix(path.Base(name), ".md")
	}
	if !slugPattern.MatchString(p.Slug) {
		return Project{}, fmt.Errorf("%s: invalid slug %q", name, p.Slug)
	}
	if strings.TrimSpace(p.Title) == "" {
		return Project{}, fmt.Errorf("%s: title is required", name)
	}

	html, err := RenderMarkdown(body)
	if err != nil {
		return Project{}, fmt.Errorf("render %s: %w", name, err)
	}
	p.Body = html
	return p, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block.
func splitFrontMatter(data []byte) (front, body []byte, err error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, nil, errors.New("missing front matter")
	}
	rest := data[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, errors.New("unterminated front matter")
	}
	front = rest[:end+1]
	body = rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return front, body, nil
}

// RenderMarkdown converts Markdown to HTML. Raw HTML in the source is
// omitted.
func RenderMarkdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark escapes raw HTML by default
}
