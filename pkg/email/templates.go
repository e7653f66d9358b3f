package email

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"os"
	texttemplate "text/template"

	"newsletter_backend/internal/model"
)

//go:embed templates/message
var templateFS embed.FS

const templateRoot = "templates/message"

// ActionMessage selects the templates used for regular newsletter mailings,
// next to the three activation actions.
const ActionMessage = "message"

// TemplateSet is the resolved subject/text/html template triple for one
// action. HTML is nil when the newsletter does not send HTML or no HTML
// template exists.
type TemplateSet struct {
	Subject *texttemplate.Template
	Text    *texttemplate.Template
	HTML    *htmltemplate.Template
}

// OverrideDir returns a filesystem with per-newsletter template overrides, or
// nil when the directory is not configured.
func OverrideDir(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	return os.DirFS(dir)
}

// findTemplate looks the named template up, newsletter-specific first, then
// the global default. The override directory takes precedence over the
// built-in templates at each level.
func findTemplate(override fs.FS, newsletterSlug, name string) (fs.FS, string, bool) {
	candidates := []string{newsletterSlug + "/" + name, name}

	for _, candidate := range candidates {
		if override != nil {
			if _, err := fs.Stat(override, candidate); err == nil {
				return override, candidate, true
			}
		}
		embedded := templateRoot + "/" + candidate
		if _, err := fs.Stat(templateFS, embedded); err == nil {
			return templateFS, embedded, true
		}
	}

	return nil, "", false
}

func parseTextTemplate(override fs.FS, newsletterSlug, name string) (*texttemplate.Template, error) {
	fsys, path, ok := findTemplate(override, newsletterSlug, name)
	if !ok {
		return nil, fmt.Errorf("no template found for %s", name)
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	return texttemplate.New(name).Parse(string(data))
}

func parseHTMLTemplate(override fs.FS, newsletterSlug, name string) (*htmltemplate.Template, error) {
	fsys, path, ok := findTemplate(override, newsletterSlug, name)
	if !ok {
		return nil, nil // HTML templates are not required
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	return htmltemplate.New(name).Parse(string(data))
}

// Templates resolves the subject, text and optional HTML templates for an
// action of a newsletter. Subject and text render without autoescaping, the
// HTML body with autoescaping.
func (s *EmailService) Templates(n *model.Newsletter, action string) (*TemplateSet, error) {
	if !model.ValidAction(action) && action != ActionMessage {
		return nil, fmt.Errorf("unknown action: %s", action)
	}

	subject, err := parseTextTemplate(s.override, n.Slug, action+"_subject.txt")
	if err != nil {
		return nil, err
	}

	text, err := parseTextTemplate(s.override, n.Slug, action+".txt")
	if err != nil {
		return nil, err
	}

	set := &TemplateSet{Subject: subject, Text: text}

	if n.SendHTML {
		set.HTML, err = parseHTMLTemplate(s.override, n.Slug, action+".html")
		if err != nil {
			return nil, err
		}
	}

	return set, nil
}
