package adapter

import (
	"embed"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var formatterTemplateFS embed.FS

// templateRenderer parses the embedded reply templates on first use.
type templateRenderer struct {
	once sync.Once
	tmpl *template.Template
	err  error
}

var replyTemplates templateRenderer

func (r *templateRenderer) load() {
	funcMap := template.FuncMap{
		"join": strings.Join,
		"orDash": func(value string) string {
			if strings.TrimSpace(value) == "" {
				return valueUnknown
			}
			return value
		},
	}
	r.tmpl, r.err = template.New("replies").Funcs(funcMap).ParseFS(formatterTemplateFS, "templates/*.tmpl")
}

// render executes the named template and drops trailing newlines left by
// template actions.
func (r *templateRenderer) render(name string, data any) (string, error) {
	r.once.Do(r.load)
	if r.err != nil {
		return "", r.err
	}

	var sb strings.Builder
	if err := r.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func executeFormatterTemplate(name string, data any) (string, error) {
	return replyTemplates.render(name, data)
}
