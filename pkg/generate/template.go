package generate

import (
	"strings"
	"text/template"
	"time"
)

const documentTemplate = `# Offering Memorandum: {{ .DealName }}

*Generated on {{ .GeneratedAt }}*

---
{{ range .Sections }}
## {{ .Name }}

{{ .Body }}
{{ end }}`

type renderedSection struct {
	Name string
	Body string
}

type templateData struct {
	DealName    string
	GeneratedAt string
	Sections    []renderedSection
}

var docTmpl = template.Must(template.New("offering_memorandum").Parse(documentTemplate))

// Render assembles the final markdown document from section bodies.
// Sections missing from vars render with an explicit placeholder so a
// partial variable map is visible in the output rather than silent.
func Render(dealName string, sections []Section, vars map[string]string) (string, error) {
	data := templateData{
		DealName:    dealName,
		GeneratedAt: time.Now().Format("January 2, 2006"),
	}
	for _, sec := range sections {
		body, ok := vars[sec.Key]
		if !ok || strings.TrimSpace(body) == "" {
			body = "*No content generated for this section.*"
		}
		data.Sections = append(data.Sections, renderedSection{
			Name: sec.Name,
			Body: strings.TrimSpace(body),
		})
	}

	var sb strings.Builder
	if err := docTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
