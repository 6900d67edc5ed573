package stats

import (
	"html/template"
	"io"
	"strings"

	"github.com/verte-zerg/squeezestats/internal/model"
)

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<pre>{{.Report}}</pre>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Parse(htmlPage))

type htmlData struct {
	Title  string
	Report string
}

// RenderHTML writes the text report wrapped in a minimal HTML page.
// Record values are escaped by the template.
func RenderHTML(w io.Writer, res model.StatisticsResult) error {
	title := reportTitle
	if res.YearFilter != "" {
		title += " (" + res.YearFilter + ")"
	}
	return htmlTemplate.Execute(w, htmlData{Title: title, Report: FormatReport(res)})
}

// HTMLFileName appends the .html extension unless name already carries it.
func HTMLFileName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".html") {
		return name
	}
	return name + ".html"
}
