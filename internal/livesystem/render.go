package livesystem

import (
	"embed"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var page = template.Must(
	template.New("system.html.tmpl").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templateFS, "templates/system.html.tmpl"),
)

type pageData struct {
	Heading string
	Lede    string
	Cards   Cards
}

// Render writes the live-system section as a standalone HTML page.
func Render(w io.Writer, cards Cards) error {
	return page.Execute(w, pageData{
		Heading: "Live System",
		Lede:    "A small production-mindset panel: live endpoints, timing, and error surfacing.",
		Cards:   cards,
	})
}
