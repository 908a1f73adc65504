// Package readme renders the repository README for a synced notebook.
package readme

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

//go:embed template.md
var defaultTemplate string

var tmpl = template.Must(template.New("readme").Parse(defaultTemplate))

// Render produces the README content for a notebook. It makes no external
// calls; the output is fully determined by the ref.
func Render(ref domain.NotebookRef) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, ref); err != nil {
		return "", fmt.Errorf("executing readme template: %w", err)
	}
	return b.String(), nil
}
