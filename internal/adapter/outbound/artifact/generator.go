package artifact

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

const placeholderDate = "[DATO]"
const placeholderName = "[NAVN]"

const letterTemplate = `{{.Heir}}
På vegne av dødsboet etter {{.Deceased}}

Til: {{.Company}}{{with .Address}}
{{.}}{{end}}

Oppsigelse av abonnement{{with .Service}} ({{.}}){{end}}

{{.Deceased}} gikk bort {{.DateOfDeath}}. Som representant for dødsboet ber jeg om at abonnementet sies opp med umiddelbar virkning.{{with .CustomerNumber}}
Kundenummer: {{.}}{{end}}

Jeg har fullmakt til å handle på vegne av dødsboet. Vennligst bekreft oppsigelsen skriftlig.

Med vennlig hilsen
{{.Heir}}
`

const emailTemplate = `Til: {{.Email}}
Emne: Oppsigelse av abonnement etter dødsfall - {{.Deceased}}

Hei {{.Company}},

{{.Deceased}} gikk bort {{.DateOfDeath}}. På vegne av dødsboet ber jeg om at abonnementet{{with .Service}} ({{.}}){{end}} sies opp med umiddelbar virkning.{{with .CustomerNumber}}
Kundenummer: {{.}}{{end}}

Jeg har fullmakt til å handle på vegne av dødsboet. Vennligst bekreft oppsigelsen ved å svare på denne e-posten.

Med vennlig hilsen
{{.Heir}}
`

type templateData struct {
	Company        string
	Service        string
	Deceased       string
	DateOfDeath    string
	Heir           string
	Email          string
	Address        string
	CustomerNumber string
}

// Generator renders cancellation letters and emails from fixed Norwegian templates.
type Generator struct {
	templates map[model.CancellationMethod]*template.Template
}

// NewGenerator parses the built-in templates.
func NewGenerator() *Generator {
	return &Generator{
		templates: map[model.CancellationMethod]*template.Template{
			model.CancellationMethodLetter: template.Must(template.New("letter").Parse(letterTemplate)),
			model.CancellationMethodEmail:  template.Must(template.New("email").Parse(emailTemplate)),
		},
	}
}

func (g *Generator) Generate(_ context.Context, method model.CancellationMethod, estate *model.Estate, tx *model.Transaction, contact map[string]string) (string, error) {
	tmpl, ok := g.templates[method]
	if !ok {
		return "", fmt.Errorf("no template for cancellation method %q", method)
	}

	data := templateData{
		Company:        tx.Recipient,
		Service:        tx.Category,
		Deceased:       orDefault(estate.DeceasedName, placeholderName),
		DateOfDeath:    orDefault(estate.DateOfDeath, placeholderDate),
		Heir:           orDefault(estate.HeirName, placeholderName),
		Email:          contact[model.ContactKeyEmail],
		Address:        contact[model.ContactKeyAddress],
		CustomerNumber: orDefault(contact["customer_number"], tx.ContactInfo["customer_number"]),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", method, err)
	}
	return buf.String(), nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Compile-time check
var _ outbound.ArtifactGeneratorPort = (*Generator)(nil)
