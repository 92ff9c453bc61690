package notify

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/go-faster/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseData struct {
	Title   string
	Heading string
	Store   string
}

type orderLine struct {
	Title     string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type orderPlacedData struct {
	baseData
	Name          string
	OrderID       string
	PaymentMethod string
	Lines         []orderLine
	Total         string
	Notes         string
}

type contactReceivedData struct {
	baseData
	Name        string
	Email       string
	Phone       string
	Company     string
	InquiryType string
	Subject     string
	Message     string
}

func render(name string, data any) (string, error) {
	tmpl, err := template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+name)
	if err != nil {
		return "", errors.Wrapf(err, "parse template %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", errors.Wrapf(err, "execute template %s", name)
	}
	return buf.String(), nil
}
