package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InvoiceEmailData fills the invoice email body.
type InvoiceEmailData struct {
	CompanyName   string
	CustomerName  string
	OrderID       string
	InvoiceNumber string
	Total         string
	OrderDate     string
	ContactEmail  string
}

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Helvetica, Arial, sans-serif; color: #212529;">
{{- if .IntendedRecipient}}
<div style="background: #fff3cd; border: 1px solid #ffe69c; padding: 12px; margin-bottom: 16px;">
<strong>Mode test :</strong> ce message était destiné à <strong>{{.IntendedRecipient}}</strong>.
Merci de le lui transmettre manuellement.
</div>
{{- end}}
<h1 style="color: #c45a11;">{{.CompanyName}}</h1>
<p>Bonjour {{.CustomerName}},</p>
<p>Merci pour votre commande <strong>{{.OrderID}}</strong>{{if .OrderDate}} du {{.OrderDate}}{{end}}.</p>
<p>Vous trouverez ci-joint la facture <strong>{{.InvoiceNumber}}</strong> d'un montant de <strong>{{.Total}}</strong> TTC.</p>
{{- if .ContactEmail}}
<p>Pour toute question, écrivez-nous à <a href="mailto:{{.ContactEmail}}">{{.ContactEmail}}</a>.</p>
{{- end}}
<p>L'équipe {{.CompanyName}}</p>
</body>
</html>
`))

type invoiceView struct {
	InvoiceEmailData
	IntendedRecipient string
}

// InvoiceEmail returns the subject and HTML body sent with an invoice.
func InvoiceEmail(d InvoiceEmailData) (string, string, error) {
	return renderInvoice(invoiceView{InvoiceEmailData: d})
}

// SandboxEmail is InvoiceEmail addressed to a verified test inbox. The body
// names the customer address the message was meant for.
func SandboxEmail(d InvoiceEmailData, intendedRecipient string) (string, string, error) {
	subject, body, err := renderInvoice(invoiceView{InvoiceEmailData: d, IntendedRecipient: intendedRecipient})
	if err != nil {
		return "", "", err
	}
	return "[TEST] " + subject + " (pour " + intendedRecipient + ")", body, nil
}

func renderInvoice(v invoiceView) (string, string, error) {
	if v.CustomerName == "" {
		v.CustomerName = "Client"
	}
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, v); err != nil {
		return "", "", fmt.Errorf("render invoice email: %w", err)
	}
	subject := fmt.Sprintf("Votre facture %s - commande %s", v.InvoiceNumber, v.OrderID)
	return subject, buf.String(), nil
}
