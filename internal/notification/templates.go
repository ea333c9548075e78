package notification

import "text/template"

const agentSummaryBody = `Hello {{.Cart.AgentName}},

{{.Headline}}

Property: {{.Cart.PropertyAddress}}
Owner: {{.Cart.OwnerName}}
Payment: {{.Timing}} by {{.Method}}

Services:
{{- range .Lines}}
- {{.Name}}: {{.Price}}{{if .Vendor}} ({{.Vendor}}){{end}}
{{- end}}

Total: {{.Total}}
{{- if .Unassigned}}

No work order was sent for:
{{- range .Unassigned}}
- {{.Name}}
{{- end}}
{{- end}}
`

const workOrderBody = `Hello {{.RecipientName}},

You have a new work order for {{.Cart.PropertyAddress}} (cart {{.Cart.SequenceLabel}}).
Communication: {{.Mode}}

Services:
{{- range .Lines}}
- {{.Name}}: {{.Price}}
{{- if .Note}}
  Note: {{.Note}}
{{- end}}
{{- end}}

Review the cart: {{.ReviewURL}}
`

const invoiceBody = `Hello {{.Cart.OwnerName}},

Here is the invoice for {{.Cart.PropertyAddress}} (cart {{.Cart.SequenceLabel}}).

Services:
{{- range .Lines}}
- {{.Name}}: {{.Price}}
{{- end}}

Total due: {{.Total}}
Payment: {{.Timing}} by {{.Method}}

Review the cart: {{.ReviewURL}}
`

var (
	agentSummaryTmpl = template.Must(template.New("agent_summary").Parse(agentSummaryBody))
	workOrderTmpl    = template.Must(template.New("work_order").Parse(workOrderBody))
	invoiceTmpl      = template.Must(template.New("invoice").Parse(invoiceBody))
)
