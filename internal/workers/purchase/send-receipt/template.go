package sendreceipt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const subjectText = "Your {{.Plan}} shop list is ready"

const bodyText = `Thank you for your purchase.

Plan: {{.Plan}}
{{- if .AreaGroups}}
Areas: {{.AreaGroups}}
{{- end}}
Amount: {{.Amount}}

Your curated list is waiting here:
{{.ResultsURL}}
`

var (
	subjectTmpl = template.Must(template.New("subject").Parse(subjectText))
	bodyTmpl    = template.Must(template.New("body").Parse(bodyText))
)

type receiptData struct {
	Plan       string
	AreaGroups string
	Amount     string
	ResultsURL string
}

func render(in *Input, baseURL string) (subject, body string, err error) {
	plan := in.Plan
	if plan == "" {
		plan = "concierge"
	}
	data := receiptData{
		Plan:       plan,
		AreaGroups: strings.ReplaceAll(in.AreaGroups, ",", ", "),
		Amount:     formatAmount(in.AmountTotal, in.Currency),
		ResultsURL: fmt.Sprintf("%s/results.html?session_id=%s&plan=%s",
			strings.TrimRight(baseURL, "/"), in.SessionID, strings.ToLower(in.Plan)),
	}

	var sb, bb bytes.Buffer
	if err := subjectTmpl.Execute(&sb, data); err != nil {
		return "", "", err
	}
	if err := bodyTmpl.Execute(&bb, data); err != nil {
		return "", "", err
	}
	return sb.String(), bb.String(), nil
}

// zeroDecimal lists currencies Stripe bills without a minor unit.
var zeroDecimal = map[string]bool{"JPY": true, "KRW": true, "VND": true}

func formatAmount(minor int64, currency string) string {
	cur := strings.ToUpper(currency)
	if cur == "" {
		cur = "USD"
	}
	if zeroDecimal[cur] {
		return fmt.Sprintf("%d %s", minor, cur)
	}
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, cur)
}
