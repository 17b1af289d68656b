package report

import (
	"strings"
)

const endpointPrefix = "/relatorio/buscar/"

// Request identifies one report. Table and PeriodStart are required; the other
// fields are optional filters and are omitted from the backend payload when empty.
type Request struct {
	Table         string
	PeriodStart   string
	PeriodEnd     string
	IssuanceType  string
	OperationType string
	Tab           string
}

// Key is the file name prefix shared by every chunk of the report. All six fields
// are joined by "_" (empty filters included) and "/" is replaced by "-".
func (r Request) Key() string {
	key := strings.Join([]string{
		r.Table,
		r.PeriodStart,
		r.PeriodEnd,
		r.IssuanceType,
		r.OperationType,
		r.Tab,
	}, "_")
	return strings.ReplaceAll(key, "/", "-")
}

// Endpoint returns the backend path serving this report's table.
func (r Request) Endpoint() string {
	return endpointPrefix + strings.ToLower(r.Table)
}

// Payload returns the POST body: periodoInicial plus every non-empty filter.
func (r Request) Payload() map[string]string {
	payload := map[string]string{"periodoInicial": r.PeriodStart}
	for name, value := range map[string]string{
		"periodoFinal": r.PeriodEnd,
		"tipoEmissao":  r.IssuanceType,
		"tipoOperacao": r.OperationType,
		"aba":          r.Tab,
	} {
		if value != "" {
			payload[name] = value
		}
	}
	return payload
}
