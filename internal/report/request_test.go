package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestKey(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "only required fields",
			req:  Request{Table: "relatorio_notas_c100", PeriodStart: "2024-01-01"},
			want: "relatorio_notas_c100_2024-01-01____",
		},
		{
			name: "all fields with slashes",
			req: Request{
				Table:         "relatorio_notas_c170",
				PeriodStart:   "01/2024",
				PeriodEnd:     "03/2024",
				IssuanceType:  "0",
				OperationType: "1",
				Tab:           "2",
			},
			want: "relatorio_notas_c170_01-2024_03-2024_0_1_2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Key())
		})
	}
}

func TestRequestKey_Deterministic(t *testing.T) {
	a := Request{Table: "c100", PeriodStart: "01/2024", Tab: "1"}
	b := Request{Table: "c100", PeriodStart: "01/2024", Tab: "1"}
	assert.Equal(t, a.Key(), b.Key())

	variants := []Request{
		{Table: "c170", PeriodStart: "01/2024", Tab: "1"},
		{Table: "c100", PeriodStart: "02/2024", Tab: "1"},
		{Table: "c100", PeriodStart: "01/2024", PeriodEnd: "x", Tab: "1"},
		{Table: "c100", PeriodStart: "01/2024", IssuanceType: "x", Tab: "1"},
		{Table: "c100", PeriodStart: "01/2024", OperationType: "x", Tab: "1"},
		{Table: "c100", PeriodStart: "01/2024", Tab: "2"},
	}
	for _, v := range variants {
		assert.NotEqual(t, a.Key(), v.Key(), "%+v", v)
	}
}

func TestRequestEndpoint(t *testing.T) {
	req := Request{Table: "Relatorio_Notas_C100"}
	assert.Equal(t, "/relatorio/buscar/relatorio_notas_c100", req.Endpoint())
}

func TestRequestPayload(t *testing.T) {
	req := Request{Table: "c100", PeriodStart: "01/2024", OperationType: "1"}
	assert.Equal(t, map[string]string{
		"periodoInicial": "01/2024",
		"tipoOperacao":   "1",
	}, req.Payload())

	full := Request{Table: "c100", PeriodStart: "a", PeriodEnd: "b", IssuanceType: "c", OperationType: "d", Tab: "e"}
	assert.Equal(t, map[string]string{
		"periodoInicial": "a",
		"periodoFinal":   "b",
		"tipoEmissao":    "c",
		"tipoOperacao":   "d",
		"aba":            "e",
	}, full.Payload())
}
