package tools

import (
	"fmt"
	"strings"

	"github.com/saam-fiscal/rotina178/internal/report"
)

// NoArgs is the argument type of tools that take no input.
type NoArgs struct{}

// GenerateArgs are the arguments of gerar_relatorio_json.
type GenerateArgs struct {
	Tabela         string `json:"tabela" description:"Tabela do relatório, por exemplo relatorio_notas_c100 ou relatorio_notas_c170"`
	PeriodoInicial string `json:"periodo_inicial" description:"Período inicial, como retornado por listar_periodos"`
	PeriodoFinal   string `json:"periodo_final,omitempty" description:"Período final (opcional)"`
	TipoEmissao    string `json:"tipo_emissao,omitempty" description:"Código do tipo de emissão (opcional, ver listar_tipos_emissao)"`
	TipoOperacao   string `json:"tipo_operacao,omitempty" description:"Código do tipo de operação (opcional, ver listar_tipos_operacao)"`
	Aba            string `json:"aba,omitempty" description:"Código da aba (opcional, ver listar_abas)"`
}

// Validate rejects blank required fields; the schema only checks presence.
func (a GenerateArgs) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Tabela) == "" {
		missing = append(missing, "tabela")
	}
	if strings.TrimSpace(a.PeriodoInicial) == "" {
		missing = append(missing, "periodo_inicial")
	}
	if len(missing) > 0 {
		return fmt.Errorf("campos obrigatórios vazios: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Request converts the arguments into a report request. Values are used as given, so
// the report key and file names match what the agent sent.
func (a GenerateArgs) Request() report.Request {
	return report.Request{
		Table:         a.Tabela,
		PeriodStart:   a.PeriodoInicial,
		PeriodEnd:     a.PeriodoFinal,
		IssuanceType:  a.TipoEmissao,
		OperationType: a.TipoOperacao,
		Tab:           a.Aba,
	}
}

// ExtractArgs are the arguments of extrair_todos_jsons. A zero Limite selects the
// extractor's default window.
type ExtractArgs struct {
	Offset int `json:"offset,omitempty" minimum:"0" default:"0" description:"Posição inicial, em caracteres, do trecho a extrair"`
	Limite int `json:"limite,omitempty" minimum:"1" default:"100000" description:"Quantidade máxima de caracteres por chamada"`
}
