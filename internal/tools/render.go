package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saam-fiscal/rotina178/internal/backend"
	"github.com/saam-fiscal/rotina178/internal/report"
)

const instructions = "Você é um agente especialista em relatórios fiscais da Rotina 1.7.8 do SAAM.\n" +
	"Fluxo atualizado para JSON:\n" +
	"1. Use `listar_periodos`, `listar_tipos_emissao`, `listar_tipos_operacao` e `listar_abas` para buscar as opções disponíveis.\n" +
	"2. Gere o relatório em JSON com `gerar_relatorio_json`, que salva 3 arquivos para cada tabela (C100 e C170).\n" +
	"3. Para analisar TODO o conteúdo dos relatórios salvos, use `extrair_todos_jsons`, que extrai em partes, se necessário.\n" +
	"Os arquivos JSON podem ser baixados ou analisados pelo próprio agente via `extrair_todos_jsons`, respeitando o limite máximo por chamada."

const (
	textNoData         = "Nenhum dado retornado para os filtros especificados."
	textStoreNotFound  = "Diretório de relatórios JSON não encontrado."
	textNoFiles        = "Nenhum arquivo JSON encontrado para extrair."
	textOffsetTooLarge = "Offset maior que o tamanho total do conteúdo!"
)

// listing describes how one option listing is titled and rendered.
type listing struct {
	title string
	noun  string
	line  func(backend.Record) string
}

var (
	periodsListing = listing{
		title: "Períodos disponíveis:",
		noun:  "períodos",
		line: func(r backend.Record) string {
			return fmt.Sprintf("De %s até %s", r.Field("dtIn"), r.Field("dtFin"))
		},
	}
	issuanceListing  = codeListing("Tipos de emissão disponíveis:", "tipos de emissão")
	operationListing = codeListing("Tipos de operação disponíveis:", "tipos de operação")
	tabsListing      = codeListing("Abas disponíveis:", "abas")
)

func codeListing(title, noun string) listing {
	return listing{
		title: title,
		noun:  noun,
		line: func(r backend.Record) string {
			return r.Field("codigo") + " - " + r.Field("descricao")
		},
	}
}

func (l listing) render(records []backend.Record) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = l.line(r)
	}
	return l.title + "\n" + strings.Join(lines, "\n")
}

func (l listing) renderError(err error) string {
	var se *backend.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("Erro ao listar %s: %d - %s", l.noun, se.Code, se.Body)
	}
	return fmt.Sprintf("Erro ao listar %s: %v", l.noun, err)
}

// RenderSummary renders a successful generation.
func RenderSummary(s report.Summary) string {
	if s.Empty() {
		return textNoData
	}
	return fmt.Sprintf("Relatório JSON salvo em %d arquivo(s) para %s: %s | Total de registros: %d",
		len(s.Files), s.Table, strings.Join(s.Files, ", "), s.Total)
}

// RenderGenerateError renders a failed generation for table.
func RenderGenerateError(table string, err error) string {
	var re *report.Error
	if !errors.As(err, &re) {
		return fmt.Sprintf("Erro fatal inesperado: %v", err)
	}
	switch re.Kind {
	case report.KindTransportTimeout:
		return fmt.Sprintf("Timeout ao buscar dados para %s. Reduza o período ou use filtros mais restritos.", table)
	case report.KindTransportFailure:
		return fmt.Sprintf("Erro inesperado ao buscar relatório %s: %v", table, re.Err)
	case report.KindHTTPStatus:
		return fmt.Sprintf("Erro ao gerar relatório: %d - %s", re.Status, re.Body)
	case report.KindMalformedResponse:
		if errors.Is(re.Err, report.ErrNotArray) {
			return fmt.Sprintf("Erro: resposta inesperada do backend: %s", re.Body)
		}
		return fmt.Sprintf("Erro ao processar resposta: %v", re.Err)
	default:
		return fmt.Sprintf("Erro fatal inesperado: %v", re.Err)
	}
}

// RenderExtraction renders one extraction window or its empty-store outcome.
func RenderExtraction(res report.Result) string {
	switch res.Outcome {
	case report.OutcomeStoreNotFound:
		return textStoreNotFound
	case report.OutcomeNoFiles:
		return textNoFiles
	}
	return fmt.Sprintf("[Trecho extraído de %d até %d de %d caracteres.]\n\n", res.Offset, res.End, res.Total) + res.Text
}

// UsageText returns the instructions answered by instrucoes_gerais.
func UsageText() string { return instructions }
