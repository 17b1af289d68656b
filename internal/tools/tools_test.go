package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saam-fiscal/rotina178/internal/config"
	"github.com/saam-fiscal/rotina178/internal/report"
	"github.com/saam-fiscal/rotina178/internal/testutil"
	"github.com/saam-fiscal/rotina178/internal/tool"
)

type fixture struct {
	backend  *testutil.FakeBackend
	store    *report.Store
	registry *tool.Registry
	service  *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	client := fb.Client(2 * time.Second)
	store := report.NewStore(config.StoreConfig{Dir: filepath.Join(t.TempDir(), "relatorios_json")})
	svc := NewService(client,
		report.NewGenerator(client, store, report.WithRequestTimeout(2*time.Second)),
		report.NewExtractor(store),
		opts...)
	reg := testutil.NewTestRegistry()
	require.NoError(t, Register(reg, svc))
	return &fixture{backend: fb, store: store, registry: reg, service: svc}
}

func (f *fixture) call(t *testing.T, name, args string) (string, error) {
	t.Helper()
	var out strings.Builder
	err := f.registry.Execute(context.Background(), tool.Call{ID: "t", ToolName: name, Args: json.RawMessage(args)}, func(b []byte) error {
		out.Write(b)
		return nil
	})
	return out.String(), err
}

func (f *fixture) mustCall(t *testing.T, name, args string) string {
	t.Helper()
	out, err := f.call(t, name, args)
	require.NoError(t, err)
	return out
}

func TestTools_Registered(t *testing.T) {
	f := newFixture(t)
	var names []string
	for _, tl := range f.registry.GetAllTools() {
		names = append(names, tl.Name())
	}
	assert.ElementsMatch(t, []string{
		NameInstructions, NamePeriods, NameIssuanceTypes, NameOperationTypes,
		NameTabs, NameGenerate, NameExtract,
	}, names)

	gen, ok := f.registry.GetTool(NameGenerate)
	require.True(t, ok)
	schema := gen.Parameters()
	assert.ElementsMatch(t, []any{"tabela", "periodo_inicial"}, toAnySlice(schema["required"]))
	meta, ok := gen.(tool.Metadata)
	require.True(t, ok)
	assert.False(t, meta.IsReadOnly())

	ext, _ := f.registry.GetTool(NameExtract)
	props := ext.Parameters()["properties"].(map[string]any)
	assert.Equal(t, float64(100000), props["limite"].(map[string]any)["default"])
	assert.True(t, ext.(tool.Metadata).IsReadOnly())
}

func toAnySlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out
	}
	return nil
}

func TestInstructions(t *testing.T) {
	f := newFixture(t)
	out := f.mustCall(t, NameInstructions, "")
	assert.True(t, strings.HasPrefix(out, "Você é um agente especialista em relatórios fiscais da Rotina 1.7.8 do SAAM.\n"))
	assert.Contains(t, out, "`extrair_todos_jsons`")
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	f.backend.JSON("GET", "/periodos/disponiveis", `[{"dtIn":"01/2024","dtFin":"03/2024"},{"dtIn":"04/2024","dtFin":"06/2024"}]`)
	f.backend.JSON("GET", "/tipos/emissao", `[{"codigo":0,"descricao":"Própria"},{"codigo":1,"descricao":"Terceiros"}]`)
	f.backend.JSON("GET", "/tipos/operacao", `[{"codigo":"E","descricao":"Entrada"}]`)
	f.backend.JSON("GET", "/tipos/abas", `[{"codigo":"1"}]`)

	assert.Equal(t, "Períodos disponíveis:\nDe 01/2024 até 03/2024\nDe 04/2024 até 06/2024", f.mustCall(t, NamePeriods, "{}"))
	assert.Equal(t, "Tipos de emissão disponíveis:\n0 - Própria\n1 - Terceiros", f.mustCall(t, NameIssuanceTypes, "{}"))
	assert.Equal(t, "Tipos de operação disponíveis:\nE - Entrada", f.mustCall(t, NameOperationTypes, "{}"))
	assert.Equal(t, "Abas disponíveis:\n1 - ", f.mustCall(t, NameTabs, "{}"))
}

func TestListings_Errors(t *testing.T) {
	f := newFixture(t)
	f.backend.Handle("GET", "/periodos/disponiveis", testutil.Route{Status: 503, Body: "manutenção"})
	f.backend.JSON("GET", "/tipos/abas", `{"not":"a list"}`)

	assert.Equal(t, "Erro ao listar períodos: 503 - manutenção", f.mustCall(t, NamePeriods, "{}"))
	assert.Equal(t, "Erro ao listar tipos de emissão: 404 - 404 page not found\n", f.mustCall(t, NameIssuanceTypes, "{}"))

	out := f.mustCall(t, NameTabs, "{}")
	assert.True(t, strings.HasPrefix(out, "Erro ao listar abas: malformed backend response"), out)
}

func TestListings_Timeout(t *testing.T) {
	f := newFixture(t, WithListTimeout(50*time.Millisecond))
	f.backend.Handle("GET", "/tipos/abas", testutil.Route{Body: "[]", Delay: time.Second})

	for _, tl := range f.registry.GetAllTools() {
		md := tl.(tool.Metadata)
		switch tl.Name() {
		case NamePeriods, NameIssuanceTypes, NameOperationTypes, NameTabs:
			assert.Equal(t, 50*time.Millisecond, md.Timeout(), tl.Name())
			assert.True(t, md.IsReadOnly(), tl.Name())
		default:
			assert.Zero(t, md.Timeout(), tl.Name())
		}
	}

	start := time.Now()
	out := f.mustCall(t, NameTabs, "{}")
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, strings.HasPrefix(out, "Erro ao listar abas: "), out)
}

func TestGenerateArgs_RequestKeepsValuesAsGiven(t *testing.T) {
	args := GenerateArgs{Tabela: "Relatorio_Notas_C100 ", PeriodoInicial: "01/2024", Aba: "1"}
	req := args.Request()
	assert.Equal(t, "Relatorio_Notas_C100 ", req.Table)
	assert.Equal(t, "Relatorio_Notas_C100 _01-2024____1", req.Key())
	assert.Equal(t, "/relatorio/buscar/relatorio_notas_c100 ", req.Endpoint())
}

func TestGenerate_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.backend.JSON("POST", "/relatorio/buscar/relatorio_notas_c100",
		`[{"id":1},{"id":2},{"id":3},{"id":4},{"id":5},{"id":6},{"id":7}]`)

	out := f.mustCall(t, NameGenerate, `{"tabela":"relatorio_notas_c100","periodo_inicial":"2024-01-01"}`)
	prefix := "relatorio_notas_c100_2024-01-01____"
	assert.Equal(t, "Relatório JSON salvo em 3 arquivo(s) para relatorio_notas_c100: "+
		prefix+"_parte1.json, "+prefix+"_parte2.json, "+prefix+"_parte3.json | Total de registros: 7", out)
	assert.Contains(t, out, "3 arquivo(s)")
	assert.Contains(t, out, "Total de registros: 7")

	for file, n := range map[string]int{"_parte1.json": 3, "_parte2.json": 3, "_parte3.json": 1} {
		data, err := os.ReadFile(filepath.Join(f.store.Dir(), prefix+file))
		require.NoError(t, err)
		var recs []map[string]int
		require.NoError(t, json.Unmarshal(data, &recs))
		assert.Len(t, recs, n)
	}

	reqs := f.backend.Requests()
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"periodoInicial":"2024-01-01"}`, string(reqs[0].Body))

	// The generated files are immediately visible to the extractor.
	ext := f.mustCall(t, NameExtract, `{}`)
	assert.True(t, strings.HasPrefix(ext, "[Trecho extraído de 0 até "), ext)
	assert.Contains(t, ext, "===== "+prefix+"_parte3.json =====")
}

func TestGenerate_Outcomes(t *testing.T) {
	tests := []struct {
		name  string
		route testutil.Route
		want  string
	}{
		{"http 500", testutil.Route{Status: 500, Body: "falha interna"}, "Erro ao gerar relatório: 500 - falha interna"},
		{"empty", testutil.Route{Body: "[]"}, "Nenhum dado retornado para os filtros especificados."},
		{"object", testutil.Route{Body: `{"erro":"x"}`}, `Erro: resposta inesperada do backend: {"erro":"x"}`},
		{"timeout", testutil.Route{Body: "[]", Delay: 10 * time.Second}, "Timeout ao buscar dados para c100. Reduza o período ou use filtros mais restritos."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.backend.Handle("POST", "/relatorio/buscar/c100", tt.route)
			out := f.mustCall(t, NameGenerate, `{"tabela":"c100","periodo_inicial":"01/2024","aba":"2"}`)
			assert.Equal(t, tt.want, out)

			entries, _ := os.ReadDir(f.store.Dir())
			assert.Empty(t, entries, "no files written")
		})
	}
}

func TestGenerate_NotJSON(t *testing.T) {
	f := newFixture(t)
	f.backend.JSON("POST", "/relatorio/buscar/c100", "<html>")
	out := f.mustCall(t, NameGenerate, `{"tabela":"c100","periodo_inicial":"01/2024"}`)
	assert.True(t, strings.HasPrefix(out, "Erro ao processar resposta: "), out)
}

func TestGenerate_InvalidArguments(t *testing.T) {
	f := newFixture(t)
	tests := map[string]string{
		"missing tabela": `{"periodo_inicial":"01/2024"}`,
		"blank tabela":   `{"tabela":"  ","periodo_inicial":"01/2024"}`,
		"wrong type":     `{"tabela":1,"periodo_inicial":"01/2024"}`,
		"not json":       `{tabela`,
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.call(t, NameGenerate, args)
			require.Error(t, err)
			assert.True(t, tool.IsClientError(err), err)
		})
	}
	assert.Empty(t, f.backend.Requests())
}

func TestExtract(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "Diretório de relatórios JSON não encontrado.", f.mustCall(t, NameExtract, `{}`))

	require.NoError(t, f.store.Ensure())
	assert.Equal(t, "Nenhum arquivo JSON encontrado para extrair.", f.mustCall(t, NameExtract, `{}`))

	require.NoError(t, os.WriteFile(filepath.Join(f.store.Dir(), "a.json"), []byte("[1]"), 0o644))
	total := len("\n\n===== a.json =====\n\n[1]")
	assert.Equal(t, "[Trecho extraído de 0 até 5 de 25 caracteres.]\n\n\n\n===", f.mustCall(t, NameExtract, `{"offset":0,"limite":5}`))
	assert.Equal(t, 25, total)
	assert.Equal(t, "[Trecho extraído de 22 até 25 de 25 caracteres.]\n\n[1]", f.mustCall(t, NameExtract, `{"offset":22}`))
	assert.Equal(t, "Offset maior que o tamanho total do conteúdo!", f.mustCall(t, NameExtract, `{"offset":26,"limite":100}`))
}

func TestExtract_InvalidArguments(t *testing.T) {
	f := newFixture(t)
	for _, args := range []string{`{"offset":-1}`, `{"limite":0}`, `{"offset":"x"}`} {
		_, err := f.call(t, NameExtract, args)
		require.Error(t, err, args)
		assert.True(t, tool.IsClientError(err), args)
	}
}

func TestExtract_Observer(t *testing.T) {
	var seen []report.Result
	f := newFixture(t, WithExtractObserver(func(r report.Result) { seen = append(seen, r) }))
	f.mustCall(t, NameExtract, `{}`)
	assert.Empty(t, seen)

	require.NoError(t, f.store.Ensure())
	require.NoError(t, os.WriteFile(filepath.Join(f.store.Dir(), "a.json"), []byte("[]"), 0o644))
	f.mustCall(t, NameExtract, `{"limite":3}`)
	require.Len(t, seen, 1)
	assert.Equal(t, 3, seen[0].End)
}

func TestRenderGenerateError_Fallbacks(t *testing.T) {
	assert.Equal(t, "Erro fatal inesperado: boom", RenderGenerateError("c100", errors.New("boom")))
	fileErr := &report.Error{Kind: report.KindFileIO, Table: "c100", Err: os.ErrPermission}
	assert.Equal(t, "Erro fatal inesperado: permission denied", RenderGenerateError("c100", fileErr))
}
