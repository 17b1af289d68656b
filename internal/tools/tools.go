package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/saam-fiscal/rotina178/internal/backend"
	"github.com/saam-fiscal/rotina178/internal/report"
	"github.com/saam-fiscal/rotina178/internal/tool"
)

// Tool names as advertised to the agent.
const (
	NameInstructions   = "instrucoes_gerais"
	NamePeriods        = "listar_periodos"
	NameIssuanceTypes  = "listar_tipos_emissao"
	NameOperationTypes = "listar_tipos_operacao"
	NameTabs           = "listar_abas"
	NameGenerate       = "gerar_relatorio_json"
	NameExtract        = "extrair_todos_jsons"
)

// Lister fetches the option listings. *backend.Client implements it.
type Lister interface {
	ListPeriods(ctx context.Context) ([]backend.Record, error)
	ListIssuanceTypes(ctx context.Context) ([]backend.Record, error)
	ListOperationTypes(ctx context.Context) ([]backend.Record, error)
	ListTabs(ctx context.Context) ([]backend.Record, error)
}

// Service holds the collaborators shared by the tools.
type Service struct {
	lister    Lister
	generator *report.Generator
	extractor *report.Extractor
	logger      *slog.Logger
	onExtract   func(report.Result)
	listTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for listing responses.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExtractObserver registers fn to be called with every successful extraction.
func WithExtractObserver(fn func(report.Result)) Option {
	return func(s *Service) { s.onExtract = fn }
}

// WithListTimeout bounds each listing tool call by d, well under the deadline the
// registry gives report generation. d <= 0 keeps the registry default.
func WithListTimeout(d time.Duration) Option {
	return func(s *Service) { s.listTimeout = d }
}

// NewService returns a Service. All collaborators are required.
func NewService(lister Lister, generator *report.Generator, extractor *report.Extractor, opts ...Option) *Service {
	s := &Service{
		lister:    lister,
		generator: generator,
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tools builds the seven tools in the order they are presented to the agent.
func (s *Service) Tools() ([]tool.Tool, error) {
	builders := []func() (tool.Tool, error){
		func() (tool.Tool, error) {
			return tool.New(NameInstructions,
				"Retorna as instruções gerais de uso das ferramentas da Rotina 1.7.8.",
				s.Instructions, tool.WithTitle("Instruções gerais"), tool.WithReadOnly())
		},
		func() (tool.Tool, error) {
			return tool.New(NamePeriods,
				"Lista os períodos disponíveis para geração de relatórios.",
				s.ListPeriods, tool.WithTitle("Listar períodos"), tool.WithReadOnly())
		},
		func() (tool.Tool, error) {
			return tool.New(NameIssuanceTypes,
				"Lista os tipos de emissão disponíveis (código - descrição).",
				s.ListIssuanceTypes, tool.WithTitle("Listar tipos de emissão"), tool.WithReadOnly())
		},
		func() (tool.Tool, error) {
			return tool.New(NameOperationTypes,
				"Lista os tipos de operação disponíveis (código - descrição).",
				s.ListOperationTypes, tool.WithTitle("Listar tipos de operação"), tool.WithReadOnly())
		},
		func() (tool.Tool, error) {
			return tool.New(NameTabs,
				"Lista as abas disponíveis (código - descrição).",
				s.ListTabs, tool.WithTitle("Listar abas"), tool.WithReadOnly())
		},
		func() (tool.Tool, error) {
			return tool.New(NameGenerate,
				"Gera o relatório em JSON para a tabela e filtros informados e salva o resultado em até 3 arquivos.",
				s.Generate, tool.WithTitle("Gerar relatório JSON"))
		},
		func() (tool.Tool, error) {
			return tool.New(NameExtract,
				"Extrai todo o conteúdo dos JSONs gerados no diretório, concatenando em um único texto. "+
					"Permite controle via offset e limite para extrair até 100.000 caracteres por vez.",
				s.Extract, tool.WithTitle("Extrair relatórios JSON"), tool.WithReadOnly())
		},
	}
	out := make([]tool.Tool, 0, len(builders))
	for _, build := range builders {
		t, err := build()
		if err != nil {
			return nil, err
		}
		if s.listTimeout > 0 && isListing(t.Name()) {
			t = tool.WithTimeoutMiddleware(s.listTimeout)(t)
		}
		out = append(out, t)
	}
	return out, nil
}

func isListing(name string) bool {
	switch name {
	case NamePeriods, NameIssuanceTypes, NameOperationTypes, NameTabs:
		return true
	}
	return false
}

// Register adds every tool of s to r.
func Register(r *tool.Registry, s *Service) error {
	ts, err := s.Tools()
	if err != nil {
		return err
	}
	for _, t := range ts {
		r.Register(t)
	}
	return nil
}

// Instructions answers instrucoes_gerais.
func (s *Service) Instructions(context.Context, NoArgs) (string, error) {
	return instructions, nil
}

// ListPeriods answers listar_periodos.
func (s *Service) ListPeriods(ctx context.Context, _ NoArgs) (string, error) {
	return s.list(ctx, backend.EndpointPeriods, periodsListing, s.lister.ListPeriods)
}

// ListIssuanceTypes answers listar_tipos_emissao.
func (s *Service) ListIssuanceTypes(ctx context.Context, _ NoArgs) (string, error) {
	return s.list(ctx, backend.EndpointIssuanceTypes, issuanceListing, s.lister.ListIssuanceTypes)
}

// ListOperationTypes answers listar_tipos_operacao.
func (s *Service) ListOperationTypes(ctx context.Context, _ NoArgs) (string, error) {
	return s.list(ctx, backend.EndpointOperationTypes, operationListing, s.lister.ListOperationTypes)
}

// ListTabs answers listar_abas.
func (s *Service) ListTabs(ctx context.Context, _ NoArgs) (string, error) {
	return s.list(ctx, backend.EndpointTabs, tabsListing, s.lister.ListTabs)
}

func (s *Service) list(ctx context.Context, endpoint string, l listing, fetch func(context.Context) ([]backend.Record, error)) (string, error) {
	records, err := fetch(ctx)
	if err != nil {
		s.logger.Error("Listing failed", slog.String("endpoint", endpoint), slog.String("error", err.Error()))
		return l.renderError(err), nil
	}
	s.logger.Info("Listing response", slog.String("endpoint", endpoint), slog.Int("records", len(records)))
	return l.render(records), nil
}

// Generate answers gerar_relatorio_json.
func (s *Service) Generate(ctx context.Context, args GenerateArgs) (string, error) {
	req := args.Request()
	summary, err := s.generator.Generate(ctx, req)
	if err != nil {
		return RenderGenerateError(req.Table, err), nil
	}
	return RenderSummary(summary), nil
}

// Extract answers extrair_todos_jsons.
func (s *Service) Extract(_ context.Context, args ExtractArgs) (string, error) {
	res, err := s.extractor.Extract(args.Offset, args.Limite)
	if errors.Is(err, report.ErrOffsetOutOfRange) {
		return textOffsetTooLarge, nil
	}
	if err != nil {
		return "", err
	}
	if res.Outcome == report.OutcomeOK && s.onExtract != nil {
		s.onExtract(res)
	}
	return RenderExtraction(res), nil
}
