package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/saam-fiscal/rotina178/internal/tool"
	"github.com/saam-fiscal/rotina178/internal/tools"
)

func generateCmd(opts *globalOptions) *cobra.Command {
	var args tools.GenerateArgs
	cmd := &cobra.Command{
		Use:   "gerar",
		Short: "Generate a report and save it as JSON chunk files",
		Example: `  rotina178 gerar --tabela relatorio_notas_c100 --periodo-inicial 01/2024
  rotina178 gerar --tabela relatorio_notas_c170 --periodo-inicial 01/2024 --periodo-final 03/2024 --aba 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTool(cmd.Context(), opts, cmd.OutOrStdout(), tools.NameGenerate, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&args.Tabela, "tabela", "", "Report table (e.g. relatorio_notas_c100)")
	f.StringVar(&args.PeriodoInicial, "periodo-inicial", "", "First period")
	f.StringVar(&args.PeriodoFinal, "periodo-final", "", "Last period")
	f.StringVar(&args.TipoEmissao, "tipo-emissao", "", "Issuance type code")
	f.StringVar(&args.TipoOperacao, "tipo-operacao", "", "Operation type code")
	f.StringVar(&args.Aba, "aba", "", "Tab code")
	_ = cmd.MarkFlagRequired("tabela")
	_ = cmd.MarkFlagRequired("periodo-inicial")
	return cmd
}

func extractCmd(opts *globalOptions) *cobra.Command {
	var args tools.ExtractArgs
	cmd := &cobra.Command{
		Use:   "extrair",
		Short: "Print a window of the concatenated saved reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTool(cmd.Context(), opts, cmd.OutOrStdout(), tools.NameExtract, args)
		},
	}
	cmd.Flags().IntVar(&args.Offset, "offset", 0, "First character of the window")
	cmd.Flags().IntVar(&args.Limite, "limite", 0, "Maximum characters (0 uses the configured default)")
	return cmd
}

func listCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listar",
		Short: "List the options accepted by gerar",
	}
	for _, sub := range []struct {
		use, short, tool string
	}{
		{"periodos", "List available periods", tools.NamePeriods},
		{"emissao", "List issuance types", tools.NameIssuanceTypes},
		{"operacao", "List operation types", tools.NameOperationTypes},
		{"abas", "List report tabs", tools.NameTabs},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runTool(cmd.Context(), opts, cmd.OutOrStdout(), sub.tool, tools.NoArgs{})
			},
		})
	}
	return cmd
}

func instructionsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instrucoes",
		Short: "Print the usage instructions given to the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTool(cmd.Context(), opts, cmd.OutOrStdout(), tools.NameInstructions, tools.NoArgs{})
		},
	}
}

// runTool executes one tool through the registry, so CLI calls get the same
// validation, timeout and logging as agent calls.
func runTool(ctx context.Context, opts *globalOptions, out io.Writer, name string, args any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.closeLog() }()

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	call := tool.Call{ID: uuid.NewString(), ToolName: name, Args: payload}
	err = a.registry.Execute(ctx, call, func(chunk []byte) error {
		_, werr := out.Write(chunk)
		return werr
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
