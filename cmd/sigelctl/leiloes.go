package main

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newLeiloesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leiloes",
		Aliases: []string{"leilao"},
		Short:   "Manage auctions and their lifecycle",
	}
	cmd.AddCommand(
		newLeiloesListCmd(),
		newLeiloesGetCmd(),
		newLeiloesCreateCmd(),
		newLeiloesVincularCmd(),
		newLeiloesPublicarCmd(),
		newLeiloesResultadoCmd(),
		newLeiloesFinalizarCmd(),
		newLeiloesPrestacaoCmd(),
	)
	return cmd
}

func leilaoPath(id string, rest ...string) string {
	p := apiPrefix + "/leiloes/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func renderLeilao(cmd *cobra.Command, l leilao) error {
	return render(cmd.OutOrStdout(), l, []string{"Lote", "ID", "Carro", "Valor Inicial", "Status", "Arrematante", "Valor Arremate"}, func() [][]string {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n\n", l.Codigo, truncate(l.Titulo, 40), l.Status, formatDate(l.Data))
		rows := make([][]string, 0, len(l.Lotes))
		for _, lt := range l.Lotes {
			var arrematante, valor string
			if lt.Resultado != nil {
				arrematante, valor = lt.Resultado.Arrematante, lt.Resultado.ValorArremate
			}
			rows = append(rows, []string{strconv.Itoa(lt.Numero), lt.ID, lt.CarroID, lt.ValorInicial, lt.Status, arrematante, valor})
		}
		return rows
	})
}

func newLeiloesListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List auctions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := apiPrefix + "/leiloes"
			if status != "" {
				path += "?" + url.Values{"status": {status}}.Encode()
			}
			var resp leilaoList
			if err := newClient().getJSON(path, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), resp, []string{"ID", "Codigo", "Titulo", "Data", "Status", "Lotes", "Resultados"}, func() [][]string {
				rows := make([][]string, 0, len(resp.Leiloes))
				for _, l := range resp.Leiloes {
					completos := "pendentes"
					if l.ResultadosCompletos {
						completos = "completos"
					}
					rows = append(rows, []string{l.ID, l.Codigo, truncate(l.Titulo, 40), formatDate(l.Data), l.Status, strconv.Itoa(l.TotalLotes), completos})
				}
				return rows
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RASCUNHO, PUBLICADO, FINALIZADO)")
	return cmd
}

func newLeiloesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get LEILAO_ID",
		Short: "Show an auction and its lots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var l leilao
			if err := newClient().getJSON(leilaoPath(args[0]), &l); err != nil {
				return err
			}
			return renderLeilao(cmd, l)
		},
	}
}

func newLeiloesCreateCmd() *cobra.Command {
	var titulo, data, leiloeiroID, observacoes string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft auction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := time.Parse(time.RFC3339, data)
			if err != nil {
				return fmt.Errorf("invalid --data %q (expected RFC 3339, e.g. 2026-12-01T10:00:00Z): %w", data, err)
			}
			body := map[string]any{
				"titulo":      titulo,
				"data":        when,
				"leiloeiroId": leiloeiroID,
				"observacoes": observacoes,
			}
			var l leilao
			if err := newClient().postJSON(apiPrefix+"/leiloes", body, &l); err != nil {
				return err
			}
			return renderLeilao(cmd, l)
		},
	}
	cmd.Flags().StringVar(&titulo, "titulo", "", "Auction title")
	cmd.Flags().StringVar(&data, "data", "", "Auction date and time (RFC 3339)")
	cmd.Flags().StringVar(&leiloeiroID, "leiloeiro", "", "Auctioneer ID")
	cmd.Flags().StringVar(&observacoes, "observacoes", "", "Notes")
	for _, f := range []string{"titulo", "data", "leiloeiro"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newLeiloesVincularCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vincular LEILAO_ID CARRO_ID...",
		Short: "Link eligible vehicles to a draft auction as new lots",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp loteList
			body := map[string]any{"carroIds": args[1:]}
			if err := newClient().postJSON(leilaoPath(args[0], "lotes"), body, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), resp, []string{"Lote", "ID", "Carro", "Valor Inicial"}, func() [][]string {
				rows := make([][]string, 0, len(resp.Lotes))
				for _, lt := range resp.Lotes {
					rows = append(rows, []string{strconv.Itoa(lt.Numero), lt.ID, lt.CarroID, lt.ValorInicial})
				}
				return rows
			})
		},
	}
}

func newLeiloesPublicarCmd() *cobra.Command {
	var local, anexo string
	cmd := &cobra.Command{
		Use:   "publicar LEILAO_ID",
		Short: "Publish the auction notice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var l leilao
			body := map[string]any{"local": local, "anexo": anexo}
			if err := newClient().postJSON(leilaoPath(args[0], "publicar"), body, &l); err != nil {
				return err
			}
			return renderLeilao(cmd, l)
		},
	}
	cmd.Flags().StringVar(&local, "local", "", "Where the auction takes place")
	cmd.Flags().StringVar(&anexo, "anexo", "", "Reference of the attached notice document")
	_ = cmd.MarkFlagRequired("local")
	return cmd
}

func newLeiloesResultadoCmd() *cobra.Command {
	var r resultado
	cmd := &cobra.Command{
		Use:   "resultado LEILAO_ID LOTE_ID",
		Short: "Record the outcome of a lot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var l leilao
			if err := newClient().putJSON(leilaoPath(args[0], "lotes", args[1], "resultado"), r, &l); err != nil {
				return err
			}
			return renderLeilao(cmd, l)
		},
	}
	cmd.Flags().StringVar(&r.Status, "status", "", "ARREMATADO or NAO_ARREMATADO")
	cmd.Flags().StringVar(&r.Arrematante, "arrematante", "", "Winning bidder")
	cmd.Flags().StringVar(&r.Documento, "documento", "", "Bidder document number")
	cmd.Flags().StringVar(&r.ValorArremate, "valor", "", "Winning bid in reais")
	cmd.Flags().StringVar(&r.Observacao, "observacao", "", "Notes")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newLeiloesFinalizarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finalizar LEILAO_ID",
		Short: "Close a published auction once every lot has a result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var l leilao
			if err := newClient().postJSON(leilaoPath(args[0], "finalizar"), nil, &l); err != nil {
				return err
			}
			return renderLeilao(cmd, l)
		},
	}
}

func newLeiloesPrestacaoCmd() *cobra.Command {
	var tipo string
	cmd := &cobra.Command{
		Use:   "prestacao LEILAO_ID",
		Short: "Generate an accountability report for a finalized auction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p prestacao
			if err := newClient().postJSON(leilaoPath(args[0], "prestacoes"), map[string]string{"tipo": tipo}, &p); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), p, []string{"ID", "Tipo", "Versao", "Gerada Em", "Usuario", "Documento"}, func() [][]string {
				return [][]string{{p.ID, p.Tipo, strconv.Itoa(p.Versao), formatDate(p.DataGeracao), p.Usuario, p.Documento}}
			})
		},
	}
	cmd.Flags().StringVar(&tipo, "tipo", "pdf", "Report type: pdf or planilha")
	return cmd
}
