package main

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newAuditoriaCmd() *cobra.Command {
	var (
		search, entidade, entidadeID, usuarioRole, pageToken string
		pageSize                                             int
	)
	cmd := &cobra.Command{
		Use:   "auditoria",
		Short: "List audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			for k, v := range map[string]string{
				"q":          search,
				"entidade":   entidade,
				"entidadeId": entidadeID,
				"role":       usuarioRole,
				"pageToken":  pageToken,
			} {
				if v != "" {
					q.Set(k, v)
				}
			}
			if pageSize > 0 {
				q.Set("pageSize", strconv.Itoa(pageSize))
			}
			path := apiPrefix + "/auditoria"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var resp auditList
			if err := newClient().getJSON(path, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), resp, []string{"Data", "Usuario", "Acao", "Entidade", "Detalhes"}, func() [][]string {
				rows := make([][]string, 0, len(resp.Events)+1)
				for _, e := range resp.Events {
					rows = append(rows, []string{formatDate(e.Data), e.Usuario, e.Acao, e.Entidade, truncate(e.Detalhes, 60)})
				}
				if resp.NextPageToken != "" {
					rows = append(rows, []string{"", "", "", "", "next page: --page-token " + resp.NextPageToken})
				}
				return rows
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "Match action, details or user")
	cmd.Flags().StringVar(&entidade, "entidade", "", "Filter by entity: leilao, carro or lote")
	cmd.Flags().StringVar(&entidadeID, "entidade-id", "", "Filter by entity ID")
	cmd.Flags().StringVar(&usuarioRole, "usuario-role", "", "Filter by the acting role")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Events per page (server default 20)")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Token of the page to fetch")
	return cmd
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the operational summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var d dashboard
			if err := newClient().getJSON(apiPrefix+"/dashboard", &d); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), d, []string{"Indicador", "Valor"}, func() [][]string {
				rows := [][]string{
					{"Carros aptos", strconv.Itoa(d.CarrosAptos)},
					{"Total de carros", strconv.Itoa(d.TotalCarros)},
					{"Aguardando resultados", strconv.Itoa(d.AguardandoResultados)},
					{"Leiloeiros ativos", strconv.Itoa(d.LeiloeirosAtivos)},
					{"Total arrecadado", d.TotalArrecadado},
				}
				statuses := make([]string, 0, len(d.LeiloesPorStatus))
				for s := range d.LeiloesPorStatus {
					statuses = append(statuses, s)
				}
				sort.Strings(statuses)
				for _, s := range statuses {
					rows = append(rows, []string{"Leilões " + s, strconv.Itoa(d.LeiloesPorStatus[s])})
				}
				return rows
			})
		},
	}
}
