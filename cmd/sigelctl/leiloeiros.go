package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newLeiloeirosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leiloeiros",
		Short: "Manage auctioneers",
	}
	cmd.AddCommand(newLeiloeirosListCmd(), newLeiloeirosAddCmd())
	return cmd
}

func newLeiloeirosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List auctioneers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp leiloeiroList
			if err := newClient().getJSON(apiPrefix+"/leiloeiros", &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), resp, []string{"ID", "Nome", "Email", "Ativo"}, func() [][]string {
				rows := make([][]string, 0, len(resp.Leiloeiros))
				for _, l := range resp.Leiloeiros {
					rows = append(rows, []string{l.ID, l.Nome, l.Email, strconv.FormatBool(l.Ativo)})
				}
				return rows
			})
		},
	}
}

func newLeiloeirosAddCmd() *cobra.Command {
	var l leiloeiro
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an auctioneer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l.Ativo = true
			var created leiloeiro
			if err := newClient().postJSON(apiPrefix+"/leiloeiros", l, &created); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), created, []string{"ID", "Nome"}, func() [][]string {
				return [][]string{{created.ID, created.Nome}}
			})
		},
	}
	cmd.Flags().StringVar(&l.Nome, "nome", "", "Full name")
	cmd.Flags().StringVar(&l.Email, "email", "", "Contact e-mail")
	_ = cmd.MarkFlagRequired("nome")
	return cmd
}
