package main

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newCarrosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carros",
		Short: "Manage vehicles",
	}
	cmd.AddCommand(newCarrosListCmd(), newCarrosAddCmd())
	return cmd
}

func newCarrosListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := apiPrefix + "/carros"
			if status != "" {
				path += "?" + url.Values{"status": {status}}.Encode()
			}
			var resp carroList
			if err := newClient().getJSON(path, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), resp, []string{"ID", "Placa", "Marca", "Modelo", "Ano", "Status", "Valor Inicial"}, func() [][]string {
				rows := make([][]string, 0, len(resp.Carros))
				for _, c := range resp.Carros {
					rows = append(rows, []string{c.ID, c.Placa, c.Marca, c.Modelo, strconv.Itoa(c.Ano), c.Status, c.ValorInicial})
				}
				return rows
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (APTO, VINCULADO, ...)")
	return cmd
}

func newCarrosAddCmd() *cobra.Command {
	var c carro
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var created carro
			if err := newClient().postJSON(apiPrefix+"/carros", c, &created); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), created, []string{"ID", "Placa", "Status"}, func() [][]string {
				return [][]string{{created.ID, created.Placa, created.Status}}
			})
		},
	}
	cmd.Flags().StringVar(&c.Placa, "placa", "", "License plate")
	cmd.Flags().StringVar(&c.Marca, "marca", "", "Make")
	cmd.Flags().StringVar(&c.Modelo, "modelo", "", "Model")
	cmd.Flags().IntVar(&c.Ano, "ano", 0, "Model year")
	cmd.Flags().StringVar(&c.Chassi, "chassi", "", "Chassis number")
	cmd.Flags().StringVar(&c.Cor, "cor", "", "Color")
	cmd.Flags().StringVar(&c.Tipo, "tipo", "", "Vehicle type")
	cmd.Flags().StringVar(&c.ValorInicial, "valor-inicial", "", "Starting value in reais")
	_ = cmd.MarkFlagRequired("placa")
	return cmd
}
