package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/storefront/pkg/api"
)

func (a *app) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := a.client.Products(cmd.Context())
			if err != nil {
				return err
			}
			return a.printProducts(cmd.OutOrStdout(), products)
		},
	}
}

func (a *app) productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Show or manage a single product",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				p, err := a.client.Product(cmd.Context(), id)
				if err != nil {
					return err
				}
				cmd.Printf("#%d %s\n%s, %d in stock\n", p.ID, p.Name, formatMoney(a.money, p.Price), p.Stock)
				if p.Description != "" {
					cmd.Println(p.Description)
				}
				return nil
			},
		},
		a.productEditCmd("create", "Add a product (admin)", cobra.NoArgs),
		a.productEditCmd("update <id>", "Replace a product (admin)", cobra.ExactArgs(1)),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Remove a product (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				msg, err := a.client.DeleteProduct(cmd.Context(), id)
				if err != nil {
					return err
				}
				cmd.Println(msg)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) productEditCmd(use, short string, args cobra.PositionalArgs) *cobra.Command {
	var (
		name, description, price string
		stock                    int
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q", price)
			}
			in := api.Product{Name: name, Description: description, Price: amount, Stock: stock}

			var p *api.Product
			if len(args) == 0 {
				p, err = a.client.CreateProduct(cmd.Context(), in)
			} else {
				var id int64
				if id, err = parseID(args[0]); err != nil {
					return err
				}
				p, err = a.client.UpdateProduct(cmd.Context(), id, in)
			}
			if err != nil {
				return err
			}
			cmd.Printf("Saved product #%d %s\n", p.ID, p.Name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "product name")
	f.StringVar(&description, "description", "", "product description")
	f.StringVar(&price, "price", "", "unit price, e.g. 19.99")
	f.IntVar(&stock, "stock", 0, "units in stock")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}
