package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/storefront/pkg/cart"
)

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client.Cart().Read(cmd.Context())
			if err != nil {
				return err
			}
			return a.printCart(cmd.OutOrStdout(), c)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE:  cmd.RunE,
	}

	add := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty := 1
			if len(args) == 2 {
				if qty, err = strconv.Atoi(args[1]); err != nil {
					return cart.ErrInvalidQuantity
				}
			}
			c, err := a.client.AddToCart(cmd.Context(), id, qty)
			if err != nil {
				return err
			}
			return a.printCart(cmd.OutOrStdout(), c)
		},
	}

	cmd.AddCommand(
		show,
		add,
		a.cartAdjustCmd("inc <position>", "Increase a line by one", 1),
		a.cartAdjustCmd("dec <position>", "Decrease a line by one, removing it at zero", -1),
		&cobra.Command{
			Use:   "rm <position>",
			Short: "Remove a line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				i, err := parsePosition(args[0])
				if err != nil {
					return err
				}
				c, err := a.client.Cart().Remove(cmd.Context(), i)
				if err != nil {
					return err
				}
				return a.printCart(cmd.OutOrStdout(), c)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.client.Cart().Clear(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("Cart cleared.")
				return nil
			},
		},
	)
	return cmd
}

func (a *app) cartAdjustCmd(use, short string, delta int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			c, err := a.client.Cart().AdjustQuantity(cmd.Context(), i, delta)
			if err != nil {
				return err
			}
			return a.printCart(cmd.OutOrStdout(), c)
		},
	}
}

func (a *app) checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := a.client.Checkout(cmd.Context())
			if order != nil {
				cmd.Printf("Order #%d placed, total %s\n", order.ID, formatMoney(a.money, order.Total))
			}
			return err
		},
	}
}

func (a *app) ordersCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all {
				orders, err := a.client.AllOrders(cmd.Context())
				if err != nil {
					return err
				}
				return a.printOrders(cmd.OutOrStdout(), orders, true)
			}
			orders, err := a.client.Orders(cmd.Context())
			if err != nil {
				return err
			}
			return a.printOrders(cmd.OutOrStdout(), orders, false)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every order (admin)")
	return cmd
}
