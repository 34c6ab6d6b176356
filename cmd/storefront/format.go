package main

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/cart"
)

var printer = message.NewPrinter(language.English)

func formatMoney(unit currency.Unit, d decimal.Decimal) string {
	return printer.Sprint(currency.Symbol(unit.Amount(d.InexactFloat64())))
}

func table(w io.Writer, header string, rows func(tw io.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseVerification accepts either the link from the welcome e-mail or a
// user id followed by the token.
func parseVerification(args []string) (int64, string, error) {
	if len(args) == 2 {
		id, err := parseID(args[0])
		return id, args[1], err
	}
	link, err := url.Parse(args[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid verification link: %w", err)
	}
	token := link.Query().Get("token")
	if token == "" {
		return 0, "", fmt.Errorf("verification link %q has no token", args[0])
	}
	id, err := parseID(path.Base(link.Path))
	return id, token, err
}

// parsePosition converts a 1-based cart position into an index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid cart position %q", s)
	}
	return n - 1, nil
}

func (a *app) printProducts(w io.Writer, products []api.Product) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "No products.")
		return err
	}
	return table(w, "ID\tNAME\tPRICE\tSTOCK", func(tw io.Writer) {
		for _, p := range products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.ID, p.Name, formatMoney(a.money, p.Price), p.Stock)
		}
	})
}

func (a *app) printCart(w io.Writer, c cart.Cart) error {
	if len(c) == 0 {
		_, err := fmt.Fprintln(w, "Your cart is empty.")
		return err
	}
	err := table(w, "#\tPRODUCT\tQTY\tPRICE\tSUBTOTAL", func(tw io.Writer) {
		for i, it := range c {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
				i+1, it.Name, it.Quantity,
				formatMoney(a.money, it.UnitPrice),
				formatMoney(a.money, it.Subtotal()),
			)
		}
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Total: %s\n", formatMoney(a.money, c.Total()))
	return err
}

func (a *app) printOrders(w io.Writer, orders []api.Order, withUser bool) error {
	if len(orders) == 0 {
		_, err := fmt.Fprintln(w, "No orders yet.")
		return err
	}
	for _, o := range orders {
		line := fmt.Sprintf("Order #%d  %s  %s", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), formatMoney(a.money, o.Total))
		if withUser {
			line += "  " + o.User
		}
		fmt.Fprintln(w, line)
		for _, it := range o.Items {
			fmt.Fprintf(w, "  %d x %s @ %s\n", it.Quantity, it.ProductName, formatMoney(a.money, it.Price))
		}
	}
	return nil
}
