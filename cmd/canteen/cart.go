package main

import (
	"fmt"
	"strconv"

	"github.com/nikolayk812/canteen-client/internal/cartsync"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/spf13/cobra"
)

func (a *app) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: a.cartRun(func(cmd *cobra.Command, l *local, _ []string) (cartsync.Result, error) {
			return l.syncer.Refresh(cmd.Context())
		}),
	}

	var ref domain.AddItemRequest
	add := &cobra.Command{
		Use:   "add <itemId>",
		Short: "Add an item from a menu",
		Args:  cobra.ExactArgs(1),
		RunE: a.cartRun(func(cmd *cobra.Command, l *local, args []string) (cartsync.Result, error) {
			id, err := positiveID(args[0])
			if err != nil {
				return cartsync.Result{}, err
			}
			req := ref
			req.ItemID = id
			return l.syncer.Add(cmd.Context(), req)
		}),
	}
	add.Flags().Int64Var(&ref.MenuID, "menu", 0, "menu the item is ordered from")
	add.Flags().Int64Var(&ref.MenuConfigurationID, "menu-config", 0, "menu configuration (meal slot) of the menu")
	add.Flags().IntVar(&ref.Quantity, "qty", 1, "quantity to add")
	_ = add.MarkFlagRequired("menu")

	var incRef domain.AddItemRequest
	inc := &cobra.Command{
		Use:   "inc <itemId>",
		Short: "Raise an item's quantity by one, adding it from --menu when absent",
		Args:  cobra.ExactArgs(1),
		RunE: a.lineRun(func(cmd *cobra.Command, l *local, itemID int64, _ []string) (cartsync.Result, error) {
			req := incRef
			req.ItemID, req.Quantity = itemID, 1
			return l.syncer.Increment(cmd.Context(), req)
		}),
	}
	inc.Flags().Int64Var(&incRef.MenuID, "menu", 0, "menu to add from when the item is not in the cart")
	inc.Flags().Int64Var(&incRef.MenuConfigurationID, "menu-config", 0, "menu configuration (meal slot) of the menu")

	dec := &cobra.Command{
		Use:   "dec <itemId>",
		Short: "Lower an item's quantity by one",
		Args:  cobra.ExactArgs(1),
		RunE: a.lineRun(func(cmd *cobra.Command, l *local, itemID int64, _ []string) (cartsync.Result, error) {
			return l.syncer.Decrement(cmd.Context(), itemID)
		}),
	}

	set := &cobra.Command{
		Use:   "set <itemId> <quantity>",
		Short: "Set an item's quantity",
		Args:  cobra.ExactArgs(2),
		RunE: a.lineRun(func(cmd *cobra.Command, l *local, itemID int64, args []string) (cartsync.Result, error) {
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty < 0 {
				return cartsync.Result{}, fmt.Errorf("quantity must be a non-negative integer")
			}
			return l.syncer.SetQuantity(cmd.Context(), itemID, qty)
		}),
	}

	rm := &cobra.Command{
		Use:   "rm <itemId>",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: a.lineRun(func(cmd *cobra.Command, l *local, itemID int64, _ []string) (cartsync.Result, error) {
			return l.syncer.Remove(cmd.Context(), itemID)
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item",
		Args:  cobra.NoArgs,
		RunE: a.cartRun(func(cmd *cobra.Command, l *local, _ []string) (cartsync.Result, error) {
			return l.syncer.Clear(cmd.Context())
		}),
	}

	cmd.AddCommand(show, add, inc, dec, set, rm, clearCmd)
	return cmd
}

type cartFn func(cmd *cobra.Command, l *local, args []string) (cartsync.Result, error)

func (a *app) cartRun(fn cartFn) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return a.withLocal(cmd.Context(), true, func(l *local) error {
			res, err := fn(cmd, l, args)
			if err == nil || res.Notice != "" {
				printCart(cmd, res)
			}
			return err
		})
	}
}

// lineRun parses the item id argument.
func (a *app) lineRun(fn func(cmd *cobra.Command, l *local, itemID int64, args []string) (cartsync.Result, error)) func(*cobra.Command, []string) error {
	return a.cartRun(func(cmd *cobra.Command, l *local, args []string) (cartsync.Result, error) {
		itemID, err := positiveID(args[0])
		if err != nil {
			return cartsync.Result{}, err
		}
		return fn(cmd, l, itemID, args)
	})
}

func printCart(cmd *cobra.Command, res cartsync.Result) {
	out := cmd.OutOrStdout()
	if res.Notice != "" {
		fmt.Fprintln(out, res.Notice)
	}
	if res.Redirect == cartsync.CartRoute {
		fmt.Fprintln(out, "clear the cart or finish the current order first")
	}
	if res.Cart.Empty() {
		fmt.Fprintln(out, "cart is empty")
		return
	}

	w := newTable(out)
	fmt.Fprintln(w, "ITEM\tNAME\tQTY\tMAX\tPRICE\tTOTAL")
	for _, line := range res.Cart.Items {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n", line.ItemID, line.Item.Name, line.Quantity, line.EffectiveMax(), line.Price, line.Total)
	}
	fmt.Fprintf(w, "\t\t\t\tSUBTOTAL\t%s\n", res.Cart.Subtotal())
	fmt.Fprintf(w, "%d item(s)\n", res.Cart.Count())
	_ = w.Flush()
}
