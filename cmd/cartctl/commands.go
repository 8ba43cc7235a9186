package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hifideliveryeats/cartsync/internal/cartsync"
	"github.com/hifideliveryeats/cartsync/internal/catalog"
	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

const usage = `usage: cartctl [flags] <command> [args]

commands:
  load                 show the cart held by the backend
  add <item> [count]   add count units (default 1) of a menu item
  dec <item>           remove one unit of a menu item
  remove <item>...     drop the listed items
  clear                empty the cart
  summary              show the order summary
  catalog              list the menu with stock
  mirror               show the last locally mirrored cart`

type app struct {
	sync    *cartsync.Synchronizer
	catalog *catalog.Snapshot
	out     io.Writer
	asJSON  bool
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "catalog":
		items, err := a.catalog.Refresh(ctx)
		if err != nil {
			return err
		}
		return a.printCatalog(items)
	case "mirror":
		lines, err := a.sync.LastMirrored(ctx)
		if err != nil {
			return err
		}
		return a.printLines(lines)
	}

	if err := a.hydrate(ctx); err != nil {
		return err
	}

	switch command {
	case "load":
		return a.printLines(a.sync.Lines())
	case "summary":
		return a.printSummary(a.sync.ComputeSummary())
	case "add":
		return a.add(ctx, args)
	case "dec":
		if len(args) != 1 {
			return usageError("dec takes exactly one item id")
		}
		lines, err := a.sync.Decrement(ctx, args[0])
		if err != nil {
			return err
		}
		return a.printLines(lines)
	case "remove":
		if len(args) == 0 {
			return usageError("remove needs at least one item id")
		}
		lines, err := a.sync.RemoveMany(ctx, args)
		if err != nil {
			return err
		}
		return a.printLines(lines)
	case "clear":
		lines, err := a.sync.Clear(ctx)
		if err != nil {
			return err
		}
		return a.printLines(lines)
	default:
		return usageError(fmt.Sprintf("unknown command %q", command))
	}
}

// hydrate loads the backend cart. A failed load aborts the command: writing
// from an emptied list would overwrite the stored cart.
func (a *app) hydrate(ctx context.Context) error {
	if _, err := a.sync.Load(ctx); err != nil {
		if cartsync.IsNetworkFailure(err) {
			fmt.Fprintln(a.out, "warning: cart backend unreachable, your cart could not be loaded")
			if stale, mirrorErr := a.sync.LastMirrored(ctx); mirrorErr == nil && len(stale) > 0 {
				fmt.Fprintln(a.out, "last known cart:")
				_ = a.printLines(stale)
			}
		}
		return err
	}
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usageError("add takes an item id and an optional count")
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return usageError("count must be a positive integer")
		}
		count = n
	}

	if _, err := a.catalog.Refresh(ctx); err != nil {
		return err
	}
	entry, ok := a.catalog.Lookup(args[0])
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("menu item %q not found", args[0]))
	}

	added := 0
	for ; added < count; added++ {
		if _, err := a.sync.Increment(ctx, entry.ItemID, entry); err != nil {
			if cartsync.IsStockExceeded(err) {
				fmt.Fprintf(a.out, "only %d of %s available, added %d\n", entry.StockCeiling(), entry.Name, added)
				break
			}
			return err
		}
	}
	return a.printLines(a.sync.Lines())
}

func (a *app) printLines(lines []types.CartLine) error {
	if a.asJSON {
		return a.writeJSON(lines)
	}
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tQTY\tPRICE\tDISCOUNT %")
	for _, line := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", line.ItemID, line.Name, line.Quantity, line.UnitPrice.StringFixed(2), line.DiscountPercent.String())
	}
	return tw.Flush()
}

func (a *app) printSummary(summary cartsync.Summary) error {
	if a.asJSON {
		return a.writeJSON(summary)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tQTY\tLINE TOTAL\tDISCOUNT\tPAYABLE")
	for _, line := range summary.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			line.ItemID, line.Name, line.Quantity,
			line.LineTotal.StringFixed(2), line.Discount.StringFixed(2), line.Payable.StringFixed(2))
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Items\t%d\n", summary.ItemCount)
	fmt.Fprintf(tw, "Subtotal\t%s\n", summary.Subtotal.StringFixed(2))
	fmt.Fprintf(tw, "Discount\t-%s\n", summary.DiscountTotal.StringFixed(2))
	fmt.Fprintf(tw, "Tax\t%s\n", summary.Tax.StringFixed(2))
	fmt.Fprintf(tw, "Delivery\t%s\n", summary.DeliveryCharge.StringFixed(2))
	fmt.Fprintf(tw, "Total\t%s\n", summary.Total.StringFixed(2))
	return tw.Flush()
}

func (a *app) printCatalog(items []types.CatalogItem) error {
	if a.asJSON {
		return a.writeJSON(items)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tCATEGORY\tPRICE\tDISCOUNT %\tSTOCK")
	for _, item := range items {
		category := item.CategoryName
		if item.SubcategoryName != "" {
			category += " / " + item.SubcategoryName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			item.ItemID, item.Name, category, item.Price.StringFixed(2), item.DiscountPercentage.String(), item.StockCeiling())
	}
	return tw.Flush()
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, strings.TrimSpace(msg))
}
