package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// CartListing is the output of the list command
type CartListing struct {
	Items []localcart.LineItem `json:"items"`
	Count int                  `json:"count"`
	Total decimal.Decimal      `json:"total"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the guest cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			ctx := cmd.Context()
			listing := CartListing{
				Items: ws.cart.Items(ctx),
				Count: ws.cart.Count(ctx),
				Total: ws.cart.TotalValue(ctx),
			}
			return ws.formatter(cmd, rootOpts).Success(listing, func(w io.Writer) {
				printListing(w, listing)
			})
		},
	}
}

func printListing(w io.Writer, listing CartListing) {
	if len(listing.Items) == 0 {
		fmt.Fprintln(w, "Cart is empty")
		return
	}
	for _, item := range listing.Items {
		name := item.Snapshot.Title
		if name == "" {
			name = item.ProductID
		}
		if item.Snapshot.ColorName != "" {
			name += " (" + item.Snapshot.ColorName + ")"
		} else if item.ColorID != "" {
			name += " (" + item.ColorID + ")"
		}
		fmt.Fprintf(w, "%-40s x%-3d %s\n", name, item.Quantity, item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "%d item(s), total %s\n", listing.Count, listing.Total.StringFixed(2))
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var colorID string
	var quantity int

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add units of a product to the guest cart",
		Long: `Add units of a product to the guest cart.

With --token the signed-in cart is read first so the stock check covers
both carts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			ctx := cmd.Context()
			var serverItems []localcart.ServerItem
			if rootOpts.Token != "" {
				serverItems, err = remoteClient(rootOpts).Items(ctx)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: signed-in cart not counted: %v\n", err)
				}
			}

			res := ws.cart.Add(ctx, localcart.LineItem{
				ProductID: args[0],
				ColorID:   colorID,
				Quantity:  quantity,
			}, ws.catalog, serverItems)
			return reportResult(cmd, rootOpts, res)
		},
	}

	cmd.Flags().StringVarP(&colorID, "color", "c", "", "color variant id")
	cmd.Flags().IntVarP(&quantity, "qty", "q", 1, "units to add")
	return cmd
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	var colorID string

	cmd := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "quantity must be a number", err)
			}

			ws, err := openWorkspace(rootOpts, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			res := ws.cart.UpdateQuantity(cmd.Context(), args[0], colorID, quantity, ws.catalog)
			return reportResult(cmd, rootOpts, res)
		},
	}

	cmd.Flags().StringVarP(&colorID, "color", "c", "", "color variant id")
	return cmd
}

// NewVariantCommand creates the variant command.
func NewVariantCommand(rootOpts *RootOptions) *cobra.Command {
	var fromColor, toColor string

	cmd := &cobra.Command{
		Use:   "variant <product-id>",
		Short: "Move a line to another color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			res := ws.cart.ChangeVariant(cmd.Context(), args[0], fromColor, toColor, ws.catalog)
			return reportResult(cmd, rootOpts, res)
		},
	}

	cmd.Flags().StringVar(&fromColor, "from", "", "current color id")
	cmd.Flags().StringVar(&toColor, "to", "", "new color id")
	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var colorID string

	cmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the guest cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			if !ws.cart.Remove(cmd.Context(), args[0], colorID) {
				return reportResult(cmd, rootOpts, localcart.Result{Message: "Item not in cart", Err: localcart.ErrItemNotFound})
			}
			return reportResult(cmd, rootOpts, localcart.Result{Success: true, Message: "Item removed from cart"})
		},
	}

	cmd.Flags().StringVarP(&colorID, "color", "c", "", "color variant id")
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the guest cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			return reportResult(cmd, rootOpts, ws.cart.Clear(cmd.Context()))
		},
	}
}

func reportResult(cmd *cobra.Command, opts *RootOptions, res localcart.Result) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if !res.Success {
		return f.Rejected(res.Message)
	}
	return f.Success(res, func(w io.Writer) {
		fmt.Fprintln(w, res.Message)
	})
}
