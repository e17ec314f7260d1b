package cli

import (
	"fmt"

	"github.com/alexanderramin/ordersync/internal/cli/formatter"
	"github.com/alexanderramin/ordersync/internal/service"
	"github.com/spf13/cobra"
)

func newOrderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage orders",
	}

	cmd.AddCommand(
		newOrderCreateCmd(app),
		newOrderListCmd(app),
		newOrderShowCmd(app),
		newOrderImportCmd(app),
		newOrderDeleteCmd(app),
	)

	return cmd
}

func newOrderCreateCmd(app *App) *cobra.Command {
	var in service.CreateOrderInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new order",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := app.Orders.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created order %s [%s]\n", o.Name, o.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Code, "code", "", "Order code (unique, no underscores)")
	cmd.Flags().StringVar(&in.Name, "name", "", "Order name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Order description")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newOrderListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := app.Orders.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders found.")
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOrderList(orders))
			return nil
		},
	}
}

func newOrderShowCmd(app *App) *cobra.Command {
	var elementCode string

	cmd := &cobra.Command{
		Use:   "show CODE",
		Short: "Show the element tree of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := app.Orders.GetByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if elementCode == "" {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOrderTree(o))
				return nil
			}

			e, ok := o.ElementByCode(elementCode)
			if !ok {
				return fmt.Errorf("element %q not found in order %s", elementCode, o.Code)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatElement(o, e))
			return nil
		},
	}

	cmd.Flags().StringVarP(&elementCode, "element", "e", "", "Show the details of one element")

	return cmd
}

func newOrderImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import an order tree from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported order %s [%s]: %d elements, %d scheduled\n",
				res.Order.Name, res.Order.Code, res.ElementCount, res.ScheduledCount)
			return nil
		},
	}
}

func newOrderDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CODE",
		Short: "Delete an order with its versions and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Orders.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted order %s\n", args[0])
			return nil
		},
	}
}
