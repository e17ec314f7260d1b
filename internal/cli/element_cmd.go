package cli

import (
	"fmt"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/service"
	"github.com/spf13/cobra"
)

func newElementCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "element",
		Short: "Edit the element tree of an order",
	}

	cmd.AddCommand(
		newElementAddCmd(app),
		newElementRemoveCmd(app),
		newElementConvertCmd(app),
		newElementHoursCmd(app),
		newElementLabelCmd(app),
		newElementMaterialCmd(app),
		newElementQualityCmd(app),
		newElementCriterionCmd(app),
	)

	return cmd
}

func newElementAddCmd(app *App) *cobra.Command {
	var (
		in       service.AddElementInput
		version  string
		kind     = newKindValue(domain.KindLeaf)
		initDate dateValue
		deadline dateValue
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a leaf or group element",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Kind = kind.String()
			in.InitDate = initDate.t
			in.Deadline = deadline.t
			if in.Schedule {
				in.Version = app.version(version)
			}

			e, err := app.Orders.AddElement(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s [%s]\n", e.Kind, e.Name, e.Code)
			return nil
		},
	}

	addOrderFlag(cmd, &in.OrderCode)
	cmd.Flags().StringVar(&in.ParentCode, "parent", "", "Parent element code (defaults to the order root)")
	cmd.Flags().StringVar(&in.Code, "code", "", "Element code")
	cmd.Flags().StringVar(&in.Name, "name", "", "Element name")
	cmd.Flags().Var(kind, "kind", "Element kind: leaf or group")
	cmd.Flags().IntVar(&in.Hours, "hours", 0, "Work hours of a leaf")
	cmd.Flags().StringVar(&in.Template, "template", "", "Template the element is created from")
	cmd.Flags().Var(&initDate, "init-date", "Earliest start (YYYY-MM-DD)")
	cmd.Flags().Var(&deadline, "deadline", "Deadline (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&in.Schedule, "schedule", false, "Make the element a scheduling point")
	addVersionFlag(cmd, &version)
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newElementRemoveCmd(app *App) *cobra.Command {
	var orderCode string

	cmd := &cobra.Command{
		Use:   "remove CODE",
		Short: "Remove an element and its subtree from every version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Orders.RemoveElement(cmd.Context(), orderCode, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed element %s\n", args[0])
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)

	return cmd
}

func newElementConvertCmd(app *App) *cobra.Command {
	var orderCode string

	cmd := &cobra.Command{
		Use:   "convert CODE",
		Short: "Convert a leaf into a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			child, err := app.Orders.ConvertToGroup(cmd.Context(), orderCode, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s to a group; hours moved to %s\n", args[0], child.Code)
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)

	return cmd
}

func newElementHoursCmd(app *App) *cobra.Command {
	var in service.AddHoursGroupInput

	cmd := &cobra.Command{
		Use:   "hours ELEMENT",
		Short: "Add an hours group to a leaf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ElementCode = args[0]
			if err := app.Orders.AddHoursGroup(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %dh to %s\n", in.Hours, in.ElementCode)
			return nil
		},
	}

	addOrderFlag(cmd, &in.OrderCode)
	cmd.Flags().StringVar(&in.Code, "code", "", "Hours group code")
	cmd.Flags().IntVar(&in.Hours, "hours", 0, "Working hours")
	cmd.Flags().StringVar(&in.ResourceType, "resource", "", "Resource type")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("hours")

	return cmd
}

func newElementLabelCmd(app *App) *cobra.Command {
	var (
		orderCode string
		label     domain.Label
	)

	cmd := &cobra.Command{
		Use:   "label ELEMENT",
		Short: "Label an element and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if label.Name == "" {
				label.Name = label.Code
			}
			if err := app.Orders.AddLabel(cmd.Context(), orderCode, args[0], label); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Labelled %s with %s\n", args[0], label.Name)
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	cmd.Flags().StringVar(&label.Code, "code", "", "Label code")
	cmd.Flags().StringVar(&label.Type, "type", "", "Label type")
	cmd.Flags().StringVar(&label.Name, "name", "", "Label name (defaults to the code)")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newElementMaterialCmd(app *App) *cobra.Command {
	var in service.AddMaterialInput

	cmd := &cobra.Command{
		Use:   "material ELEMENT",
		Short: "Assign material units to an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ElementCode = args[0]
			if err := app.Orders.AddMaterial(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %g x %s to %s\n", in.Units, in.MaterialCode, in.ElementCode)
			return nil
		},
	}

	addOrderFlag(cmd, &in.OrderCode)
	cmd.Flags().StringVar(&in.MaterialCode, "material", "", "Material code")
	cmd.Flags().Float64Var(&in.Units, "units", 0, "Units consumed")
	cmd.Flags().Float64Var(&in.UnitPrice, "price", 0, "Price per unit")
	_ = cmd.MarkFlagRequired("material")

	return cmd
}

func newElementQualityCmd(app *App) *cobra.Command {
	var orderCode, form string

	cmd := &cobra.Command{
		Use:   "quality ELEMENT",
		Short: "Attach a quality form to an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Orders.AddQualityForm(cmd.Context(), orderCode, args[0], form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attached quality form %s to %s\n", form, args[0])
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	cmd.Flags().StringVar(&form, "form", "", "Quality form name")
	_ = cmd.MarkFlagRequired("form")

	return cmd
}

func newElementCriterionCmd(app *App) *cobra.Command {
	var orderCode, criterion string

	cmd := &cobra.Command{
		Use:   "criterion ELEMENT",
		Short: "Require a resource criterion for an element and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Orders.AddCriterionRequirement(cmd.Context(), orderCode, args[0], criterion); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Required %s on %s\n", criterion, args[0])
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	cmd.Flags().StringVar(&criterion, "criterion", "", "Criterion name")
	_ = cmd.MarkFlagRequired("criterion")

	return cmd
}
