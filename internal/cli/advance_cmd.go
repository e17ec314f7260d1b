package cli

import (
	"fmt"

	"github.com/alexanderramin/ordersync/internal/cli/formatter"
	"github.com/alexanderramin/ordersync/internal/service"
	"github.com/spf13/cobra"
)

func newAdvanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Track progress with advance assignments",
	}

	cmd.AddCommand(
		newAdvanceTypeAddCmd(app),
		newAdvanceTypesCmd(app),
		newAdvanceAddCmd(app),
		newAdvanceRemoveCmd(app),
		newAdvanceMeasureCmd(app),
		newAdvanceProgressCmd(app),
		newAdvanceFinishedCmd(app),
	)

	return cmd
}

func newAdvanceTypeAddCmd(app *App) *cobra.Command {
	var in service.CreateAdvanceTypeInput

	cmd := &cobra.Command{
		Use:   "type-add UNIT",
		Short: "Create an advance type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.UnitName = args[0]
			t, err := app.Advances.CreateType(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created advance type %s (max %g)\n", t.UnitName, t.DefaultMaxValue)
			return nil
		},
	}

	cmd.Flags().Float64Var(&in.DefaultMaxValue, "max", 100, "Default maximum value")
	cmd.Flags().BoolVar(&in.Percentage, "percentage", false, "Values are percentages")

	return cmd
}

func newAdvanceTypesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List advance types",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := app.Advances.ListTypes(cmd.Context())
			if err != nil {
				return err
			}

			if len(types) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No advance types found.")
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAdvanceTypes(types))
			return nil
		},
	}
}

func newAdvanceAddCmd(app *App) *cobra.Command {
	var in service.AddAssignmentInput

	cmd := &cobra.Command{
		Use:   "add ELEMENT",
		Short: "Assign an advance type to an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ElementCode = args[0]
			a, err := app.Advances.AddAssignment(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s (max %g)\n", a.Type.UnitName, in.ElementCode, a.MaxValue)
			return nil
		},
	}

	addOrderFlag(cmd, &in.OrderCode)
	cmd.Flags().StringVar(&in.TypeName, "type", "", "Advance type unit name")
	cmd.Flags().Float64Var(&in.MaxValue, "max", 0, "Maximum value (defaults to the type's)")
	cmd.Flags().BoolVar(&in.ReportGlobal, "global", false, "Report this advance for the whole order")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newAdvanceRemoveCmd(app *App) *cobra.Command {
	var orderCode, typeName string

	cmd := &cobra.Command{
		Use:   "remove ELEMENT",
		Short: "Remove an advance assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Advances.RemoveAssignment(cmd.Context(), orderCode, args[0], typeName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", typeName, args[0])
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	cmd.Flags().StringVar(&typeName, "type", "", "Advance type unit name")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newAdvanceMeasureCmd(app *App) *cobra.Command {
	var (
		in   service.AddMeasurementInput
		date dateValue
	)

	cmd := &cobra.Command{
		Use:   "measure ELEMENT",
		Short: "Record a progress measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ElementCode = args[0]
			if date.t != nil {
				in.Date = *date.t
			}
			if err := app.Advances.AddMeasurement(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %g %s on %s\n", in.Value, in.TypeName, in.ElementCode)
			return nil
		},
	}

	addOrderFlag(cmd, &in.OrderCode)
	cmd.Flags().StringVar(&in.TypeName, "type", "", "Advance type unit name")
	cmd.Flags().Float64Var(&in.Value, "value", 0, "Measured value")
	cmd.Flags().Var(&date, "date", "Measurement date (YYYY-MM-DD, defaults to today)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newAdvanceProgressCmd(app *App) *cobra.Command {
	var orderCode string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show the advance percentage of every element",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.Advances.Progress(cmd.Context(), orderCode)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgress(orderCode, rows))
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)

	return cmd
}

func newAdvanceFinishedCmd(app *App) *cobra.Command {
	var orderCode, version string

	cmd := &cobra.Command{
		Use:   "finished ELEMENT",
		Short: "Report whether the scheduled task covering an element is finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			finished, err := app.Advances.IsFinished(cmd.Context(), orderCode, args[0], app.version(version))
			if err != nil {
				return err
			}
			if finished {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is finished\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not finished\n", args[0])
			}
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	addVersionFlag(cmd, &version)

	return cmd
}
