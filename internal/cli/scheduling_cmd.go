package cli

import (
	"fmt"

	"github.com/alexanderramin/ordersync/internal/cli/formatter"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/service"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	var orderCode, version string

	cmd := &cobra.Command{
		Use:   "schedule ELEMENT",
		Short: "Make an element a scheduling point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := app.version(version)
			if err := app.Scheduling.Schedule(cmd.Context(), orderCode, args[0], v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s in %s\n", args[0], v)
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	addVersionFlag(cmd, &version)

	return cmd
}

func newUnscheduleCmd(app *App) *cobra.Command {
	var orderCode, version string

	cmd := &cobra.Command{
		Use:   "unschedule ELEMENT",
		Short: "Stop scheduling an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := app.version(version)
			if err := app.Scheduling.Unschedule(cmd.Context(), orderCode, args[0], v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unscheduled %s in %s\n", args[0], v)
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	addVersionFlag(cmd, &version)

	return cmd
}

func newSyncCmd(app *App) *cobra.Command {
	var (
		orderCode string
		version   string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the order tree with its tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res *service.SyncResult
				err error
			)
			if dryRun {
				res, err = app.Scheduling.Plan(cmd.Context(), orderCode, app.version(version))
			} else {
				res, err = app.Scheduling.Synchronize(cmd.Context(), orderCode, app.version(version))
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSyncPlan(res))
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	addVersionFlag(cmd, &version)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the commands without applying them")

	return cmd
}

func newStatesCmd(app *App) *cobra.Command {
	var orderCode, version string

	cmd := &cobra.Command{
		Use:   "states",
		Short: "Show the scheduling state of every element",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := app.version(version)
			states, err := app.Scheduling.States(cmd.Context(), orderCode, v)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStates(orderCode, v, states))
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	addVersionFlag(cmd, &version)

	return cmd
}

func newTasksCmd(app *App) *cobra.Command {
	var orderCode, version string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of a version",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := app.Orders.GetByCode(cmd.Context(), orderCode)
			if err != nil {
				return err
			}
			tasks, err := app.Scheduling.Tasks(cmd.Context(), orderCode, app.version(version))
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks. Schedule elements and run sync.")
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTasks(o, tasks))
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	addVersionFlag(cmd, &version)

	return cmd
}

func newVersionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Manage the scheduling versions of an order",
	}

	cmd.AddCommand(
		newVersionListCmd(app),
		newVersionForkCmd(app),
	)

	return cmd
}

func newVersionListCmd(app *App) *cobra.Command {
	var orderCode string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := app.Scheduling.ListVersions(cmd.Context(), orderCode)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatVersions(scenarios))
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)

	return cmd
}

func newVersionForkCmd(app *App) *cobra.Command {
	var orderCode, from string

	cmd := &cobra.Command{
		Use:   "fork NAME",
		Short: "Fork a version into a new what-if version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := app.version(from)
			s, err := app.Scheduling.ForkVersion(cmd.Context(), orderCode, src, domain.OrderVersion(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forked %s from %s\n", s.Version, src)
			return nil
		},
	}

	addOrderFlag(cmd, &orderCode)
	cmd.Flags().StringVar(&from, "from", "", "Version to fork (defaults to the configured version)")

	return cmd
}
