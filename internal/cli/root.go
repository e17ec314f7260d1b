package cli

import (
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Orders     service.OrderService
	Scheduling service.SchedulingService
	Advances   service.AdvanceService
	Import     service.ImportService

	// DefaultVersion is used by commands run without --version.
	DefaultVersion domain.OrderVersion
}

// version resolves the --version flag against the configured default.
func (app *App) version(flag string) domain.OrderVersion {
	if flag != "" {
		return domain.OrderVersion(flag)
	}
	if app.DefaultVersion != "" {
		return app.DefaultVersion
	}
	return domain.BaseVersion
}

// NewRootCmd creates the top-level "ordersync" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "ordersync",
		Short:         "Order trees synchronized with a versioned schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newOrderCmd(app),
		newElementCmd(app),
		newScheduleCmd(app),
		newUnscheduleCmd(app),
		newSyncCmd(app),
		newStatesCmd(app),
		newTasksCmd(app),
		newVersionCmd(app),
		newAdvanceCmd(app),
	)

	return root
}
