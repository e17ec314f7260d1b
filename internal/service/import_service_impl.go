package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/importer"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportFile(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error) {
	return s.importSchema(ctx, schema)
}

func (s *importService) importSchema(ctx context.Context, schema *importer.ImportSchema) (result *ImportResult, err error) {
	fields := map[string]any{"order": schema.Order.Code, "elements": len(schema.Elements)}
	defer observe(ctx, s.observer, useCaseImport, fields)(&err)

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	generated, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}
	o := generated.Order

	// Types are initialized while the elements are still new.
	engine := scheduling.NewEngine(o, scheduling.NewStore())
	engine.UseSchedulingDataFor(o.Root(), domain.BaseVersion)
	for _, code := range generated.Scheduled {
		e, err := elementByCode(o, code)
		if err != nil {
			return nil, err
		}
		if err := engine.InitializeType(e.Node, scheduling.SchedulingPoint); err != nil {
			return nil, err
		}
	}
	engine.WriteSchedulingDataChanges(o.Root())

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		for _, e := range o.Elements() {
			if err := checkCodeFree(ctx, repos.orders, e.Code, ""); err != nil {
				return err
			}
		}
		if err := repos.orders.Save(ctx, o); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		if err := repos.scenarios.Create(ctx, &domain.Scenario{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			Name:      string(domain.BaseVersion),
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}); err != nil {
			return fmt.Errorf("creating base scenario: %w", err)
		}
		if err := repos.scheduling.Save(ctx, o, engine.Store(), domain.BaseVersion); err != nil {
			return fmt.Errorf("saving scheduling data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["scheduled"] = len(generated.Scheduled)
	return &ImportResult{
		Order:          o,
		ElementCount:   len(o.Elements()) - 1,
		ScheduledCount: len(generated.Scheduled),
	}, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
