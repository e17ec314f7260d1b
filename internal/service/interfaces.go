package service

import (
	"context"
	"time"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/importer"
	"github.com/alexanderramin/ordersync/internal/repository"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

// CreateOrderInput holds the fields of a new order.
type CreateOrderInput struct {
	Code        string `validate:"required,ordercode"`
	Name        string `validate:"required,max=255"`
	Description string `validate:"max=2000"`
}

// AddElementInput describes an element attached under ParentCode, or under
// the order root when ParentCode is empty.
type AddElementInput struct {
	OrderCode  string `validate:"required"`
	ParentCode string
	Code       string `validate:"required,ordercode"`
	Name       string `validate:"required,max=255"`
	Kind       string `validate:"required,oneof=leaf group"`
	Hours      int    `validate:"gte=0"`
	Template   string
	InitDate   *time.Time
	Deadline   *time.Time
	// Schedule initializes the new element as a scheduling point of Version.
	Schedule bool
	Version  domain.OrderVersion
}

// AddHoursGroupInput appends an hours group to a leaf.
type AddHoursGroupInput struct {
	OrderCode    string `validate:"required"`
	ElementCode  string `validate:"required"`
	Code         string `validate:"required"`
	Hours        int    `validate:"gte=0"`
	ResourceType string
}

// AddMaterialInput assigns units of a material to an element.
type AddMaterialInput struct {
	OrderCode    string  `validate:"required"`
	ElementCode  string  `validate:"required"`
	MaterialCode string  `validate:"required"`
	Units        float64 `validate:"gte=0"`
	UnitPrice    float64 `validate:"gte=0"`
}

type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context) ([]repository.OrderSummary, error)
	Delete(ctx context.Context, code string) error
	AddElement(ctx context.Context, in AddElementInput) (*domain.OrderElement, error)
	// RemoveElement detaches the element's subtree, removing its tasks from
	// every version first.
	RemoveElement(ctx context.Context, orderCode, code string) error
	// ConvertToGroup turns a leaf into a group and returns the new child
	// leaf holding its hours groups.
	ConvertToGroup(ctx context.Context, orderCode, code string) (*domain.OrderElement, error)
	AddHoursGroup(ctx context.Context, in AddHoursGroupInput) error
	AddLabel(ctx context.Context, orderCode, code string, l domain.Label) error
	AddMaterial(ctx context.Context, in AddMaterialInput) error
	AddQualityForm(ctx context.Context, orderCode, code, formName string) error
	AddCriterionRequirement(ctx context.Context, orderCode, code, criterion string) error
}

// ElementState is one row of the scheduling view of an order, in tree order.
type ElementState struct {
	Element      *domain.OrderElement
	Depth        int
	State        scheduling.Type
	TaskSourceID string
	TaskGroup    bool
	Hours        int
}

// SyncResult holds the outcome of a synchronization.
type SyncResult struct {
	Order   *domain.Order
	Version domain.OrderVersion
	Syncs   []scheduling.Synchronization
	Counts  map[scheduling.SyncKind]int
	// Applied is false for a dry run.
	Applied bool
}

type SchedulingService interface {
	Schedule(ctx context.Context, orderCode, code string, version domain.OrderVersion) error
	Unschedule(ctx context.Context, orderCode, code string, version domain.OrderVersion) error
	// Plan computes the synchronizations of version without applying them.
	Plan(ctx context.Context, orderCode string, version domain.OrderVersion) (*SyncResult, error)
	// Synchronize computes, applies and commits the synchronizations of
	// version in one transaction.
	Synchronize(ctx context.Context, orderCode string, version domain.OrderVersion) (*SyncResult, error)
	States(ctx context.Context, orderCode string, version domain.OrderVersion) ([]ElementState, error)
	ForkVersion(ctx context.Context, orderCode string, from, to domain.OrderVersion) (*domain.Scenario, error)
	ListVersions(ctx context.Context, orderCode string) ([]*domain.Scenario, error)
	Tasks(ctx context.Context, orderCode string, version domain.OrderVersion) ([]*domain.Task, error)
}

// CreateAdvanceTypeInput holds the fields of a new advance type.
type CreateAdvanceTypeInput struct {
	UnitName        string  `validate:"required,max=100"`
	DefaultMaxValue float64 `validate:"gt=0"`
	Percentage      bool
}

// AddAssignmentInput attaches a direct advance assignment of the type named
// TypeName. MaxValue defaults to the type's default.
type AddAssignmentInput struct {
	OrderCode    string  `validate:"required"`
	ElementCode  string  `validate:"required"`
	TypeName     string  `validate:"required"`
	MaxValue     float64 `validate:"gte=0"`
	ReportGlobal bool
}

// AddMeasurementInput records a progress reading.
type AddMeasurementInput struct {
	OrderCode   string `validate:"required"`
	ElementCode string `validate:"required"`
	TypeName    string `validate:"required"`
	Date        time.Time
	Value       float64 `validate:"gte=0"`
}

// ElementProgress is one row of the progress view of an order.
type ElementProgress struct {
	Element    *domain.OrderElement
	Depth      int
	Percentage float64
	Finished   bool
}

type AdvanceService interface {
	CreateType(ctx context.Context, in CreateAdvanceTypeInput) (*domain.AdvanceType, error)
	ListTypes(ctx context.Context) ([]*domain.AdvanceType, error)
	AddAssignment(ctx context.Context, in AddAssignmentInput) (*domain.DirectAdvanceAssignment, error)
	RemoveAssignment(ctx context.Context, orderCode, elementCode, typeName string) error
	AddMeasurement(ctx context.Context, in AddMeasurementInput) error
	Progress(ctx context.Context, orderCode string) ([]ElementProgress, error)
	// IsFinished reports whether the scheduling point task covering the
	// element is finished in version.
	IsFinished(ctx context.Context, orderCode, code string, version domain.OrderVersion) (bool, error)
}

// ImportResult holds the outcome of an order import.
type ImportResult struct {
	Order          *domain.Order
	ElementCount   int
	ScheduledCount int
}

type ImportService interface {
	ImportFile(ctx context.Context, filePath string) (*ImportResult, error)
	ImportSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
