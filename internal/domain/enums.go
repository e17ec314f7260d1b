package domain

// ElementKind is the shape of an order element.
type ElementKind string

const (
	KindLeaf  ElementKind = "leaf"
	KindGroup ElementKind = "group"
)

// ValidElementKinds is the canonical set of accepted element kind strings.
var ValidElementKinds = map[string]bool{
	"leaf": true, "group": true,
}

// SubcontractorAdvanceType is the unit name of the predefined advance type
// used for subcontracted work.
const SubcontractorAdvanceType = "subcontractor"
