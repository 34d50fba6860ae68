package domain

import (
	"errors"
	"fmt"
)

// ErrCardNotFound is returned when a card ID cannot be found in a store.
var ErrCardNotFound = errors.New("card not found")

// ErrLastRow is returned when deleting the only remaining row.
var ErrLastRow = errors.New("cannot delete the last row")

// ErrColumnLimit is returned when a row already holds the maximum number of columns.
var ErrColumnLimit = errors.New("column limit reached")

// ErrOutOfRange is returned when an index does not address a node of the tree.
var ErrOutOfRange = errors.New("index out of range")

// ErrUnknownModuleType is returned when no implementation is registered for a type.
var ErrUnknownModuleType = errors.New("unknown module type")

// ErrNotLayoutModule is returned when children are addressed on a leaf module.
var ErrNotLayoutModule = errors.New("module is not a layout module")

// ErrNestedLayout is returned when a layout module would be placed inside another.
var ErrNestedLayout = errors.New("layout modules cannot be nested")

// ErrModuleNotFound is returned when no module carries the requested ID.
var ErrModuleNotFound = errors.New("module not found")

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityError marks a structural error: the node was dropped and the result is invalid.
	SeverityError Severity = "error"
	// SeverityWarning marks a repair: the document was fixed and remains usable.
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeMissingType    = "missing_type"
	CodeUnknownType    = "unknown_type"
	CodeInvalidModule  = "invalid_module"
	CodeNestedLayout   = "nested_layout"
	CodeMissingID      = "missing_id"
	CodeMissingRows    = "missing_rows"
	CodeMissingColumns = "missing_columns"
	CodeMissingModules = "missing_modules"
	CodeEmptyRow       = "empty_row"
	CodeDuplicateID    = "duplicate_id"
	CodeCardType       = "card_type"
	CodeChildrenOnLeaf = "children_on_leaf"
	CodeColumnLayout   = "column_layout"
)

// Diagnostic is one validation finding. Path is a dotted location such as
// "layout.rows[0].columns[1].modules[2]".
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Path, d.Message)
}
