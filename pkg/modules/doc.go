// Package modules provides the built-in module handlers.
//
// Each handler declares its settings twice: as a typed struct decoded from the module's
// field bag with mapstructure, and as a schema.Fields declaration that produces the
// validation messages. Layout handlers additionally own child modules.
package modules
