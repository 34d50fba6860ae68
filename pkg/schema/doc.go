// Package schema declares and checks the shape of module-specific fields.
//
// A module implementation describes its settings as a Fields map. Each entry names a
// Type and whether the key is required:
//
//	fields := schema.Fields{
//	    "text":      schema.Required(schema.String()),
//	    "font_size": schema.Optional(schema.Number()),
//	    "alignment": schema.Optional(schema.Enum("left", "center", "right")),
//	}
//
//	if err := schema.Validate(fields, module.Fields); err != nil {
//	    for _, e := range schema.Problems(err) {
//	        // e.Setting, e.Value, e.Err
//	    }
//	}
//
// Values are expected in their decoded-JSON form (string, float64, bool, []any,
// map[string]any); Go integer types are accepted wherever a number is.
package schema
