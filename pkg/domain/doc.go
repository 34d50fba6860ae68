/*
Package domain contains the card configuration model shared by every other package.

It defines the layout tree (Layout → Row → Column → Module, where a layout module owns
its own ordered children), the visibility rule fields carried by every node, display
conditions, entity state snapshots and validation diagnostics. The package is pure: no
I/O, no logging, no registry lookups.

# Key Entities

  - CardConfig: the persisted document root ({type, layout:{rows}, card_*}).
  - Row, Column, Module: the three nesting levels; Module.Modules holds layout children.
  - Visibility: display_mode, display_conditions, template_mode, template.
  - Condition: one entity_state, entity_attribute, time or template rule.
  - Diagnostic: a structural error or a repair warning produced by validation.
*/
package domain
