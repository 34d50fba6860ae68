/*
Package observability turns the card core's lifecycle hooks into metrics and logs.

Metrics registers Prometheus collectors for validations, layout mutations, template
queries and visibility decisions, and exposes them over HTTP. LogHooks writes the same
events to a structured logger. Both return domain.LifecycleHooks, which can be merged
and handed to the validator, the layout editor and the logic services.
*/
package observability
