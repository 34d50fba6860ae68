/*
Package ports defines the driven ports (interfaces) of the card core.

These interfaces decouple the core logic from external implementations, allowing the
logic and template services to work against any home-automation backend and the card
manager to work against any document store.

# Key Interfaces

  - StateProvider: synchronous entity state lookup plus the templating backend
    (one-shot render and live subscription).
  - ConfigStore: persists card documents by card ID.
  - DistributedLocker: coordinates concurrent edits of the same card across replicas.
*/
package ports
