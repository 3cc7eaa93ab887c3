/*
Package domain contains the core data model of the HLG generator.

It defines the stage configurations, the skeleton that flows between
stages, the instance lifecycle, options, error taxonomy and observability
hooks. The package is free of I/O; loading and persistence live in adapters.

# Key Entities

  - SyntaxConfig, SemanticConfig, CohesionConfig: immutable stage configurations.
  - Skeleton / Slot: the structural sequence refined by each stage.
  - Options: instance configuration, shared by YAML files and CLI flags.
  - Snapshot: the persistable form of a conversation.
  - LifecycleHooks: callbacks around stages and generations.
*/
package domain
