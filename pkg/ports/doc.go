/*
Package ports defines the driven ports (interfaces) of the HLG generator.

These interfaces decouple the pipeline from model sources and from
conversation persistence, so the same Instance can run from YAML files,
in-memory models, or any other loader, and persist conversations to memory,
disk, Redis or Badger.

# Key Interfaces

  - ModelLoader: loads the syntax, semantic and cohesion stage configurations.
  - ConversationStore: persists conversation snapshots.
  - DistributedLocker: serializes access to one conversation across processes.
*/
package ports
