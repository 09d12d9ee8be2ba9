/*
Package ports defines the driven ports (interfaces) for the Parley engine.

These interfaces decouple the core state machine from external implementations,
allowing it to work with various judgment mechanisms, storage backends, summary
sinks and transports.

# Key Interfaces

  - Oracle: The external judgment mechanism deciding step completion.
  - StateStore: Responsible for persisting and loading session State.
  - SummarySink: End-of-session analytics delivery (remote webhook or local handler).
  - GraphSource: Loads a graph Definition (YAML config, loam directory, in-code DSL).
  - DistributedLocker: Distributed locking for multi-replica session access.
*/
package ports
