/*
Package ports defines the driven ports (interfaces) of the citychat engine.

These interfaces decouple the conversation logic from external implementations,
allowing the engine to work with various storage backends and data sources.

# Key Interfaces

  - DataGateway: Fetches sensor readings, answers questions, publishes tables and chart data.
  - SessionStore: Persists and loads conversation sessions.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
