/*
Package domain contains the core domain models of the citychat assistant.

It defines the menu tree entities (Node, Option), the per-visitor conversation
snapshot (Session, Message) and the lifecycle events emitted by the engine.
This package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - Node: A point in the conversation tree. Either a menu of options or a free-text prompt.
  - Option: A selectable menu entry, optionally tagged with an identifier or accumulator.
  - Session: The runtime snapshot of one conversation (current node, mode, identifiers, transcript).
  - Message: A transcript entry authored by the user or the bot.
*/
package domain
