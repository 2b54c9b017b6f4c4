/*
Package session implements session management and persistence orchestration.

It serializes submissions per conversation, both inside one process and across
replicas via an optional distributed lock, and refuses to commit results that
were computed against an outdated session generation.
*/
package session
