// Package redis provides a Redis-backed session store and distributed locker,
// allowing several citychat replicas to share conversations.
package redis
