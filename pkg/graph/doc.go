// Package graph holds the immutable conversation graph: named nodes linked by
// option targets, validated once at construction time.
package graph
