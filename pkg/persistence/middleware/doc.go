// Package middleware decorates session stores: AES-GCM sealing with key
// rotation and redaction of personal data typed by users.
package middleware
