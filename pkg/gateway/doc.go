// Package gateway talks to the smart-city backend: the latest-readings feed,
// the natural-language query and debug endpoints, and the paste service used
// to publish large result tables.
package gateway
