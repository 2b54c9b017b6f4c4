// Package sensor models smart-city sensor readings and the pure helpers applied
// to them: aggregation across nodes, fuzzy node-ID matching, markdown table
// rendering and chart series extraction.
package sensor
