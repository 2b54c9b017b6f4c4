// Package memory provides an in-process session store for single-replica hosts and tests.
package memory
