// Package buildnumber extracts version-control metadata once per process and
// publishes it as named build properties.
//
// The Coordinator performs extraction on the first call, caches the record
// together with its composite buildnumber, and serves every later call from
// the cache. Any failure degrades to a fixed set of UNKNOWN_* placeholders so
// the build can proceed.
package buildnumber
