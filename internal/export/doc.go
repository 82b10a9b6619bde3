// Package export turns a merged diagnostic database into downstream
// artifacts: a JSON document grouping readable data identifiers per ECU
// variant, and a SQLite store for ad-hoc inspection tooling.
package export
