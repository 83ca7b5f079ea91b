// Package library maintains a SQLite index of generated summaries so
// listings and existence checks do not have to rescan the output tree.
package library
