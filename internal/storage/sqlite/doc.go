// Package sqlite provides the SQLite-backed implementation of the
// storage.Store facade. Monetary and streak updates happen inside
// transactions so a crash never leaves a bid half-reserved or a
// settlement half-applied.
package sqlite
