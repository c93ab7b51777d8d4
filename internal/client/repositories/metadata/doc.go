// Package metadata persists local client state in the SQLite metadata table.
//
// The table is a plain key/value store. It holds the client's symmetric
// encryption key under common.EncryptionKeyName and the tokens of the
// current session. SQLiteRepository works over dbx.DBTX, so it can be used
// with either *sql.DB or *sql.Tx.
package metadata
