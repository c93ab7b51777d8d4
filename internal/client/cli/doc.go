// Package cli provides the sealdrop command-line client.
//
// The client plays the part of the browser in the sealdrop portal: it owns
// the encryption key, encrypts files before upload and decrypts them after
// download. Commands are built with cobra on top of App, which wires
// configuration, the local SQLite store, the API client and the pipelines.
//
// Typical flow:
//
//	sealdrop login
//	sealdrop upload ./report.pdf
//	sealdrop list
//	sealdrop download <file-id>
//
// Managers review with "pending" and "review"; admins manage accounts with
// "users", "create-user" and "set-status", and read any file through the key
// escrow with "admin-files" and "download".
package cli
