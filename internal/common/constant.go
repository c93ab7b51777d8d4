package common

// EncryptionKeyName is the fixed name under which the client persists its
// symmetric key in local storage.
const EncryptionKeyName = "encryption_key"

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the JWT in the Authorization header.
const BearerPrefix = "Bearer "

// Multipart form fields of the upload request.
const (
	FormFieldFile          = "file"
	FormFieldIV            = "iv"
	FormFieldEncryptionKey = "encryptionKey"
)
