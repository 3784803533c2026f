// internal/app/system/limits/limits.go
package limits

// Request body size limits for the admin API.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of a decoded JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxBulkIDs caps the ids accepted by a single bulk mutation.
	MaxBulkIDs = 1000
)
