// internal/app/system/csvutil/limits.go
package csvutil

// Limits for mentee roll uploads. A roll over MaxRows data rows is
// rejected as a whole.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)
