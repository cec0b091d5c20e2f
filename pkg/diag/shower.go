package diag

// Shower is implemented by errors that can render themselves with
// terminal styling.
type Shower interface {
	// Show renders the value, prefixing continuation lines with indent.
	Show(indent string) string
}
