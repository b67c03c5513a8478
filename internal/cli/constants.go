package cli

// Display constants shared by several commands' tabular output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// MaxDescriptionLength truncates long fields in table output.
	MaxDescriptionLength = 50
)
