package repository

// Slog attribute keys used by the repository.
const ( // AC
	keyOutcome    = "outcome"
	keySize       = "size"
	keyComponent  = "component"
	keyFirstID    = "firstID"
	keyCandidates = "candidates"
	keyCombined   = "combined"
	keyBlocks     = "blocks"
	keyError      = "error"
)
