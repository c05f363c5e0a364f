package usecase

// Report describes what a bootstrap run changed. Index entries are qualified
// as "<collection>.<index>".
type Report struct {
	Database            string
	CreatedCollections  []string
	ExistingCollections []string
	CreatedIndexes      []string
	ExistingIndexes     []string
	AdminSeeded         bool
	AdminPresent        bool
}

// Changed reports whether the run created anything
func (r *Report) Changed() bool {
	return len(r.CreatedCollections) > 0 || len(r.CreatedIndexes) > 0 || r.AdminSeeded
}
