package domain

// Trainee is read-only reference data imported in bulk.
type Trainee struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TrainingNumber string `json:"trainingNumber"`
	Specialization string `json:"specialization"`
}
