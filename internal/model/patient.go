package model

// PatientProfile holds the editable patient details, keyed by user id.
// Writes have upsert semantics: a new profile replaces the old one whole.
type PatientProfile struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Age     string `json:"age"`
	Gender  string `json:"gender"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

type UpdatePatientRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Age     string `json:"age" binding:"required,max=3"`
	Gender  string `json:"gender" binding:"required,max=20"`
	Contact string `json:"contact" binding:"required,contact"`
	Address string `json:"address" binding:"required,max=300"`
}
