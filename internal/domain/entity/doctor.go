package entity

// Doctor status values
const (
	DoctorStatusActive   = "Active"
	DoctorStatusInactive = "Inactive"
)

// Doctor is the read-only lookup that doctor payment vouchers reference
type Doctor struct {
	DoctorID            string `json:"doctor_id"`
	Name                string `json:"doctor_name"`
	Specialization      string `json:"specialization"`
	ConsultationCharges Amount `json:"consultation_charges"`
	Status              string `json:"status"`
}

// IsActive returns true if the doctor can be paid
func (d *Doctor) IsActive() bool {
	return d.Status == DoctorStatusActive
}
