package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a patient booking against a facility. Status is set once
// at creation; the lifecycle is create, list-by-user, delete.
type Appointment struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	HospitalID   string            `json:"hospital_id"`
	HospitalName string            `json:"hospital_name"`
	DateTime     time.Time         `json:"date_time"`
	Description  string            `json:"description"`
	Status       AppointmentStatus `json:"status"`
}

type CreateAppointmentRequest struct {
	HospitalID   string `json:"hospital_id"`
	HospitalName string `json:"hospital_name" binding:"required,max=200"`
	DateTime     string `json:"date_time" binding:"required"`
	Description  string `json:"description" binding:"required,max=1000"`
	Status       string `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
}
