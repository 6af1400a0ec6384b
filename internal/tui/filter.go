package tui

import (
	"strings"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/sahilm/fuzzy"
)

// appointmentTitle is the line shown for an appointment and the text matched by the filter
func appointmentTitle(a domain.Appointment) string {
	who := a.DoctorID
	if a.Doctor != nil && a.Doctor.Name != "" {
		who = a.Doctor.Name
	}
	parts := []string{a.AppointmentDate, a.AppointmentTime, who}
	if a.Reason != "" {
		parts = append(parts, a.Reason)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// filterAppointments returns indices into items ordered by match quality
func filterAppointments(query string, items []domain.Appointment) []int {
	if query == "" {
		return nil
	}

	lowerTitles := make([]string, len(items))
	for i, a := range items {
		lowerTitles[i] = strings.ToLower(appointmentTitle(a))
	}

	matches := fuzzy.Find(strings.ToLower(query), lowerTitles)

	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	return idx
}
