package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDetails(t *testing.T) {
	tests := []struct {
		name string
		pt   ProjectType
		d    ProjectDetails
		want map[string]string
	}{
		{
			name: "residential complete",
			pt:   ProjectResidential,
			d:    ProjectDetails{"clientName": "Asha", "carpetArea": "1000 sq.ft", "location": "Pune"},
			want: map[string]string{},
		},
		{
			name: "residential empty",
			pt:   ProjectResidential,
			d:    ProjectDetails{},
			want: map[string]string{
				"clientName": "is required",
				"carpetArea": "is required",
				"location":   "is required",
			},
		},
		{
			name: "whitespace is blank",
			pt:   ProjectResidential,
			d:    ProjectDetails{"clientName": "   ", "carpetArea": "1000", "location": "Pune"},
			want: map[string]string{"clientName": "is required"},
		},
		{
			name: "commercial non-numeric floors",
			pt:   ProjectCommercial,
			d:    ProjectDetails{"clientName": "Ravi", "numberOfFloors": "ground", "carpetArea": "5000", "location": "Mumbai"},
			want: map[string]string{"numberOfFloors": "must be a positive number"},
		},
		{
			name: "industrial zero area",
			pt:   ProjectIndustrial,
			d:    ProjectDetails{"clientName": "Ravi", "area": "0", "location": "Chakan"},
			want: map[string]string{"area": "must be a positive number"},
		},
		{
			name: "area beyond numeric range",
			pt:   ProjectResidential,
			d:    ProjectDetails{"clientName": "Asha", "carpetArea": "1e306", "location": "Pune"},
			want: map[string]string{"carpetArea": "must be a positive number"},
		},
		{
			name: "rooms beyond numeric range as json",
			pt:   ProjectHospitality,
			d:    ProjectDetails{"clientName": "Hotel Sea View", "numberOfRooms": 1e300, "area": 12000, "location": "Goa"},
			want: map[string]string{"numberOfRooms": "must be a positive number"},
		},
		{
			name: "hospitality numbers as json",
			pt:   ProjectHospitality,
			d:    ProjectDetails{"clientName": "Hotel Sea View", "numberOfRooms": 40, "area": 12000.5, "location": "Goa"},
			want: map[string]string{},
		},
		{
			name: "unknown type needs client only",
			pt:   ProjectType("warehouse"),
			d:    ProjectDetails{"clientName": "Ravi"},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateDetails(tt.pt, tt.d))
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name string
		sel  CategorySelection
		want map[string]string
	}{
		{"standard", CategorySelection{Category: CategoryStandard}, map[string]string{}},
		{"custom with rate", CategorySelection{Category: CategoryCustom, CustomRate: 2750}, map[string]string{}},
		{"custom without rate", CategorySelection{Category: CategoryCustom}, map[string]string{"customRate": "is required for custom costing"}},
		{"negative rate", CategorySelection{Category: CategoryLuxury, CustomRate: -1}, map[string]string{"customRate": "must not be negative"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCategory(tt.sel))
		})
	}
}
