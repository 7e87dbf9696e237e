package client

import "testing"

func TestValidatePINFormat(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		wantErr bool
	}{
		{"valid pin", "12345", false},
		{"all zeros", "00000", false},
		{"too short", "1234", true},
		{"too long", "123456", true},
		{"empty", "", true},
		{"letters", "12a45", true},
		{"spaces", "12 45", true},
		{"negative looking", "-1234", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePINFormat(tt.pin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePINFormat(%q) error = %v, wantErr %v", tt.pin, err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ValidatePINFormat(%q) returned %T, want validation error", tt.pin, err)
			}
		})
	}
}

func TestValidateCoolingTemperature(t *testing.T) {
	tests := []struct {
		celsius int
		wantErr bool
	}{
		{3, true},
		{4, false},
		{7, false},
		{10, false},
		{11, true},
		{-4, true},
		{0, true},
	}

	for _, tt := range tests {
		err := ValidateCoolingTemperature(tt.celsius)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCoolingTemperature(%d) error = %v, wantErr %v", tt.celsius, err, tt.wantErr)
		}
	}
}

func TestValidateHardnessLevel(t *testing.T) {
	tests := []struct {
		level   int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{5, false},
		{9, false},
		{10, true},
		{-1, true},
	}

	for _, tt := range tests {
		err := ValidateHardnessLevel(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateHardnessLevel(%d) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}
}

func TestValidateDispense(t *testing.T) {
	t.Run("amount bounds and step", func(t *testing.T) {
		tests := []struct {
			amount  int
			wantErr bool
		}{
			{50, true},
			{99, true},
			{100, false},
			{150, true}, // not a multiple of 100
			{700, false},
			{1500, false},
			{1600, true},
			{0, true},
			{-100, true},
		}
		for _, tt := range tests {
			err := ValidateDispense(tt.amount, CO2Still)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDispense(%d, still) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
		}
	})

	t.Run("co2 intensity", func(t *testing.T) {
		for _, co2 := range []int{CO2Still, CO2Medium, CO2High} {
			if err := ValidateDispense(200, co2); err != nil {
				t.Errorf("ValidateDispense(200, %d) error = %v", co2, err)
			}
		}
		for _, co2 := range []int{0, 4, -1, 100} {
			if err := ValidateDispense(200, co2); err == nil {
				t.Errorf("ValidateDispense(200, %d) accepted invalid intensity", co2)
			}
		}
	})

	t.Run("every valid combination", func(t *testing.T) {
		for amount := MinDispenseML; amount <= MaxDispenseML; amount += DispenseStepML {
			for _, co2 := range []int{CO2Still, CO2Medium, CO2High} {
				if err := ValidateDispense(amount, co2); err != nil {
					t.Fatalf("ValidateDispense(%d, %d) error = %v", amount, co2, err)
				}
			}
		}
	})
}
