package client

import "fmt"

// Input limits enforced before anything touches the network.
const (
	// MinCoolingCelsius / MaxCoolingCelsius bound the cooling set point.
	MinCoolingCelsius = 4
	MaxCoolingCelsius = 10

	// MinHardnessLevel / MaxHardnessLevel bound the water hardness setting.
	MinHardnessLevel = 1
	MaxHardnessLevel = 9

	// MinDispenseML / MaxDispenseML bound a dispense request; amounts must
	// also be a multiple of DispenseStepML.
	MinDispenseML  = 100
	MaxDispenseML  = 1500
	DispenseStepML = 100

	// PinLength is the exact PIN length the unit accepts.
	PinLength = 5
)

// CO2 intensity levels accepted by the unit.
const (
	CO2Still  = 1
	CO2Medium = 2
	CO2High   = 3
)

// ValidatePINFormat checks that a PIN is exactly five ASCII digits.
func ValidatePINFormat(pin string) error {
	if len(pin) != PinLength {
		return NewValidationError(fmt.Sprintf("PIN must be exactly %d digits, got %d characters", PinLength, len(pin)))
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return NewValidationError("PIN must contain only digits")
		}
	}
	return nil
}

// ValidateCoolingTemperature checks a cooling set point in degrees Celsius.
func ValidateCoolingTemperature(celsius int) error {
	if celsius < MinCoolingCelsius || celsius > MaxCoolingCelsius {
		return NewValidationError(fmt.Sprintf("temperature must be %d-%d°C, got %d",
			MinCoolingCelsius, MaxCoolingCelsius, celsius))
	}
	return nil
}

// ValidateHardnessLevel checks a water hardness level.
func ValidateHardnessLevel(level int) error {
	if level < MinHardnessLevel || level > MaxHardnessLevel {
		return NewValidationError(fmt.Sprintf("water hardness must be %d-%d, got %d",
			MinHardnessLevel, MaxHardnessLevel, level))
	}
	return nil
}

// ValidateDispense checks a dispense amount and CO2 intensity.
func ValidateDispense(amountML, co2Intensity int) error {
	if amountML < MinDispenseML || amountML > MaxDispenseML {
		return NewValidationError(fmt.Sprintf("amount must be %d-%dml, got %d",
			MinDispenseML, MaxDispenseML, amountML))
	}
	if amountML%DispenseStepML != 0 {
		return NewValidationError(fmt.Sprintf("amount must be a multiple of %dml, got %d",
			DispenseStepML, amountML))
	}
	switch co2Intensity {
	case CO2Still, CO2Medium, CO2High:
		return nil
	default:
		return NewValidationError(fmt.Sprintf("CO2 intensity must be %d (still), %d (medium), or %d (high), got %d",
			CO2Still, CO2Medium, CO2High, co2Intensity))
	}
}
