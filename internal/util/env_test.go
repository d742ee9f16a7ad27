package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"unset uses default true", "", true, true},
		{"unset uses default false", "", false, false},
		{"true", "true", false, true},
		{"numeric true", "1", false, true},
		{"yes", "yes", false, true},
		{"on", "on", false, true},
		{"mixed case", "TRUE", false, true},
		{"whitespace trimmed", " true ", false, true},
		{"false", "false", true, false},
		{"numeric false", "0", true, false},
		{"off", "off", true, false},
		{"invalid uses default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONSULTIQ_TEST_BOOL", tt.value)
			if got := ParseBoolEnv("CONSULTIQ_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}
