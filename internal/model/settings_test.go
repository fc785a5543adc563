package model

import "testing"

func TestValidateSetting(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"valid duration", SettingSlotDuration, "45", false},
		{"duration too small", SettingSlotDuration, "3", true},
		{"duration not a number", SettingSlotDuration, "forty-five", true},
		{"valid reminder", SettingReminderBefore, "30", false},
		{"zero reminder", SettingReminderBefore, "0", false},
		{"negative reminder", SettingReminderBefore, "-5", true},
		{"empty breaks", SettingBreaks, "[]", false},
		{"valid breaks", SettingBreaks, `[{"start_min":780,"end_min":840}]`, false},
		{"breaks not json", SettingBreaks, "13:00-14:00", true},
		{"inverted break", SettingBreaks, `[{"start_min":840,"end_min":780}]`, true},
		{"unknown key passes through", "ui_theme", "dark", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSetting(tc.key, tc.value)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateBreaks_Overlap(t *testing.T) {
	breaks := []BreakInterval{
		{StartMin: 600, EndMin: 660},
		{StartMin: 630, EndMin: 720},
	}
	if err := ValidateBreaks(breaks); err == nil {
		t.Fatal("expected error for overlapping breaks")
	}
	// Touching windows do not overlap.
	touching := []BreakInterval{
		{StartMin: 600, EndMin: 660},
		{StartMin: 660, EndMin: 720},
	}
	if err := ValidateBreaks(touching); err != nil {
		t.Fatalf("unexpected error for touching breaks: %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name string
		user User
		want string
	}{
		{"full name", User{ID: 1, FirstName: "Anna", LastName: "Petrova"}, "Anna Petrova"},
		{"first only", User{ID: 1, FirstName: "Anna"}, "Anna"},
		{"username fallback", User{ID: 1, Username: "anna_p"}, "anna_p"},
		{"email fallback", User{ID: 1, Email: "anna@example.com"}, "anna@example.com"},
		{"id fallback", User{ID: 7}, "user 7"},
	}
	for _, tc := range cases {
		if got := tc.user.DisplayName(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
