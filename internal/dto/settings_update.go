package dto

// SettingsUpdate is a partial settings change; nil fields are left untouched.
type SettingsUpdate struct {
	HazardLabels *[]string `json:"hazards,omitempty"`
	Mute         *bool     `json:"mute,omitempty"`
	TextSize     *string   `json:"size,omitempty"`
}
