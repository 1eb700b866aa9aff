package models

import (
	"fmt"
	"time"
)

const (
	DefaultDailyReminder = "20:00"
	reminderLayout       = "15:04"
)

// Preferences holds per-user settings.
type Preferences struct {
	UserID        string    `json:"user_id"`
	Notifications bool      `json:"notifications"`
	DailyReminder string    `json:"daily_reminder"`
	DarkMode      bool      `json:"dark_mode"`
	Timezone      string    `json:"timezone"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultPreferences returns the settings of a user who never saved any.
func DefaultPreferences(userID, timezone string) Preferences {
	return Preferences{
		UserID:        userID,
		Notifications: true,
		DailyReminder: DefaultDailyReminder,
		DarkMode:      false,
		Timezone:      timezone,
	}
}

// PreferencesUpdate carries the fields a client wants to change.
type PreferencesUpdate struct {
	Notifications *bool   `json:"notifications,omitempty"`
	DailyReminder *string `json:"daily_reminder,omitempty" validate:"omitempty,len=5"`
	DarkMode      *bool   `json:"dark_mode,omitempty"`
	Timezone      *string `json:"timezone,omitempty" validate:"omitempty,max=64"`
}

// Merge applies u over p. Unset fields keep their current value.
func (u PreferencesUpdate) Merge(p Preferences) (Preferences, error) {
	if u.Notifications != nil {
		p.Notifications = *u.Notifications
	}
	if u.DailyReminder != nil {
		if _, err := time.Parse(reminderLayout, *u.DailyReminder); err != nil {
			return p, fmt.Errorf("daily_reminder must be HH:MM: %w", err)
		}
		p.DailyReminder = *u.DailyReminder
	}
	if u.DarkMode != nil {
		p.DarkMode = *u.DarkMode
	}
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil {
			return p, fmt.Errorf("unknown timezone %q: %w", *u.Timezone, err)
		}
		p.Timezone = *u.Timezone
	}
	return p, nil
}

// Location resolves the preference timezone, falling back to fallback.
func (p Preferences) Location(fallback *time.Location) *time.Location {
	if p.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
