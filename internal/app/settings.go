package app

import (
	"fmt"
	"time"

	"devgate/internal/gate"
)

// AppSettings are the persisted operator preferences.
type AppSettings struct {
	OpenAtLogin bool      `json:"openAtLogin"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GetSettings returns the stored preferences, or defaults when none
// have been saved yet.
func (a *App) GetSettings() (AppSettings, error) {
	var settings AppSettings
	if _, err := a.store.Read(gate.DocAppSettings, &settings); err != nil {
		return AppSettings{}, fmt.Errorf("reading settings: %w", err)
	}
	return settings, nil
}

// SetOpenAtLogin stores the open-at-login preference. Registering the
// binary with the platform login manager is left to the installer.
func (a *App) SetOpenAtLogin(enabled bool) error {
	settings, err := a.GetSettings()
	if err != nil {
		return err
	}
	settings.OpenAtLogin = enabled
	settings.UpdatedAt = time.Now().UTC()
	if err := a.store.Write(gate.DocAppSettings, settings); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
