package cmd

import (
	"face-attendance/config"
	"face-attendance/model"
	"face-attendance/roster"
)

// loadPeople returns the roster file entries when one is configured and the
// people from the config otherwise.
func loadPeople(cfg *config.AppConfig) ([]model.Person, error) {
	if cfg.Roster == "" {
		return cfg.People, nil
	}
	return roster.ReadFile(cfg.Roster)
}
