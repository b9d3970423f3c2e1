package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestRoadTripMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_road_trips.sql")

	checks := []string{
		"CREATE TABLE road_trips",
		"organizer_id uuid NOT NULL REFERENCES users (id) ON DELETE CASCADE",
		"max_participants integer NOT NULL DEFAULT 20",
		"CREATE UNIQUE INDEX uq_trip_eligibilities_trip ON trip_eligibilities (trip_id)",
		"PRIMARY KEY (trip_eligibility_id, car_brand_id)",
		"DROP TABLE IF EXISTS road_trips",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCarsMigrationCascadesPhotos(t *testing.T) {
	content := readMigration(t, "*_create_cars.sql")

	checks := []string{
		"CREATE TABLE cars",
		"owner_id uuid NOT NULL REFERENCES users (id) ON DELETE CASCADE",
		"brand_id uuid REFERENCES car_brands (id) ON DELETE SET NULL",
		"model_id uuid REFERENCES car_models (id) ON DELETE SET NULL",
		"type_id uuid REFERENCES car_types (id) ON DELETE SET NULL",
		"car_id uuid NOT NULL REFERENCES cars (id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS car_photos",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestParticipantsMigrationEnforcesSingleMembership(t *testing.T) {
	content := readMigration(t, "*_create_trip_participants.sql")

	checks := []string{
		"trip_id, user_id",
		"message text",
		"emergency_contact text",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestUsersMigrationCarriesTierColumns(t *testing.T) {
	content := readMigration(t, "*_create_users.sql")

	checks := []string{
		"tier user_tier NOT NULL DEFAULT 'free'",
		"subscription_start timestamptz",
		"subscription_end timestamptz",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumMigrationCoversAllValues(t *testing.T) {
	content := readMigration(t, "*_create_enums.sql")

	checks := []string{
		"CREATE TYPE user_tier AS ENUM ('free', 'premium', 'enterprise', 'admin')",
		"'pending', 'confirmed', 'declined', 'cancelled'",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
