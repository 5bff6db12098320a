package seed

import (
	"database/sql"
	"fmt"

	"github.com/Simplici0/windowcalc/internal/catalog"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run writes every entry of cat into the catalog tables in an idempotent way.
// Rows that already exist are left untouched so that prices edited directly in
// the database survive a restart.
func Run(db *sql.DB, cat catalog.Catalog) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureProfiles(tx, cat.Profiles, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureGlazings(tx, cat.Glazings, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureHardware(tx, cat.Hardware, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureExtras(tx, cat.Extras, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func exists(tx *sql.Tx, table, id string) (bool, error) {
	var found bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = ? LIMIT 1)`, table)
	if err := tx.QueryRow(query, id).Scan(&found); err != nil {
		return false, fmt.Errorf("check %s %q existence: %w", table, id, err)
	}
	return found, nil
}

func ensureProfiles(tx *sql.Tx, profiles []catalog.Profile, stats *Stats) error {
	for i, p := range profiles {
		found, err := exists(tx, "profiles", p.ID)
		if err != nil {
			return err
		}
		if found {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO profiles (id, name, cameras, width_mm, price_per_sqm, description, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Name, p.Cameras, p.WidthMM, p.PricePerSqm, p.Description, i); err != nil {
			return fmt.Errorf("insert profile %q: %w", p.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureGlazings(tx *sql.Tx, glazings []catalog.Glazing, stats *Stats) error {
	for i, g := range glazings {
		found, err := exists(tx, "glazings", g.ID)
		if err != nil {
			return err
		}
		if found {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO glazings (id, name, thickness_mm, price_per_sqm, description, sort_order)
			VALUES (?, ?, ?, ?, ?, ?)
		`, g.ID, g.Name, g.ThicknessMM, g.PricePerSqm, g.Description, i); err != nil {
			return fmt.Errorf("insert glazing %q: %w", g.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureHardware(tx *sql.Tx, hardware []catalog.Hardware, stats *Stats) error {
	for i, h := range hardware {
		found, err := exists(tx, "hardware", h.ID)
		if err != nil {
			return err
		}
		if found {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO hardware (id, name, brand, class, price_per_sash, description, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, h.ID, h.Name, h.Brand, h.Class, h.PricePerSash, h.Description, i); err != nil {
			return fmt.Errorf("insert hardware %q: %w", h.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureExtras(tx *sql.Tx, extras []catalog.ExtraOption, stats *Stats) error {
	for i, e := range extras {
		found, err := exists(tx, "extra_options", e.ID)
		if err != nil {
			return err
		}
		if found {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO extra_options (id, name, price, description, sort_order)
			VALUES (?, ?, ?, ?, ?)
		`, e.ID, e.Name, e.Price, e.Description, i); err != nil {
			return fmt.Errorf("insert extra option %q: %w", e.ID, err)
		}
		stats.Inserts++
	}
	return nil
}
