package catalog

import (
	"database/sql"
	"fmt"
)

// Load reads the catalog tables. It is meant to run once at start-up; the
// returned Catalog is not refreshed when the tables change.
func Load(db *sql.DB) (Catalog, error) {
	var (
		c   Catalog
		err error
	)

	if c.Profiles, err = loadProfiles(db); err != nil {
		return Catalog{}, err
	}
	if c.Glazings, err = loadGlazings(db); err != nil {
		return Catalog{}, err
	}
	if c.Hardware, err = loadHardware(db); err != nil {
		return Catalog{}, err
	}
	if c.Extras, err = loadExtras(db); err != nil {
		return Catalog{}, err
	}

	return c, nil
}

func loadProfiles(db *sql.DB) ([]Profile, error) {
	rows, err := db.Query(`
		SELECT id, name, cameras, width_mm, price_per_sqm, description
		FROM profiles
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Cameras, &p.WidthMM, &p.PricePerSqm, &p.Description); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

func loadGlazings(db *sql.DB) ([]Glazing, error) {
	rows, err := db.Query(`
		SELECT id, name, thickness_mm, price_per_sqm, description
		FROM glazings
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query glazings: %w", err)
	}
	defer rows.Close()

	glazings := make([]Glazing, 0)
	for rows.Next() {
		var g Glazing
		if err := rows.Scan(&g.ID, &g.Name, &g.ThicknessMM, &g.PricePerSqm, &g.Description); err != nil {
			return nil, fmt.Errorf("scan glazing: %w", err)
		}
		glazings = append(glazings, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate glazings: %w", err)
	}

	return glazings, nil
}

func loadHardware(db *sql.DB) ([]Hardware, error) {
	rows, err := db.Query(`
		SELECT id, name, brand, class, price_per_sash, description
		FROM hardware
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query hardware: %w", err)
	}
	defer rows.Close()

	hardware := make([]Hardware, 0)
	for rows.Next() {
		var h Hardware
		if err := rows.Scan(&h.ID, &h.Name, &h.Brand, &h.Class, &h.PricePerSash, &h.Description); err != nil {
			return nil, fmt.Errorf("scan hardware: %w", err)
		}
		hardware = append(hardware, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hardware: %w", err)
	}

	return hardware, nil
}

func loadExtras(db *sql.DB) ([]ExtraOption, error) {
	rows, err := db.Query(`
		SELECT id, name, price, description
		FROM extra_options
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query extra options: %w", err)
	}
	defer rows.Close()

	extras := make([]ExtraOption, 0)
	for rows.Next() {
		var e ExtraOption
		if err := rows.Scan(&e.ID, &e.Name, &e.Price, &e.Description); err != nil {
			return nil, fmt.Errorf("scan extra option: %w", err)
		}
		extras = append(extras, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extra options: %w", err)
	}

	return extras, nil
}
