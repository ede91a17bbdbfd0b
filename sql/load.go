package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed segments.sql
var segmentsSQL string

//go:embed units.sql
var unitsSQL string

//go:embed points.sql
var pointsSQL string

// Function lists for verification
var SegmentsFunctions = []string{
	"init_segments",
	"insert_segment",
	"select_segments_by_network",
	"select_segments_by_level_path",
	"delete_segments_by_network",
}

var UnitsFunctions = []string{
	"init_units",
	"insert_unit",
	"select_all_units",
	"select_unit",
	"delete_unit",
}

var PointsFunctions = []string{
	"init_points",
	"insert_linked_point",
	"select_points_by_run",
	"run_exists",
	"delete_run",
}

// Init initializes schema bookkeeping
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// LoadSegmentsSql loads segment-related SQL functions
func LoadSegmentsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, SegmentsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing segments functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(segmentsSQL)
	if err != nil {
		return fmt.Errorf("error executing segments SQL: %w", err)
	}

	exist, err := checkFunctions(db, SegmentsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL segments functions loaded successfully")
	return nil
}

// LoadUnitsSql loads hydrologic-unit-related SQL functions
func LoadUnitsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, UnitsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing units functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(unitsSQL)
	if err != nil {
		return fmt.Errorf("error executing units SQL: %w", err)
	}

	exist, err := checkFunctions(db, UnitsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL units functions loaded successfully")
	return nil
}

// LoadPointsSql loads linked-point-related SQL functions
func LoadPointsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, PointsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing points functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(pointsSQL)
	if err != nil {
		return fmt.Errorf("error executing points SQL: %w", err)
	}

	exist, err := checkFunctions(db, PointsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL points functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadSegmentsSql(db, force); err != nil {
		return err
	}

	if err := LoadUnitsSql(db, force); err != nil {
		return err
	}

	if err := LoadPointsSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
