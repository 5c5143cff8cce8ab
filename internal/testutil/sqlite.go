// Package testutil provides shared fixtures for inizexport tests.
package testutil

import (
	"testing"

	"github.com/openmrs-tools/inizexport/internal/extract"
)

// OpenSQLite opens an in-memory SQLite source and executes the given
// setup statements. The source is closed automatically when the test
// finishes.
//
// The pool is pinned to a single connection, so the in-memory database
// stays alive and consistent for the whole test.
func OpenSQLite(t *testing.T, statements ...string) *extract.Source {
	t.Helper()

	src, err := extract.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	for _, stmt := range statements {
		if _, err := src.DB().Exec(stmt); err != nil {
			t.Fatalf("executing fixture statement %q: %v", stmt, err)
		}
	}
	return src
}

// LocationFixture returns setup statements for a small location tree
// whose rows are deliberately ordered children-first, the case the
// sequencer exists to fix. Row 2 (Clinic) references row 3 (District),
// which references row 1 (Country)... except Country comes last.
func LocationFixture() []string {
	return []string{
		`CREATE TABLE location (
			location_id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			parent_name TEXT,
			retired INTEGER NOT NULL DEFAULT 0,
			tags TEXT,
			attributes TEXT
		)`,
		`INSERT INTO location VALUES
			(1, 'uuid-clinic', 'Clinic', 'a small clinic', 'District', 0, 'Login Location,Visit Location', 'Code:CL-1'),
			(2, 'uuid-district', 'District', NULL, 'Country', 0, NULL, NULL),
			(3, 'uuid-old-ward', 'Old Ward', 'retired ward', 'Clinic', 1, NULL, NULL),
			(4, 'uuid-country', 'Country', 'top level', NULL, 0, 'Visit Location', NULL)`,
	}
}

// ConceptFixture returns setup statements for a small concept batch
// whose referring concepts (a set and a question) come before the
// concepts they reference, the case reference ordering exists to fix.
// Members and Answers are packed ';'-separated name lists.
func ConceptFixture() []string {
	return []string{
		`CREATE TABLE concept (
			concept_id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL,
			name TEXT NOT NULL,
			members TEXT,
			answers TEXT
		)`,
		`INSERT INTO concept VALUES
			(1, 'uuid-vitals', 'Vitals Panel', 'Weight;Height', NULL),
			(2, 'uuid-weight', 'Weight', NULL, NULL),
			(3, 'uuid-height', 'Height', NULL, NULL),
			(4, 'uuid-smokes', 'Smokes', NULL, 'Yes;No'),
			(5, 'uuid-yes', 'Yes', NULL, NULL),
			(6, 'uuid-no', 'No', NULL, NULL)`,
	}
}

// ConceptFixtureQuery mirrors the built-in concepts profile shape
// against the fixture schema above.
const ConceptFixtureQuery = `
	SELECT uuid AS 'UUID',
	       name AS 'Fully specified name:en',
	       members AS 'Members',
	       answers AS 'Answers'
	FROM concept
	ORDER BY concept_id ASC`

// LocationFixtureQuery mirrors the built-in locations profile query
// against the fixture schema above.
const LocationFixtureQuery = `
	SELECT uuid AS 'UUID',
	       retired AS 'Void/Retire',
	       name AS 'Name',
	       description AS 'Description',
	       parent_name AS 'Parent',
	       tags AS 'Tags',
	       attributes AS 'Attributes'
	FROM location
	ORDER BY location_id ASC`
