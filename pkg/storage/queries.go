package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	errs "github.com/matzehuels/classscan/pkg/errors"
	pkgio "github.com/matzehuels/classscan/pkg/io"
)

// Stats summarizes the stored snapshot.
type Stats struct {
	Classes   int64 // Resolved classes
	Externals int64
	Edges     int64
	Failures  int64
}

// Stats counts the stored rows.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := db.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM classes WHERE state = 'resolved'),
			(SELECT COUNT(*) FROM classes WHERE state != 'resolved'),
			(SELECT COUNT(*) FROM edges),
			(SELECT COUNT(*) FROM failures)`,
	).Scan(&st.Classes, &st.Externals, &st.Edges, &st.Failures)
	return st, err
}

// GetClass returns the stored class with the given name, members and
// annotations included.
func (db *DB) GetClass(ctx context.Context, name string) (*pkgio.Class, error) {
	var (
		id int64
		c  pkgio.Class
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, kind, state, flags, modifiers, superclass, outer_class,
		        signature, resource, element, source_file, major_version
		 FROM classes WHERE name = ?`, name,
	).Scan(&id, &c.Name, &c.Kind, &c.State, &c.Flags, &c.Modifiers, &c.Superclass,
		&c.OuterClass, &c.Signature, &c.Resource, &c.Element, &c.SourceFile, &c.MajorVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.ErrCodeNotFound, "class not found: %s", name)
	}
	if err != nil {
		return nil, err
	}
	if err := db.readClassDetails(ctx, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindClasses returns the names of classes matching pattern, best matches
// first: an exact simple name, then names ending with the pattern, then
// names containing it.
func (db *DB) FindClasses(ctx context.Context, pattern string) ([]string, error) {
	like := escapeLike(pattern)
	return queryStrings(ctx, db.conn,
		`SELECT name FROM classes
		 WHERE name LIKE '%' || ? || '%' ESCAPE '\'
		 ORDER BY
			CASE
				WHEN name LIKE '%.' || ? ESCAPE '\' OR name LIKE '%$' || ? ESCAPE '\' OR name = ? THEN 0
				WHEN name LIKE '%' || ? ESCAPE '\' THEN 1
				ELSE 2
			END,
			length(name), name`,
		like, like, like, pattern, like,
	)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Dependencies returns the outgoing edges of a class.
func (db *DB) Dependencies(ctx context.Context, name string) ([]pkgio.Edge, error) {
	return db.queryEdges(ctx, `f.name = ?`, name)
}

// Dependents returns the incoming edges of a class.
func (db *DB) Dependents(ctx context.Context, name string) ([]pkgio.Edge, error) {
	return db.queryEdges(ctx, `t.name = ?`, name)
}

func (db *DB) queryEdges(ctx context.Context, where string, args ...any) ([]pkgio.Edge, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT f.name, t.name, e.kinds FROM edges e
		 JOIN classes f ON f.id = e.from_id
		 JOIN classes t ON t.id = e.to_id
		 WHERE `+where+`
		 ORDER BY f.name, t.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var edges []pkgio.Edge
	for rows.Next() {
		var (
			e     pkgio.Edge
			kinds string
		)
		if err := rows.Scan(&e.From, &e.To, &kinds); err != nil {
			return nil, err
		}
		e.Kinds = strings.Split(kinds, ",")
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ClassesAnnotatedWith returns the names of classes carrying an annotation
// of the given type, on the class itself or on one of its members.
func (db *DB) ClassesAnnotatedWith(ctx context.Context, typeName string) ([]string, error) {
	return queryStrings(ctx, db.conn,
		`SELECT DISTINCT c.name FROM annotations a
		 JOIN classes c ON c.id = a.class_id
		 WHERE a.type = ?
		 ORDER BY c.name`, typeName)
}

// Failures returns the stored failed units in insertion order.
func (db *DB) Failures(ctx context.Context) ([]pkgio.Failure, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT resource, class, code, error FROM failures ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pkgio.Failure
	for rows.Next() {
		var f pkgio.Failure
		if err := rows.Scan(&f.Resource, &f.Class, &f.Code, &f.Error); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
