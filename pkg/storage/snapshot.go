package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/classscan/pkg/classfile"
	pkgio "github.com/matzehuels/classscan/pkg/io"
)

const (
	memberField  = "field"
	memberMethod = "method"
)

// WriteSnapshot replaces the database contents with s in one transaction.
func (db *DB) WriteSnapshot(ctx context.Context, s *pkgio.Snapshot) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}

	meta := map[string]string{
		"version":      strconv.Itoa(s.Version),
		"scan_id":      s.ScanID,
		"dependencies": strconv.FormatBool(s.Dependencies),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}

	ids := make(map[string]int64, len(s.Classes))
	for i := range s.Classes {
		id, err := insertClass(ctx, tx, &s.Classes[i])
		if err != nil {
			return fmt.Errorf("insert class %s: %w", s.Classes[i].Name, err)
		}
		ids[s.Classes[i].Name] = id
	}

	for _, e := range s.Edges {
		from, ok := ids[e.From]
		if !ok {
			return fmt.Errorf("edge from unknown class %s", e.From)
		}
		to, ok := ids[e.To]
		if !ok {
			return fmt.Errorf("edge to unknown class %s", e.To)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (from_id, to_id, kinds) VALUES (?, ?, ?)`,
			from, to, strings.Join(e.Kinds, ","),
		); err != nil {
			return err
		}
	}

	for _, f := range s.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (resource, class, code, error) VALUES (?, ?, ?, ?)`,
			f.Resource, f.Class, f.Code, f.Error,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertClass(ctx context.Context, tx *sql.Tx, c *pkgio.Class) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO classes (name, package, kind, state, flags, modifiers, superclass, outer_class,
		                      signature, resource, element, source_file, major_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, classfile.PackageName(c.Name), c.Kind, c.State, c.Flags, c.Modifiers, c.Superclass, c.OuterClass,
		c.Signature, c.Resource, c.Element, c.SourceFile, c.MajorVersion,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, name := range c.Interfaces {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interfaces (class_id, position, name) VALUES (?, ?, ?)`, id, i, name,
		); err != nil {
			return 0, err
		}
	}
	if err := insertAnnotations(ctx, tx, id, nil, c.Annotations); err != nil {
		return 0, err
	}
	if err := insertMembers(ctx, tx, id, memberField, c.Fields); err != nil {
		return 0, err
	}
	if err := insertMembers(ctx, tx, id, memberMethod, c.Methods); err != nil {
		return 0, err
	}
	return id, nil
}

func insertMembers(ctx context.Context, tx *sql.Tx, classID int64, kind string, members []pkgio.Member) error {
	for i, m := range members {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO members (class_id, kind, position, name, flags, descriptor, type)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			classID, kind, i, m.Name, m.Flags, m.Descriptor, m.Type,
		)
		if err != nil {
			return err
		}
		if len(m.Annotations) == 0 {
			continue
		}
		memberID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := insertAnnotations(ctx, tx, classID, &memberID, m.Annotations); err != nil {
			return err
		}
	}
	return nil
}

func insertAnnotations(ctx context.Context, tx *sql.Tx, classID int64, memberID *int64, anns []pkgio.Annotation) error {
	for _, a := range anns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO annotations (class_id, member_id, type, visible, text) VALUES (?, ?, ?, ?, ?)`,
			classID, memberID, a.Type, a.Visible, a.Text,
		); err != nil {
			return err
		}
	}
	return nil
}

// ReadSnapshot reads the stored snapshot back. Classes are returned in name
// order, edges by source then target.
func (db *DB) ReadSnapshot(ctx context.Context) (*pkgio.Snapshot, error) {
	s := &pkgio.Snapshot{}

	meta, err := db.readMeta(ctx)
	if err != nil {
		return nil, err
	}
	if v, ok := meta["version"]; ok {
		if s.Version, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("meta version: %w", err)
		}
	}
	s.ScanID = meta["scan_id"]
	s.Dependencies = meta["dependencies"] == "true"

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, kind, state, flags, modifiers, superclass, outer_class,
		        signature, resource, element, source_file, major_version
		 FROM classes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var (
			id int64
			c  pkgio.Class
		)
		if err := rows.Scan(&id, &c.Name, &c.Kind, &c.State, &c.Flags, &c.Modifiers, &c.Superclass,
			&c.OuterClass, &c.Signature, &c.Resource, &c.Element, &c.SourceFile, &c.MajorVersion); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
		s.Classes = append(s.Classes, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		if err := db.readClassDetails(ctx, id, &s.Classes[i]); err != nil {
			return nil, err
		}
	}

	if s.Edges, err = db.readEdges(ctx); err != nil {
		return nil, err
	}
	if s.Failures, err = db.Failures(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (db *DB) readClassDetails(ctx context.Context, id int64, c *pkgio.Class) error {
	names, err := queryStrings(ctx, db.conn,
		`SELECT name FROM interfaces WHERE class_id = ? ORDER BY position`, id)
	if err != nil {
		return err
	}
	c.Interfaces = names

	anns, err := db.readAnnotations(ctx,
		`SELECT type, visible, text FROM annotations WHERE class_id = ? AND member_id IS NULL ORDER BY id`, id)
	if err != nil {
		return err
	}
	c.Annotations = anns

	if c.Fields, err = db.readMembers(ctx, id, memberField); err != nil {
		return err
	}
	c.Methods, err = db.readMembers(ctx, id, memberMethod)
	return err
}

func (db *DB) readMembers(ctx context.Context, classID int64, kind string) ([]pkgio.Member, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, flags, descriptor, type FROM members
		 WHERE class_id = ? AND kind = ? ORDER BY position`, classID, kind)
	if err != nil {
		return nil, err
	}
	var (
		members []pkgio.Member
		ids     []int64
	)
	for rows.Next() {
		var (
			id int64
			m  pkgio.Member
		)
		if err := rows.Scan(&id, &m.Name, &m.Flags, &m.Descriptor, &m.Type); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
		members = append(members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		anns, err := db.readAnnotations(ctx,
			`SELECT type, visible, text FROM annotations WHERE member_id = ? ORDER BY id`, id)
		if err != nil {
			return nil, err
		}
		members[i].Annotations = anns
	}
	return members, nil
}

func (db *DB) readAnnotations(ctx context.Context, query string, args ...any) ([]pkgio.Annotation, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var anns []pkgio.Annotation
	for rows.Next() {
		var a pkgio.Annotation
		if err := rows.Scan(&a.Type, &a.Visible, &a.Text); err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}

func (db *DB) readEdges(ctx context.Context) ([]pkgio.Edge, error) {
	return db.queryEdges(ctx, `1 = 1`)
}

func queryStrings(ctx context.Context, conn *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
