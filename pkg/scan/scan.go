package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classgraph"
	"github.com/matzehuels/classscan/pkg/classpath"
	"github.com/matzehuels/classscan/pkg/observability"
)

// Scan opens the classpath named by opts and scans it. See [ScanClasspath].
func Scan(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cp, err := classpath.New(opts.Classpath, opts.Filter)
	if err != nil {
		return nil, err
	}
	return ScanClasspath(ctx, cp, opts)
}

// ScanClasspath scans an opened classpath. The result takes ownership of
// cp; on error cp is closed before returning.
//
// Units that fail to decode are recorded in [Result.Failures] and the scan
// continues. When ctx is cancelled, units not yet started are dropped,
// units being parsed are still merged, and the partial result is returned
// with [Result.Cancelled] set. Only a failure to enumerate the classpath is
// returned as an error.
func ScanClasspath(ctx context.Context, cp *classpath.Classpath, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		_ = cp.Close()
		return nil, err
	}
	start := time.Now()

	resources, err := cp.Resources(ctx)
	if err != nil {
		_ = cp.Close()
		return nil, fmt.Errorf("enumerate classpath: %w", err)
	}

	res, err := newResult(cp, opts)
	if err != nil {
		_ = cp.Close()
		return nil, err
	}
	hooks := observability.Scan()
	hooks.OnScanStart(ctx, res.id, len(resources))
	opts.Logger.Debug("scanning classpath",
		"id", res.id,
		"units", len(resources),
		"workers", opts.Workers)

	m := &merger{
		ctx:    ctx,
		id:     res.id,
		graph:  res.graph,
		units:  make([]Unit, len(resources)),
		owner:  make(map[string]int),
		logger: opts.Logger,
	}
	for i, r := range resources {
		m.units[i] = Unit{Order: i, Resource: r.String(), ClassName: r.ClassName}
	}

	parseOpts := classfile.Options{
		CheckName:                   opts.StrictNames,
		IncludeInvisibleAnnotations: opts.IncludeInvisibleAnnotations,
	}
	recordOpts := classgraph.RecordOptions{
		ConstantPoolDependencies: opts.EnableInterClassDependencies && opts.EnableConstantPoolDependencies,
	}

	records := make(chan parsed, opts.QueueSize)
	merged := make(chan struct{})
	go func() {
		defer close(merged)
		for p := range records {
			m.merge(p)
		}
	}()

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, r := range resources {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rec, err := parseUnit(r, i, parseOpts, recordOpts, opts.EnableClassInfo)
			records <- parsed{order: i, rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(records)
	<-merged

	m.checkArity()
	res.finish(m.units, opts.EnableInterClassDependencies)
	if err := ctx.Err(); err != nil {
		res.cancelled = true
		res.err = err
	}
	res.duration = time.Since(start)

	failures := len(res.Failures())
	hooks.OnScanComplete(ctx, res.id, len(res.AllClasses()), failures, res.duration, res.err)
	logScanSummary(opts.Logger, res, failures)
	return res, nil
}

func logScanSummary(logger *log.Logger, res *Result, failures int) {
	kv := []any{
		"classes", len(res.AllClasses()),
		"external", len(res.ExternalClasses()),
		"failed", failures,
		"duration", res.duration.Round(time.Millisecond),
	}
	if res.cancelled {
		logger.Warn("scan cancelled", append(kv, "err", res.err)...)
		return
	}
	logger.Info("scan complete", kv...)
}

type parsed struct {
	order int
	rec   *classgraph.Record
	err   error
}

// parseUnit reads and decodes one resource. It touches no shared state.
func parseUnit(r classpath.Resource, order int, po classfile.Options, ro classgraph.RecordOptions, keepInfo bool) (*classgraph.Record, error) {
	data, err := r.Read()
	if err != nil {
		return nil, err
	}
	cf, err := classfile.Parse(r.Path, data, po)
	if err != nil {
		return nil, err
	}
	rec, err := classgraph.BuildRecord(cf, ro)
	if err != nil {
		return nil, err
	}
	rec.Order = order
	rec.Class.Element = r.Element.Path()
	if !keepInfo {
		rec.Class.Fields = nil
		rec.Class.Methods = nil
		rec.Class.Annotations = nil
	}
	return rec, nil
}

// merger owns the graph and the unit table while records are merged.
type merger struct {
	ctx    context.Context
	id     string
	graph  *classgraph.Graph
	units  []Unit
	owner  map[string]int // class name -> order of the unit that defined it
	logger *log.Logger
}

func (m *merger) merge(p parsed) {
	if p.err != nil {
		m.fail(p.order, p.err)
		return
	}
	m.units[p.order].State = UnitParsed

	node, err := m.graph.AddOrMerge(p.rec)
	var dup *classgraph.DuplicateClassError
	switch {
	case errors.As(err, &dup):
		m.fail(dup.DroppedOrder, err)
		if dup.DroppedOrder != p.order {
			m.units[p.order].State = UnitMerged
			m.owner[node.Name] = p.order
		}
	case err != nil:
		m.fail(p.order, err)
	default:
		m.units[p.order].State = UnitMerged
		m.owner[node.Name] = p.order
	}
}

// checkArity demotes the classes whose annotation values disagree with
// their annotation type. All mismatches are collected before any class is
// demoted.
func (m *merger) checkArity() {
	for _, mm := range m.graph.CheckAnnotationArity() {
		if order, ok := m.owner[mm.Class]; ok {
			m.fail(order, mm.Err)
		}
		m.graph.Demote(mm.Class)
	}
}

func (m *merger) fail(order int, err error) {
	u := &m.units[order]
	u.State = UnitFailed
	u.Err = err
	m.logger.Warn("skipping class", "resource", u.Resource, "err", err)
	observability.Scan().OnUnitFailed(m.ctx, m.id, u.Resource, err)
}
