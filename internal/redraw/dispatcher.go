package redraw

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Dispatcher applies redraw batches to a screen.
//
// A batch is the argument of one redraw notification: an ordered sequence
// of [name, tuple, tuple, ...] entries. Every tuple of a known operation is
// applied in order, unknown operation names are skipped, and the screen's
// RedrawFinish is called once after the whole batch.
type Dispatcher struct {
	screen Screen
	log    *zap.Logger

	batches    atomic.Uint64
	operations atomic.Uint64
	unknown    atomic.Uint64
	failures   atomic.Uint64
}

// Stats holds dispatcher counters.
type Stats struct {
	Batches    uint64
	Operations uint64
	Unknown    uint64
	Failures   uint64
}

// NewDispatcher creates a dispatcher driving screen.
func NewDispatcher(screen Screen, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{screen: screen, log: log}
}

// Apply decodes and applies one batch.
//
// Malformed entries and tuples are skipped; the returned error joins every
// skipped element. An empty batch is a no-op and does not finish a frame.
func (d *Dispatcher) Apply(batch []any) error {
	if len(batch) == 0 {
		return nil
	}

	ops, unknown, err := decode(batch)
	if err != nil {
		d.failures.Add(1)
	}
	if len(unknown) > 0 {
		d.unknown.Add(uint64(len(unknown)))
		d.log.Debug("ignored redraw operations", zap.Strings("names", unknown))
	}

	for _, op := range ops {
		op.Apply(d.screen)
	}
	d.screen.RedrawFinish()

	d.batches.Add(1)
	d.operations.Add(uint64(len(ops)))
	if ce := d.log.Check(zap.DebugLevel, "put"); ce != nil {
		if text := putText(ops); text != "" {
			ce.Write(zap.String("text", text))
		}
	}
	return err
}

// putText concatenates the text of every Put in ops.
func putText(ops []Operation) string {
	var b strings.Builder
	for _, op := range ops {
		if p, ok := op.(Put); ok {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Batches:    d.batches.Load(),
		Operations: d.operations.Load(),
		Unknown:    d.unknown.Load(),
		Failures:   d.failures.Load(),
	}
}

// Decode converts a batch into typed operations in application order.
// Unknown operation names are dropped. Malformed elements are skipped and
// reported in the returned error alongside the operations that did decode.
func Decode(batch []any) ([]Operation, error) {
	ops, _, err := decode(batch)
	return ops, err
}

func decode(batch []any) (ops []Operation, unknown []string, err error) {
	var errs []error
	for i, raw := range batch {
		entry, ok := raw.([]any)
		if !ok || len(entry) == 0 {
			errs = append(errs, fmt.Errorf("%w: entry %d is %T", ErrBadEntry, i, raw))
			continue
		}
		name, err := toString(entry[0])
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: entry %d name: %v", ErrBadEntry, i, err))
			continue
		}

		dec, known := decoders[name]
		if !known {
			unknown = append(unknown, name)
			continue
		}

		tuples := entry[1:]
		// Operations without arguments may arrive with no tuple at all.
		if len(tuples) == 0 {
			tuples = []any{[]any{}}
		}
		for j, t := range tuples {
			args, ok := t.([]any)
			if !ok {
				errs = append(errs, &ArgError{Op: name, Index: j, Err: fmt.Errorf("%w: tuple is %T", ErrBadArguments, t)})
				continue
			}
			op, err := dec(args)
			if err != nil {
				errs = append(errs, &ArgError{Op: name, Index: j, Err: err})
				continue
			}
			ops = append(ops, op)
		}
	}
	return ops, unknown, errors.Join(errs...)
}
