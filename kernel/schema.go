package kernel

import "fmt"

// FieldPolicy controls how a State Reducer (C1) folds a delta value into the
// accumulated workflow state for one field.
//
//   - PolicyReplace: s'.f = d.f (default).
//   - PolicyAppend:  s'.f = s.f ++ d.f (d.f must be a []any; order preserved,
//     empty delta is a no-op).
//   - PolicyMerge:   for each (k,v) in d.f, s'.f[k] = v (d.f must be a
//     map[string]any; last write wins per key).
type FieldPolicy int

const (
	PolicyReplace FieldPolicy = iota
	PolicyAppend
	PolicyMerge
)

// StateSchema declares, once per workflow, the field policy for every field a
// workflow's state may carry. The Reducer consults this schema rather than
// runtime struct tags or reflection, so authoring a workflow is "declare the
// schema, then emit deltas" — pure data, no annotation processing.
type StateSchema struct {
	fields map[string]FieldPolicy
}

// NewStateSchema builds a schema from a field->policy map.
func NewStateSchema(fields map[string]FieldPolicy) StateSchema {
	cp := make(map[string]FieldPolicy, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return StateSchema{fields: cp}
}

func (s StateSchema) policyFor(field string) (FieldPolicy, bool) {
	p, ok := s.fields[field]
	return p, ok
}

// WorkflowState is an immutable snapshot of per-run state. Reduce never
// mutates a WorkflowState in place; every reduction yields a new snapshot
// with Version incremented by one.
type WorkflowState struct {
	WorkflowID string
	Version    uint64
	Fields     map[string]any
}

// Delta is a partial update: field name to new-or-incremental value,
// interpreted per the target field's declared FieldPolicy.
type Delta map[string]any

// Get reads a field, returning (nil, false) if absent.
func (s WorkflowState) Get(field string) (any, bool) {
	v, ok := s.Fields[field]
	return v, ok
}

// Reducer applies deltas to workflow state according to a StateSchema (C1).
// Reduce has no observable side effect: given the same (s, d) it always
// produces an identical s', and it never mutates s or d.
type Reducer struct {
	schema StateSchema
}

// NewReducer constructs a Reducer bound to a fixed schema.
func NewReducer(schema StateSchema) *Reducer {
	return &Reducer{schema: schema}
}

// Reduce folds delta d into state s per the schema, returning a new snapshot.
// Fields absent from d are carried over by reference (no copy needed since
// WorkflowState is never mutated in place). A delta targeting a field absent
// from the schema, or one whose value's shape disagrees with its declared
// policy, fails with ErrSchemaViolation.
func (r *Reducer) Reduce(s WorkflowState, d Delta) (WorkflowState, error) {
	next := make(map[string]any, len(s.Fields)+len(d))
	for k, v := range s.Fields {
		next[k] = v
	}

	for field, dv := range d {
		policy, ok := r.schema.policyFor(field)
		if !ok {
			return WorkflowState{}, fmt.Errorf("%w: field %q not declared in schema", ErrSchemaViolation, field)
		}
		switch policy {
		case PolicyReplace:
			next[field] = dv
		case PolicyAppend:
			items, ok := dv.([]any)
			if !ok {
				return WorkflowState{}, fmt.Errorf("%w: field %q has append policy, delta must be []any", ErrSchemaViolation, field)
			}
			if len(items) == 0 {
				continue
			}
			existing, _ := next[field].([]any)
			merged := make([]any, 0, len(existing)+len(items))
			merged = append(merged, existing...)
			merged = append(merged, items...)
			next[field] = merged
		case PolicyMerge:
			patch, ok := dv.(map[string]any)
			if !ok {
				return WorkflowState{}, fmt.Errorf("%w: field %q has merge policy, delta must be map[string]any", ErrSchemaViolation, field)
			}
			existing, _ := next[field].(map[string]any)
			merged := make(map[string]any, len(existing)+len(patch))
			for k, v := range existing {
				merged[k] = v
			}
			for k, v := range patch {
				merged[k] = v
			}
			next[field] = merged
		default:
			return WorkflowState{}, fmt.Errorf("%w: field %q has unknown policy", ErrSchemaViolation, field)
		}
	}

	return WorkflowState{
		WorkflowID: s.WorkflowID,
		Version:    s.Version + 1,
		Fields:     next,
	}, nil
}
