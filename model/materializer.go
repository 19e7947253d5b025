package model

// planEntry is one model's slice of a ModelSelect's flat projection:
// its Metadata and, for anything past the base model, the attribute
// name its matched instance is attached under on the base model's
// instance.
type planEntry struct {
	meta     *Metadata
	destAttr string
}

// JoinMaterializer implements cursor.RowMaterializer for a ModelSelect.
// It knows its plan (base model plus joins, in projection order) at
// construction time, so it recovers each column's owning model by
// position rather than by re-parsing the driver's "table.column"
// names the way spec.md's original materializer does: the AliasManager
// already guarantees each model's canonical table renders under its
// own stable identity, so the projection's column order is a reliable,
// cheaper substitute (see DESIGN.md's positional-correspondence open
// question).
type JoinMaterializer struct {
	plan []planEntry
}

// Initialize implements cursor.RowMaterializer. The plan was already
// fixed when the ModelSelect built this materializer, so there is
// nothing to do with the driver's column names.
func (jm *JoinMaterializer) Initialize(columns []string) error { return nil }

// MaterializeRow implements cursor.RowMaterializer, splitting values
// across jm.plan by position and attaching every non-null joined
// instance onto the base instance under its destination attribute.
func (jm *JoinMaterializer) MaterializeRow(values []any) (any, error) {
	instances := make([]*Instance, len(jm.plan))
	idx := 0
	for i, pe := range jm.plan {
		fields := pe.meta.Fields()
		inst := newBare(pe.meta)
		allNil := true
		for _, f := range fields {
			raw := values[idx]
			idx++
			if raw != nil {
				allNil = false
			}
			goVal, err := f.PythonValue(raw)
			if err != nil {
				return nil, err
			}
			inst.setClean(f.name, goVal)
		}
		if i == 0 || !allNil {
			instances[i] = inst
		}
	}

	root := instances[0]
	for i := 1; i < len(jm.plan); i++ {
		if instances[i] == nil {
			continue
		}
		root.setClean(jm.plan[i].destAttr, instances[i])
	}
	return root, nil
}
