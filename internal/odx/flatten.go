package odx

// AddContainer appends one document's layers to the database. The global
// collections are built later by Flatten, after link resolution, so
// services inherited across layers reach them too.
func (db *Database) AddContainer(c *Container) {
	db.Protocols = append(db.Protocols, c.Protocols...)
	db.FunctionalGroups = append(db.FunctionalGroups, c.FunctionalGroups...)
	db.BaseVariants = append(db.BaseVariants, c.BaseVariants...)
	db.EcuVariants = append(db.EcuVariants, c.EcuVariants...)
	db.EcuSharedData = append(db.EcuSharedData, c.EcuSharedData...)
}

// Flatten rebuilds the global collections from every layer, tagging each
// entry with the owning layer's short name. It replaces any previous
// flatten, so merging inputs {A, B} still yields the concatenation of
// flattening A and B independently.
func (db *Database) Flatten() {
	db.Params = nil
	db.Units = nil
	db.CompuMethods = nil
	db.DataObjectProps = nil
	db.TroubleCodes = nil

	for _, l := range db.Layers() {
		db.flattenLayer(l)
	}
}

// flattenLayer walks every service's request and responses and appends
// their full parameter trees, plus the layer's scalar collections, to
// the global collections.
func (db *Database) flattenLayer(l *Layer) {
	for _, s := range l.Services {
		if s.Request != nil {
			db.Params = append(db.Params, flattenParams(s.Request.Params, l.ShortName)...)
		}
		for _, m := range s.PosResponses {
			db.Params = append(db.Params, flattenParams(m.Params, l.ShortName)...)
		}
		for _, m := range s.NegResponses {
			db.Params = append(db.Params, flattenParams(m.Params, l.ShortName)...)
		}
	}

	for _, u := range l.Units {
		u.LayerName = l.ShortName
		db.Units = append(db.Units, u)
	}
	for _, cm := range l.CompuMethods {
		cm.LayerName = l.ShortName
		db.CompuMethods = append(db.CompuMethods, cm)
	}
	for _, d := range l.DataObjectProps {
		d.LayerName = l.ShortName
		db.DataObjectProps = append(db.DataObjectProps, d)
	}
	for _, tc := range l.TroubleCodes {
		tc.LayerName = l.ShortName
		db.TroubleCodes = append(db.TroubleCodes, tc)
	}
}

// flattenParams copies parameter trees depth-first in declared order,
// stamping the owning layer's short name onto every copy. Copying keeps
// a service inherited by several layers from fighting over one tag: each
// layer's flatten is an independent snapshot.
func flattenParams(params []*Param, layerName string) []*Param {
	var out []*Param

	var clone func(ps []*Param) []*Param
	clone = func(ps []*Param) []*Param {
		if len(ps) == 0 {
			return nil
		}
		copies := make([]*Param, len(ps))
		for i, p := range ps {
			cp := *p
			cp.LayerName = layerName
			copies[i] = &cp
			out = append(out, &cp)
			cp.Children = clone(p.Children)
		}
		return copies
	}
	clone(params)
	return out
}
