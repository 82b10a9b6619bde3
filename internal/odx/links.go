package odx

// ResolveLinks folds the services of linked (parent) layers into each
// referencing layer, honoring the per-link not-inherited exclusions.
// Linked layers may live in a different input document, so this runs
// after the whole batch has merged. Two passes catch references that
// only became resolvable once every container was added.
func ResolveLinks(db *Database) {
	layers := db.Layers()
	byID := make(map[string]*Layer, len(layers))
	for _, l := range layers {
		if l.ID != "" {
			byID[l.ID] = l
		}
	}

	for pass := 0; pass < 2; pass++ {
		for _, l := range layers {
			visited := map[string]bool{l.ID: true}
			inheritServices(l, byID, visited)
		}
	}
}

// inheritServices resolves l's links depth-first so a grandparent's
// services propagate through the parent. visited guards against link
// cycles across layers.
func inheritServices(l *Layer, byID map[string]*Layer, visited map[string]bool) {
	for _, link := range l.Links {
		parent := byID[link.Ref]
		if parent == nil || visited[parent.ID] {
			continue
		}
		visited[parent.ID] = true
		inheritServices(parent, byID, visited)

		exSN := toSet(link.NotInheritedSN)
		exID := toSet(link.NotInheritedID)
		for _, svc := range parent.Services {
			if exSN[svc.ShortName] || exID[svc.ID] {
				continue
			}
			if hasService(l, svc) {
				continue
			}
			l.Services = append(l.Services, svc)
		}
	}
}

// hasService reports whether the layer already carries a service with
// the same identifier or short name.
func hasService(l *Layer, svc *Service) bool {
	for _, s := range l.Services {
		if svc.ID != "" && s.ID == svc.ID {
			return true
		}
		if svc.ShortName != "" && s.ShortName == svc.ShortName {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
