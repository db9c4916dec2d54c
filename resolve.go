package texgen

// Plan returns the map types to generate, in dependency order, so that
// every target can be synthesized: the targets themselves plus each
// transitive dependency for which stale reports true. A dependency that
// is not stale is taken as is, and its own dependencies are not visited.
func Plan(targets []MapType, stale func(MapType) bool) []MapType {
	var need [mapTypeCount]bool
	var visit func(t MapType)
	visit = func(t MapType) {
		for _, d := range mapDeps[t] {
			if !need[d] && stale(d) {
				need[d] = true
				visit(d)
			}
		}
	}
	for _, t := range targets {
		if t.Valid() {
			need[t] = true
			visit(t)
		}
	}

	// MapType order is a topological order of the dependency graph.
	var plan []MapType
	for t := MapType(0); t < mapTypeCount; t++ {
		if need[t] {
			plan = append(plan, t)
		}
	}
	return plan
}
