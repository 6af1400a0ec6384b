package query

// Resource names a server-side collection a mutation can change
type Resource string

// Dependencies maps each resource to every key prefix that may contain its data.
// A mutation invalidates the union of the prefixes for the resources it touches,
// so one table entry covers every view of the resource.
type Dependencies map[Resource][]Key

// Keys returns the de-duplicated prefixes for the given resources
func (d Dependencies) Keys(resources ...Resource) []Key {
	seen := make(map[string]struct{})
	var keys []Key
	for _, r := range resources {
		for _, k := range d[r] {
			h := k.Hash()
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// Covers reports whether invalidating r reaches key
func (d Dependencies) Covers(r Resource, key Key) bool {
	for _, prefix := range d[r] {
		if key.HasPrefix(prefix) {
			return true
		}
	}
	return false
}
