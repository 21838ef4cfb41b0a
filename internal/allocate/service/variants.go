package service

import (
	"sort"
	"strings"

	"dms-upload-service/internal/allocate/model"
)

// Variants indexes catalog products that share a non-empty product_id
// under different names. The alphabetically-first name of a group is
// its main member.
type Variants struct {
	groups   map[string][]string // main -> other members, sorted
	memberOf map[string]string   // any member -> its group's main
}

func BuildVariants(rows []model.CatalogRow) *Variants {
	byID := make(map[string]map[string]bool)
	var idOrder []string
	for _, r := range rows {
		name := Normalize(r.ProductName)
		if name == "" || r.ProductID == "" {
			continue
		}
		if _, ok := byID[r.ProductID]; !ok {
			byID[r.ProductID] = make(map[string]bool)
			idOrder = append(idOrder, r.ProductID)
		}
		byID[r.ProductID][name] = true
	}

	v := &Variants{groups: make(map[string][]string), memberOf: make(map[string]string)}
	for _, id := range idOrder {
		names := make([]string, 0, len(byID[id]))
		for n := range byID[id] {
			names = append(names, n)
		}
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		main := names[0]
		v.groups[main] = names[1:]
		for _, n := range names {
			if _, taken := v.memberOf[n]; !taken {
				v.memberOf[n] = main
			}
		}
	}
	return v
}

// Others returns the other members of name's variant group: the whole
// rest of the group for the main member, and main-first for everyone
// else. Nil when the name is in no group.
func (v *Variants) Others(name string) []string {
	if vs, ok := v.groups[name]; ok {
		return append([]string(nil), vs...)
	}
	main, ok := v.memberOf[name]
	if !ok || main == name {
		return nil
	}
	out := []string{main}
	for _, m := range v.groups[main] {
		if m != name {
			out = append(out, m)
		}
	}
	return out
}

// RelatedCandidates scans candidate product names for textual
// relatives of main: either both names are at least 10 characters long
// and one contains the other, or their character-level ratio is ≥80.
// A product_id is deliberately not consulted here; the heuristic
// exists to catch catalog data-entry inconsistencies.
func RelatedCandidates(main string, candidates []string, exclude func(string) bool) []string {
	ml := strings.ToLower(strings.TrimSpace(main))
	var out []string
	for _, c := range candidates {
		if exclude != nil && exclude(c) {
			continue
		}
		cl := strings.ToLower(strings.TrimSpace(c))
		related := false
		if len([]rune(ml)) >= 10 && len([]rune(cl)) >= 10 {
			related = strings.Contains(cl, ml) || strings.Contains(ml, cl)
		}
		if !related && Ratio(ml, cl) >= 80 {
			related = true
		}
		if related {
			out = append(out, c)
		}
	}
	return out
}
