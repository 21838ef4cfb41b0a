package service

import (
	"sort"

	"dms-upload-service/internal/allocate/model"
)

// CacheKey is the stable decision-cache key for an (input, candidate)
// name pair.
func CacheKey(input, candidate string) string {
	return input + "|" + candidate
}

// CollectQuestions pre-scans the whole order batch and returns every
// disambiguation decision a human must make, before any stock is
// committed. It simulates allocation on a private copy of the ledger,
// in the same order-date order the engine will use, so stock questions
// reflect what will actually be available when each order is reached.
func CollectQuestions(lines []model.OrderLine, catalog []model.CatalogRow) (model.QuestionSet, error) {
	qs := model.QuestionSet{
		PartialMatches: []model.Question{},
		Variants:       []model.Question{},
		Related:        []model.Question{},
	}

	ledger := NewLedger(catalog)
	names := ledger.ProductNames()
	variants := BuildVariants(catalog)

	// partial-match questions, in input-row order
	type matched struct {
		name  string
		score int
	}
	matches := make([]matched, len(lines))
	seenPartial := map[string]bool{}
	for i, line := range lines {
		m, score := FuzzyMatch(line.ProductName, names, 0)
		matches[i] = matched{name: m, score: score}
		if m != "" && score >= PartialMinScore && score < ScoreExact {
			key := CacheKey(line.ProductName, m)
			if !seenPartial[key] {
				seenPartial[key] = true
				qs.PartialMatches = append(qs.PartialMatches, model.Question{
					Type:           model.QuestionPartial,
					CacheKey:       key,
					InputProduct:   line.ProductName,
					MatchedProduct: m,
					Score:          score,
				})
			}
		}
	}

	sim, err := ledger.Clone()
	if err != nil {
		return qs, err
	}

	// date order must mirror the engine's, or the simulated depletion
	// drifts from reality
	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lines[order[a]].OrderDate.Before(lines[order[b]].OrderDate)
	})

	seenVariant := map[string]bool{}
	seenRelated := map[string]bool{}

	for _, i := range order {
		line := lines[i]
		pname, score := matches[i].name, matches[i].score
		if pname == "" || score < PartialMinScore || !sim.Has(pname) {
			continue
		}
		qty := line.Quantity
		if qty < 0 {
			sim.Credit(pname, -qty)
			continue
		}
		if qty == 0 {
			continue
		}

		currentStock := sim.TotalStock(pname)
		if currentStock < qty {
			others := variants.Others(pname)
			for _, v := range others {
				if !sim.Has(v) {
					continue
				}
				vStock := sim.TotalStock(v)
				if vStock <= 0 {
					continue
				}
				key := CacheKey(pname, v)
				if seenVariant[key] {
					continue
				}
				seenVariant[key] = true
				qs.Variants = append(qs.Variants, model.Question{
					Type:         model.QuestionVariant,
					CacheKey:     key,
					MainProduct:  pname,
					Variant:      v,
					MainStock:    currentStock,
					VariantStock: vStock,
					RequiredQty:  qty,
				})
			}

			// The human hasn't decided on the variants yet, so count all
			// variant stock optimistically before asking about related
			// products.
			totalStock := currentStock
			for _, v := range others {
				if sim.Has(v) {
					totalStock += sim.TotalStock(v)
				}
			}
			if totalStock < qty {
				excluded := map[string]bool{pname: true}
				for _, v := range others {
					excluded[v] = true
				}
				rel := RelatedCandidates(pname, sim.ProductNames(), func(c string) bool { return excluded[c] })
				for _, rp := range rel {
					rpStock := sim.TotalStock(rp)
					if rpStock <= 0 {
						continue
					}
					key := CacheKey(pname, rp)
					if seenRelated[key] {
						continue
					}
					seenRelated[key] = true
					qs.Related = append(qs.Related, model.Question{
						Type:           model.QuestionRelated,
						CacheKey:       key,
						MainProduct:    pname,
						RelatedProduct: rp,
						MainStock:      currentStock,
						RelatedStock:   rpStock,
						RequiredQty:    qty,
						TotalStock:     totalStock,
					})
				}
			}
		}

		// Simulate the engine's consumption so later lines see depleted
		// stock. Own batches only; variant/related use is undecided here.
		sim.Consume(pname, qty)
	}

	return qs, nil
}
