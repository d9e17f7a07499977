package blend

import (
	"sort"
	"strings"

	"github.com/mvdops/blendboard/internal/modules/lots"
)

// PileSlot identifies a pile within a view. Slots persist for the lifetime
// of the loaded data set even when every lot is dragged away, so an emptied
// pile stays visible as a drop target.
type PileSlot struct {
	Code int           `json:"pile_code"`
	Type lots.PileType `json:"pile_type"`
}

// Pile is one pile table: its slot plus the lots currently assigned to it.
type Pile struct {
	PileSlot
	Rows []lots.LotRow `json:"rows"`
}

// GroupByPile splits rows into piles ordered by code then type
// (batch before varios). Rows keep their relative order within a pile.
func GroupByPile(rows []lots.LotRow) []Pile {
	byslot := make(map[PileSlot]*Pile)
	var order []PileSlot
	for _, r := range rows {
		slot := PileSlot{Code: r.PileCode, Type: r.PileType}
		p, ok := byslot[slot]
		if !ok {
			p = &Pile{PileSlot: slot}
			byslot[slot] = p
			order = append(order, slot)
		}
		p.Rows = append(p.Rows, r)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Code != order[j].Code {
			return order[i].Code < order[j].Code
		}
		return order[i].Type < order[j].Type
	})
	out := make([]Pile, 0, len(order))
	for _, slot := range order {
		out = append(out, *byslot[slot])
	}
	return out
}

// recClassOrder lists the classification buckets shown first in the
// low-recovery view, most critical at the top. Anything else sorts
// alphabetically after these, and unclassified rows land in the
// "SIN CLASIFICACIÓN" bucket at the end of the preferred block.
var recClassOrder = []string{"CRÍTICA", "CRITICA", "ALTA", "MEDIA", "BAJA", "SIN CLASIFICACIÓN"}

const unclassified = "SIN CLASIFICACIÓN"

// ClassBucket is one classification group of the low-recovery view.
type ClassBucket struct {
	Class string        `json:"class"`
	Rows  []lots.LotRow `json:"rows"`
}

// GroupLowRecByClass buckets rows by recovery classification, ordered
// critical-first, then any remaining classes alphabetically.
func GroupLowRecByClass(rows []lots.LotRow) []ClassBucket {
	byClass := make(map[string][]lots.LotRow)
	for _, r := range rows {
		class := strings.TrimSpace(r.RecClass)
		if class == "" {
			class = unclassified
		}
		byClass[class] = append(byClass[class], r)
	}

	rank := make(map[string]int, len(recClassOrder))
	for i, c := range recClassOrder {
		rank[c] = i
	}

	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool {
		ri, iKnown := rank[classes[i]]
		rj, jKnown := rank[classes[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return classes[i] < classes[j]
		}
	})

	out := make([]ClassBucket, 0, len(classes))
	for _, c := range classes {
		out = append(out, ClassBucket{Class: c, Rows: byClass[c]})
	}
	return out
}
