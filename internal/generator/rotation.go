/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package generator

import (
	"hash/fnv"
	"sort"
	"strings"
)

// hashString is 32-bit FNV-1a over the UTF-8 bytes of value.
func hashString(value string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	return h.Sum32()
}

// IsTrainerWorking reports whether a trainer with the given cycle offset is on
// duty on dayIndex. Trainers work two days, then rest two.
func IsTrainerWorking(dayIndex, cycleOffset int) bool {
	cycleDay := ((dayIndex-cycleOffset)%dutyCycleDays + dutyCycleDays) % dutyCycleDays
	return cycleDay < dutyDaysOn
}

// pickTrainer chooses the least-loaded trainer on duty for the shift. When
// nobody is on duty the whole shift pool is used and a warning is recorded.
func (r *run) pickTrainer(shift Shift, dayIndex int, date, slotTime string) (string, bool) {
	var shiftRules, active []TrainerRule
	for _, rule := range r.cfg.TrainerRules {
		if rule.Shift != shift {
			continue
		}
		shiftRules = append(shiftRules, rule)
		if IsTrainerWorking(dayIndex, rule.CycleOffset) {
			active = append(active, rule)
		}
	}

	pool := active
	if len(pool) == 0 {
		pool = shiftRules
	}
	if len(pool) == 0 {
		r.warn("No active trainer for %s shift on %s %s", shift, date, slotTime)
		return "", false
	}
	if len(active) == 0 {
		r.warn("No active trainer for %s shift on %s %s", shift, date, slotTime)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		li, lj := r.trainerLoad[pool[i].TrainerID], r.trainerLoad[pool[j].TrainerID]
		if li != lj {
			return li < lj
		}
		return strings.Compare(pool[i].TrainerID, pool[j].TrainerID) < 0
	})

	picked := pool[0].TrainerID
	r.trainerLoad[picked]++
	return picked, true
}

// pickTemplate chooses a shift-eligible template, avoiding an immediate
// repeat of previousID when possible. Ties on usage are broken by a hash of
// seed and template id.
func pickTemplate(pool []Template, shift Shift, dayUsage, globalUsage map[string]int, previousID, seed string) *Template {
	var eligible []*Template
	for i := range pool {
		if pool[i].EligibleFor(shift) {
			eligible = append(eligible, &pool[i])
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	var candidates []*Template
	for _, tpl := range eligible {
		if tpl.ID != previousID {
			candidates = append(candidates, tpl)
		}
	}
	if len(candidates) == 0 {
		candidates = eligible
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if dayUsage[a.ID] != dayUsage[b.ID] {
			return dayUsage[a.ID] < dayUsage[b.ID]
		}
		if globalUsage[a.ID] != globalUsage[b.ID] {
			return globalUsage[a.ID] < globalUsage[b.ID]
		}
		return hashString(seed+":"+a.ID) < hashString(seed+":"+b.ID)
	})

	return candidates[0]
}
