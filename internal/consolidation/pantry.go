package consolidation

import "github.com/shopspring/decimal"

// Stock is an on-hand quantity. An empty Unit is a plain count that nets
// against whatever unit the requirement uses.
type Stock struct {
	Quantity decimal.Decimal
	Unit     string
}

// Pantry maps normalized ingredient names to what is on hand.
type Pantry map[string][]Stock

// Add records stock for name, merging equal units.
func (p Pantry) Add(name string, qty decimal.Decimal, unit string) {
	key := normalizeName(name)
	unit = normalizeUnit(unit)
	for i, s := range p[key] {
		if s.Unit == unit {
			p[key][i].Quantity = s.Quantity.Add(qty)
			return
		}
	}
	p[key] = append(p[key], Stock{Quantity: qty, Unit: unit})
}

// working copy consumed while netting so one stock entry is never counted twice.
type ledger map[string][]Stock

func newLedger(p Pantry) ledger {
	l := make(ledger, len(p))
	for name, stocks := range p {
		key := normalizeName(name)
		for _, s := range stocks {
			if !s.Quantity.IsPositive() {
				continue
			}
			l[key] = append(l[key], Stock{Quantity: s.Quantity, Unit: normalizeUnit(s.Unit)})
		}
	}
	return l
}

func (l ledger) has(name string) bool {
	for _, s := range l[name] {
		if s.Quantity.IsPositive() {
			return true
		}
	}
	return false
}

// covers reports whether any stock for name can net against unit.
func (l ledger) covers(name, unit string, conv UnitConverter) bool {
	for _, s := range l[name] {
		if !s.Quantity.IsPositive() {
			continue
		}
		if s.Unit == "" {
			return true
		}
		if _, ok := conv.Convert(s.Quantity, s.Unit, unit); ok {
			return true
		}
	}
	return false
}

// net subtracts available stock from need and returns what is still missing.
func (l ledger) net(name, unit string, need decimal.Decimal, conv UnitConverter) decimal.Decimal {
	stocks := l[name]
	for i := range stocks {
		if !need.IsPositive() {
			break
		}
		s := &stocks[i]
		if !s.Quantity.IsPositive() {
			continue
		}

		available := s.Quantity
		converted := false
		if s.Unit != "" {
			v, ok := conv.Convert(s.Quantity, s.Unit, unit)
			if !ok {
				continue
			}
			available, converted = v, true
		}

		used := decimal.Min(available, need)
		need = need.Sub(used)

		if !converted {
			s.Quantity = s.Quantity.Sub(used)
			continue
		}
		back, ok := conv.Convert(used, unit, s.Unit)
		if !ok || back.GreaterThanOrEqual(s.Quantity) {
			s.Quantity = decimal.Zero
			continue
		}
		s.Quantity = s.Quantity.Sub(back)
	}
	return need
}
