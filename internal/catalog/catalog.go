// AngelaMos | 2026
// catalog.go

// Package catalog holds the fixed table of VIP investment packages. Amounts
// are integer minor units.
package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Package struct {
	ID           string
	Name         string
	Price        int64
	DailyReturn  int64
	DurationDays int
}

// TotalReturn is what the package pays out if it runs to completion.
func (p Package) TotalReturn() int64 {
	return p.DailyReturn * int64(p.DurationDays)
}

// DailyRate is the daily return as a percentage of price, two decimals.
func (p Package) DailyRate() decimal.Decimal {
	if p.Price == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(p.DailyReturn).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(p.Price)).
		Round(2)
}

// TotalRate is the full-term return as a percentage of price, two decimals.
func (p Package) TotalRate() decimal.Decimal {
	if p.Price == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(p.TotalReturn()).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(p.Price)).
		Round(2)
}

var packages = map[string]Package{
	"vip-1": {ID: "vip-1", Name: "VIP-1", Price: 6000, DailyReturn: 300, DurationDays: 365},
	"vip-2": {ID: "vip-2", Name: "VIP-2", Price: 15000, DailyReturn: 800, DurationDays: 365},
	"vip-3": {ID: "vip-3", Name: "VIP-3", Price: 31000, DailyReturn: 1800, DurationDays: 365},
	"vip-4": {ID: "vip-4", Name: "VIP-4", Price: 50000, DailyReturn: 3100, DurationDays: 365},
	"vip-5": {ID: "vip-5", Name: "VIP-5", Price: 100000, DailyReturn: 7300, DurationDays: 365},
	"vip-6": {ID: "vip-6", Name: "VIP-6", Price: 200000, DailyReturn: 16400, DurationDays: 365},
	"vip-7": {ID: "vip-7", Name: "VIP-7", Price: 500000, DailyReturn: 41666, DurationDays: 365},
	"vip-8": {ID: "vip-8", Name: "VIP-8", Price: 1000000, DailyReturn: 90900, DurationDays: 365},
	"vip-9": {ID: "vip-9", Name: "VIP-9", Price: 3000000, DailyReturn: 360000, DurationDays: 365},
}

// Lookup returns the package for id.
func Lookup(id string) (Package, bool) {
	p, ok := packages[id]
	return p, ok
}

// All returns every package, cheapest first.
func All() []Package {
	out := make([]Package, 0, len(packages))
	for _, p := range packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Price < out[j].Price
	})
	return out
}
