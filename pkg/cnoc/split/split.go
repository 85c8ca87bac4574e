// Package split partitions training rows into train, validation and test sets.
//
// The first cut holds out a share of rows stratified by label family (the
// two-digit major group). When any family has fewer than two rows the whole
// cut falls back to a plain random permutation. The held-out rows are then
// divided into validation and test at random. A fixed seed makes both cuts
// reproducible for identical input.
package split

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// minPerFamily is the smallest family that can appear on both sides of a stratified cut.
const minPerFamily = 2

// Options configures Split.
type Options struct {
	Seed      uint64
	HoldOut   float64 // share of rows held out from training
	TestShare float64 // share of held-out rows that go to test
}

// DefaultOptions returns an 80/10/10 split with seed 42.
func DefaultOptions() Options {
	return Options{Seed: 42, HoldOut: 0.2, TestShare: 0.5}
}

// Result holds the three partitions.
type Result struct {
	Train      []occupation.TrainingRow
	Val        []occupation.TrainingRow
	Test       []occupation.TrainingRow
	Stratified bool
}

// Family returns the stratification key of a row.
func Family(r occupation.TrainingRow) string {
	return occupation.MajorGroup(r.Code)
}

// Split partitions rows. Every input row lands in exactly one partition.
func Split(rows []occupation.TrainingRow, opts Options) Result {
	def := DefaultOptions()
	if opts.HoldOut <= 0 || opts.HoldOut >= 1 {
		opts.HoldOut = def.HoldOut
	}
	if opts.TestShare <= 0 || opts.TestShare >= 1 {
		opts.TestShare = def.TestShare
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	n := len(rows)
	nHold := shareOf(n, opts.HoldOut)

	var train, held []int
	stratified := false
	if groups, families := groupByFamily(rows); canStratify(groups, families, n, nHold) {
		train, held = stratifiedCut(groups, families, n, nHold, rng)
		stratified = true
	} else {
		perm := rng.Perm(n)
		held, train = perm[:nHold], perm[nHold:]
	}

	nTest := shareOf(len(held), opts.TestShare)
	perm := rng.Perm(len(held))
	test := make([]int, 0, nTest)
	val := make([]int, 0, len(held)-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, held[p])
		} else {
			val = append(val, held[p])
		}
	}

	return Result{
		Train:      pick(rows, train),
		Val:        pick(rows, val),
		Test:       pick(rows, test),
		Stratified: stratified,
	}
}

// shareOf returns ceil(share*n), guarding against float noise such as 0.2*35.
func shareOf(n int, share float64) int {
	k := int(math.Ceil(float64(n)*share - 1e-9))
	return min(max(k, 0), n)
}

func groupByFamily(rows []occupation.TrainingRow) (map[string][]int, []string) {
	groups := make(map[string][]int)
	for i, r := range rows {
		f := Family(r)
		groups[f] = append(groups[f], i)
	}
	families := make([]string, 0, len(groups))
	for f := range groups {
		families = append(families, f)
	}
	sort.Strings(families)
	return groups, families
}

// canStratify requires every family to have minPerFamily rows and both sides
// of the cut to have room for one row per family.
func canStratify(groups map[string][]int, families []string, n, nHold int) bool {
	if len(families) == 0 {
		return false
	}
	for _, f := range families {
		if len(groups[f]) < minPerFamily {
			return false
		}
	}
	return nHold >= len(families) && n-nHold >= len(families)
}

func stratifiedCut(groups map[string][]int, families []string, n, nHold int, rng *rand.Rand) (train, held []int) {
	alloc := allocate(groups, families, n, nHold)

	for _, f := range families {
		idx := append([]int(nil), groups[f]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		held = append(held, idx[:alloc[f]]...)
		train = append(train, idx[alloc[f]:]...)
	}

	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(held), func(i, j int) { held[i], held[j] = held[j], held[i] })
	return train, held
}

// allocate gives each family its proportional share of nHold by largest
// remainder, with at least one row per family held out and one kept for training.
func allocate(groups map[string][]int, families []string, n, nHold int) map[string]int {
	type share struct {
		family string
		frac   float64
	}

	alloc := make(map[string]int, len(families))
	shares := make([]share, 0, len(families))
	total := 0
	for _, f := range families {
		size := len(groups[f])
		exact := float64(size) * float64(nHold) / float64(n)
		k := int(math.Floor(exact))
		k = min(max(k, 1), size-1)
		alloc[f] = k
		total += k
		shares = append(shares, share{family: f, frac: exact - math.Floor(exact)})
	}

	sort.SliceStable(shares, func(i, j int) bool { return shares[i].frac > shares[j].frac })

	for total < nHold {
		moved := false
		for _, s := range shares {
			if total == nHold {
				break
			}
			if alloc[s.family] < len(groups[s.family])-1 {
				alloc[s.family]++
				total++
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	for total > nHold {
		moved := false
		for i := len(shares) - 1; i >= 0 && total > nHold; i-- {
			f := shares[i].family
			if alloc[f] > 1 {
				alloc[f]--
				total--
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return alloc
}

func pick(rows []occupation.TrainingRow, idx []int) []occupation.TrainingRow {
	out := make([]occupation.TrainingRow, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

// FamilyCount is the number of rows in one family.
type FamilyCount struct {
	Family string
	Count  int
}

// FamilyCounts tallies rows per family, largest first.
func FamilyCounts(rows []occupation.TrainingRow) []FamilyCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[Family(r)]++
	}
	out := make([]FamilyCount, 0, len(counts))
	for f, c := range counts {
		out = append(out, FamilyCount{Family: f, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Family < out[j].Family
	})
	return out
}
