//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen generates demo catalogs whose raw brand names carry the
// kind of noise brand resolution has to undo.
package datagen

import (
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"
)

// Faker provides fake data generation using gofakeit.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return &Faker{
		faker: gofakeit.New(uint64(time.Now().UnixNano())),
	}
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// Company generates a random company name.
func (f *Faker) Company() string {
	return f.faker.Company()
}

// ProductName generates a random product name.
func (f *Faker) ProductName() string {
	return f.faker.ProductName()
}

// Digits generates a random string of digits of length n.
func (f *Faker) Digits(n int) string {
	return f.faker.DigitN(uint(n))
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// Noise kinds applied by BrandVariant.
const (
	NoiseLower = iota
	NoiseUpper
	NoiseTrailingSpace
	NoiseDoubleSpace
	NoisePunctuation
	NoiseTypo
)

// noiseWeights favors casing noise, the most common kind in catalog feeds.
var noiseWeights = []int{30, 25, 15, 10, 10, 10}

// BrandVariant returns a noisy spelling of name as it might arrive from a
// supplier feed.
func (f *Faker) BrandVariant(name string) string {
	kinds := []int{NoiseLower, NoiseUpper, NoiseTrailingSpace, NoiseDoubleSpace, NoisePunctuation, NoiseTypo}
	return f.ApplyNoise(name, ChooseWeighted(f, kinds, noiseWeights))
}

// ApplyNoise applies one noise kind to name.
func (f *Faker) ApplyNoise(name string, kind int) string {
	switch kind {
	case NoiseLower:
		return strings.ToLower(name)
	case NoiseUpper:
		return strings.ToUpper(name)
	case NoiseTrailingSpace:
		return name + " "
	case NoiseDoubleSpace:
		if strings.Contains(name, " ") {
			return strings.Replace(name, " ", "  ", 1)
		}
		return " " + name
	case NoisePunctuation:
		return name + Choose(f, []string{".", "!", "®", "™"})
	case NoiseTypo:
		return f.swapLetters(name)
	}
	return name
}

// swapLetters swaps two adjacent letters, or doubles the last rune when the
// name has no adjacent letter pair.
func (f *Faker) swapLetters(name string) string {
	runes := []rune(name)

	var candidates []int
	for i := 0; i+1 < len(runes); i++ {
		if unicode.IsLetter(runes[i]) && unicode.IsLetter(runes[i+1]) && runes[i] != runes[i+1] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		if len(runes) == 0 {
			return name
		}
		return name + string(runes[len(runes)-1])
	}

	i := Choose(f, candidates)
	runes[i], runes[i+1] = runes[i+1], runes[i]
	return string(runes)
}
