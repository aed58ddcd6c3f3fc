package lex

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a parsed numeric literal. Integers stay exact; literals with a
// fractional part or an exponent that does not fit become floats.
type Number struct {
	IsInt bool
	Int   uint64
	Num   float64
}

// Float returns the numeric value as a float regardless of representation.
func (n Number) Float() float64 {
	if n.IsInt {
		return float64(n.Int)
	}
	return n.Num
}

var errNaN = errors.New("value is not a number")

// ParseNumber parses an Orchid numeric literal: an optional radix prefix
// (0x, 0o, 0b), digits with optional underscores, an optional fraction after
// ".", and an optional exponent after "p" which scales by the radix.
func ParseNumber(s string) (Number, error) {
	radix, body := 10, s
	switch {
	case strings.HasPrefix(s, "0x"):
		radix, body = 16, s[2:]
	case strings.HasPrefix(s, "0o"):
		radix, body = 8, s[2:]
	case strings.HasPrefix(s, "0b"):
		radix, body = 2, s[2:]
	}
	base, exp := body, 0
	if i := strings.IndexAny(body, "pP"); i >= 0 {
		base = body[:i]
		e, err := parseInt(body[i+1:], 10)
		if err != nil {
			return Number{}, fmt.Errorf("bad exponent: %v", err)
		}
		exp = int(e.value)
		if e.negative {
			exp = -exp
		}
	}
	whole, frac, hasFrac := strings.Cut(base, ".")
	wholeN, err := parseInt(whole, radix)
	if err != nil || wholeN.negative {
		return Number{}, fmt.Errorf("bad digits: %v", orInvalid(err))
	}
	if !hasFrac {
		// A non-negative exponent keeps the value integral while it fits.
		if exp >= 0 {
			v, ok := scaleInt(wholeN.value, radix, exp)
			if ok {
				return Number{IsInt: true, Int: v}, nil
			}
		}
		return mkFloat(float64(wholeN.value) * math.Pow(float64(radix), float64(exp)))
	}
	fracN, err := parseInt(frac, radix)
	if err != nil || fracN.negative {
		return Number{}, fmt.Errorf("bad fraction: %v", orInvalid(err))
	}
	val := float64(wholeN.value) +
		float64(fracN.value)/math.Pow(float64(radix), float64(len(strings.ReplaceAll(frac, "_", ""))))
	return mkFloat(val * math.Pow(float64(radix), float64(exp)))
}

func mkFloat(v float64) (Number, error) {
	if math.IsNaN(v) {
		return Number{}, errNaN
	}
	return Number{Num: v}, nil
}

func orInvalid(err error) error {
	if err == nil {
		return errors.New("invalid digit")
	}
	return err
}

type parsedInt struct {
	value    uint64
	negative bool
}

func parseInt(s string, radix int) (parsedInt, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.ReplaceAll(strings.TrimPrefix(s, "-"), "_", "")
	if s == "" {
		return parsedInt{}, errors.New("empty digits")
	}
	v, err := strconv.ParseUint(s, radix, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return parsedInt{}, errors.New("overflow")
		}
		return parsedInt{}, errors.New("invalid digit")
	}
	return parsedInt{value: v, negative: neg}, nil
}

// scaleInt computes v * radix^exp in uint64, reporting false on overflow.
func scaleInt(v uint64, radix, exp int) (uint64, bool) {
	for ; exp > 0; exp-- {
		next := v * uint64(radix)
		if v != 0 && next/uint64(radix) != v {
			return 0, false
		}
		v = next
	}
	return v, true
}
