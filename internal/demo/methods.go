package demo

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/mnehpets/rpcschema/jsonrpc"
)

// Summary is the result of stats.summarize.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func summarize(_ context.Context, values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, jsonrpc.NewInvalidParamsError("at least one value is required")
	}
	s := Summary{Count: len(values), Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		s.Sum += v
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
	}
	s.Mean = s.Sum / float64(s.Count)
	return s, nil
}

// Strings exposes string helpers through jsonrpc.Receiver.
type Strings struct{}

type UpperParams struct {
	_ struct{} `jsonrpc:"upper"`
	S string   `json:"s"`
}

func (Strings) Upper(_ context.Context, p UpperParams) (string, error) {
	return strings.ToUpper(p.S), nil
}

type SplitParams struct {
	_   struct{} `jsonrpc:"split"`
	S   string   `json:"s"`
	Sep string   `json:"sep"`
}

func (Strings) Split(_ context.Context, p SplitParams) ([]string, error) {
	if p.Sep == "" {
		return nil, jsonrpc.NewInvalidParamsError("sep must not be empty")
	}
	return strings.Split(p.S, p.Sep), nil
}

type ReverseParams struct {
	_ struct{} `jsonrpc:"reverse"`
	S string   `json:"s"`
}

func (Strings) Reverse(_ context.Context, p ReverseParams) (string, error) {
	r := []rune(p.S)
	slices.Reverse(r)
	return string(r), nil
}
