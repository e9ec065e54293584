package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// Pricing is the USD list price per 1M text tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

var listPrices = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-2.5-pro":        {InputPerM: 1.25, OutputPerM: 10.00},
	"gpt-4o":                {InputPerM: 2.50, OutputPerM: 10.00},
	"gpt-4o-mini":           {InputPerM: 0.15, OutputPerM: 0.60},
	"gpt-4.1-mini":          {InputPerM: 0.40, OutputPerM: 1.60},
}

// PricingFor looks a model up by name, ignoring case and a "provider/" prefix.
// Unknown models are free.
func PricingFor(name string) Pricing {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return listPrices[name]
}

// Cost is the USD spend of one or more model calls.
type Cost struct {
	Input  float64 `json:"input_cost"`
	Output float64 `json:"output_cost"`
}

func (c Cost) Total() float64 {
	return c.Input + c.Output
}

func (c Cost) Add(o Cost) Cost {
	return Cost{Input: c.Input + o.Input, Output: c.Output + o.Output}
}

func (c Cost) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("input_usd", c.Input).
		Float64("output_usd", c.Output).
		Float64("total_usd", c.Total())
}

// Of prices the token usage reported on a model reply.
func (p Pricing) Of(usage *schema.TokenUsage) Cost {
	if usage == nil {
		return Cost{}
	}
	return Cost{
		Input:  p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0,
		Output: p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0,
	}
}
