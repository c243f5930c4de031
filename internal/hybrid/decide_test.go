package hybrid

import (
	"testing"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name       string
		local      intent.Label
		confidence float64
		remote     intent.Label
		want       intent.Label
		source     string
	}{
		{"confident local wins", intent.Pricing, 0.8, intent.Usage, intent.Pricing, SourceLocal},
		{"mid band agreement", intent.Pricing, 0.6, intent.Pricing, intent.Pricing, SourceConsensus},
		{"mid band disagreement", intent.Pricing, 0.6, intent.Usage, intent.Usage, SourceRemote},
		{"low confidence", intent.Pricing, 0.2, intent.Account, intent.Account, SourceRemote},
		{"low confidence agreement", intent.Pricing, 0.2, intent.Pricing, intent.Pricing, SourceRemote},
		{"exactly 0.7 is not trusted", intent.Pricing, 0.7, intent.Usage, intent.Usage, SourceRemote},
		{"exactly 0.7 with agreement", intent.Pricing, 0.7, intent.Pricing, intent.Pricing, SourceConsensus},
		{"exactly 0.5 is not consensus", intent.Pricing, 0.5, intent.Pricing, intent.Pricing, SourceRemote},
		{"no local model", "", 0, intent.Greeting, intent.Greeting, SourceRemote},
		{"rule one looks at confidence only", intent.Other, 0.9, intent.Pricing, intent.Other, SourceLocal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Decide(c.local, c.confidence, c.remote)
			if d.Intent != c.want || d.Source != c.source {
				t.Fatalf("got (%s, %s), want (%s, %s)", d.Intent, d.Source, c.want, c.source)
			}
			if d.LocalIntent != c.local || d.LocalConfidence != c.confidence || d.RemoteIntent != c.remote {
				t.Fatalf("signals not surfaced: %+v", d)
			}
		})
	}
}
