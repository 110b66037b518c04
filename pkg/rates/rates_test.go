package rates

import (
	"math"
	"testing"
)

func TestCostKnownModel(t *testing.T) {
	cost := Cost("gpt-4o", 1000, 1000)
	if cost != 0.005+0.015 {
		t.Errorf("gpt-4o: got %f", cost)
	}
}

func TestCostUnknownModelFallback(t *testing.T) {
	cost := Cost("unknown-model", 1000, 1000)
	if cost != 0.008 {
		t.Errorf("fallback: got %f", cost)
	}
}

func TestCostGeminiFlash(t *testing.T) {
	cost := Cost("gemini-1.5-flash", 10000, 10000)
	if math.Abs(cost-0.00375) > 1e-10 {
		t.Errorf("gemini-1.5-flash: got %f", cost)
	}
}

func TestCostZeroTokens(t *testing.T) {
	if cost := Cost("gpt-4o", 0, 0); cost != 0 {
		t.Errorf("expected zero cost, got %f", cost)
	}
}
