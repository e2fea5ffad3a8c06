package steelsim_test

import (
	"testing"

	"github.com/db47h/steelsim"
)

func TestClock(t *testing.T) {
	for _, half := range []uint64{1, 2, 5, 16} {
		c := steelsim.NewClock(half)
		var rising, edges int
		for tick := uint64(0); tick < 40*half; tick++ {
			if c.Edge() {
				edges++
				if c.Level() {
					if want := uint64(rising) * 2 * half; c.Time() != want {
						t.Fatalf("half=%d: rising edge #%d at %d, expected %d", half, rising, c.Time(), want)
					}
					rising++
				} else if c.Time()%(2*half) != half {
					t.Fatalf("half=%d: falling edge at %d", half, c.Time())
				}
			}
			c.Advance()
			if tick%(2*half) == 2*half-1 {
				// floor(t / 2h) with t the elapsed ticks
				if want := (tick + 1) / (2 * half); c.Cycles() != want {
					t.Fatalf("half=%d: %d cycles after %d ticks, expected %d", half, c.Cycles(), tick+1, want)
				}
			}
		}
		if rising != 20 || edges != 40 || c.Cycles() != 20 {
			t.Errorf("half=%d: %d rising edges, %d edges, %d cycles", half, rising, edges, c.Cycles())
		}
	}
}

func TestNewClock_zero(t *testing.T) {
	c := steelsim.NewClock(0)
	if c.HalfPeriod() != 1 {
		t.Fatalf("expected half period 1, got %d", c.HalfPeriod())
	}
}

func TestConfig(t *testing.T) {
	cfg := steelsim.DefaultConfig()
	if cfg.MaxCycles != 500000 || cfg.FinishAddr != 0x1000 || cfg.HostOutAddr != 0 || cfg.HalfPeriod != 2 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	for _, d := range []struct{ ns, half uint64 }{{10, 5}, {2, 1}, {1, 1}, {0, 1}, {7, 3}} {
		cfg.SetFrequencyNS(d.ns)
		if cfg.HalfPeriod != d.half {
			t.Errorf("SetFrequencyNS(%d): half period %d, expected %d", d.ns, cfg.HalfPeriod, d.half)
		}
	}
	cfg.HalfPeriod = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero half period")
	}
	cfg.HalfPeriod = 1
	cfg.ImageFormat = 42
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad image format")
	}
}
