package overlay

import "github.com/cohis-dev/cohis/pkg/placement"

// Config holds widget defaults applied when a widget config leaves a field
// unset.
type Config struct {
	TooltipSide    placement.Side
	TooltipOffsets placement.Offsets

	PopconfirmSide    placement.Side
	PopconfirmOffsets placement.Offsets

	DrawerSide   placement.Side
	DrawerExtent float64
}

// DefaultConfig returns the stock widget defaults.
func DefaultConfig() Config {
	return Config{
		TooltipSide:       placement.SideTop,
		TooltipOffsets:    placement.Offsets{Gap: 5},
		PopconfirmSide:    placement.SideLeft,
		PopconfirmOffsets: placement.Offsets{Gap: 5, ArrowLength: 10},
		DrawerSide:        placement.SideLeft,
		DrawerExtent:      300,
	}
}

func (c *Config) fill() {
	d := DefaultConfig()
	if c.TooltipSide == "" {
		c.TooltipSide = d.TooltipSide
	}
	if c.TooltipOffsets == (placement.Offsets{}) {
		c.TooltipOffsets = d.TooltipOffsets
	}
	if c.PopconfirmSide == "" {
		c.PopconfirmSide = d.PopconfirmSide
	}
	if c.PopconfirmOffsets == (placement.Offsets{}) {
		c.PopconfirmOffsets = d.PopconfirmOffsets
	}
	if c.DrawerSide == "" {
		c.DrawerSide = d.DrawerSide
	}
	if c.DrawerExtent <= 0 {
		c.DrawerExtent = d.DrawerExtent
	}
}
