package overlay

import "github.com/cohis-dev/cohis/pkg/placement"

// TooltipConfig configures a Tooltip. Zero Side and Offsets take the layer
// defaults.
type TooltipConfig struct {
	ID         string
	AnchorID   string
	FloatingID string
	Content    string
	Side       placement.Side
	Offsets    placement.Offsets
}

// Tooltip is a hover-driven floating label. It opens while the pointer is
// over its anchor and is never dismissed by outside pointer events.
type Tooltip struct {
	floating
	content   string
	open      bool
	unmounted bool
}

// AddTooltip registers a tooltip with the layer.
func (l *Layer) AddTooltip(cfg TooltipConfig) (*Tooltip, error) {
	side := cfg.Side
	if side == "" {
		side = l.config.TooltipSide
	}
	off := cfg.Offsets
	if off == (placement.Offsets{}) {
		off = l.config.TooltipOffsets
	}
	t := &Tooltip{
		floating: newFloating(l, KindTooltip, cfg.ID, cfg.AnchorID, cfg.FloatingID, side, off),
		content:  cfg.Content,
	}
	if err := l.register(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Content returns the tooltip text.
func (t *Tooltip) Content() string { return t.content }

// IsOpen reports whether the tooltip is showing or waiting to be measured.
func (t *Tooltip) IsOpen() bool { return t.open }

// Enter opens the tooltip.
func (t *Tooltip) Enter() {
	if t.unmounted || t.open {
		return
	}
	t.open = true
	t.opened()
}

// Leave closes the tooltip.
func (t *Tooltip) Leave() {
	if t.unmounted || !t.open {
		return
	}
	t.open = false
	t.publish(t.closed())
}

func (t *Tooltip) refresh() {
	if t.open {
		t.reposition()
	}
}

func (t *Tooltip) unmount() {
	t.open = false
	t.unmounted = true
}
