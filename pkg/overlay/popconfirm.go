package overlay

import (
	"github.com/cohis-dev/cohis/pkg/dismiss"
	"github.com/cohis-dev/cohis/pkg/placement"
)

// PopconfirmConfig configures a Popconfirm. Empty texts, side and offsets
// take the defaults.
type PopconfirmConfig struct {
	ID         string
	AnchorID   string
	FloatingID string
	Title      string
	OKText     string
	CancelText string
	Side       placement.Side
	Offsets    placement.Offsets

	// Dismissible controls outside-pointer dismissal. Nil means true.
	Dismissible *bool

	OnConfirm func()
	OnCancel  func()
}

// Popconfirm is a click-driven confirmation bubble anchored to a control.
type Popconfirm struct {
	floating
	ctrl       *dismiss.Controller
	title      string
	okText     string
	cancelText string
	onConfirm  func()
	onCancel   func()
}

// AddPopconfirm registers a popconfirm with the layer.
func (l *Layer) AddPopconfirm(cfg PopconfirmConfig) (*Popconfirm, error) {
	side := cfg.Side
	if side == "" {
		side = l.config.PopconfirmSide
	}
	off := cfg.Offsets
	if off == (placement.Offsets{}) {
		off = l.config.PopconfirmOffsets
	}
	p := &Popconfirm{
		floating:   newFloating(l, KindPopconfirm, cfg.ID, cfg.AnchorID, cfg.FloatingID, side, off),
		title:      orDefault(cfg.Title, "Are you sure?"),
		okText:     orDefault(cfg.OKText, "Yes"),
		cancelText: orDefault(cfg.CancelText, "No"),
		onConfirm:  cfg.OnConfirm,
		onCancel:   cfg.OnCancel,
	}
	dismissible := true
	if cfg.Dismissible != nil {
		dismissible = *cfg.Dismissible
	}
	p.ctrl = dismiss.New(l.doc, cfg.AnchorID, cfg.FloatingID,
		dismiss.WithDismissible(dismissible),
		dismiss.WithOnChange(p.changed),
	)
	if err := l.register(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Title returns the question shown in the bubble.
func (p *Popconfirm) Title() string { return p.title }

// OKText returns the confirm button label.
func (p *Popconfirm) OKText() string { return p.okText }

// CancelText returns the cancel button label.
func (p *Popconfirm) CancelText() string { return p.cancelText }

// IsOpen reports whether the bubble is open.
func (p *Popconfirm) IsOpen() bool { return p.ctrl.IsOpen() }

// Listening reports whether an outside-pointer listener is registered.
func (p *Popconfirm) Listening() bool { return p.ctrl.Listening() }

// Activate toggles the bubble, as a click on the anchor does.
func (p *Popconfirm) Activate() { p.ctrl.Activate() }

// Open opens the bubble.
func (p *Popconfirm) Open() { p.ctrl.Open() }

// Close closes the bubble without running callbacks.
func (p *Popconfirm) Close() { p.ctrl.Close() }

// Confirm closes the bubble and runs OnConfirm.
func (p *Popconfirm) Confirm() { p.ctrl.Confirm() }

// Cancel closes the bubble and runs OnCancel.
func (p *Popconfirm) Cancel() { p.ctrl.Cancel() }

// SetDismissible toggles outside-pointer dismissal.
func (p *Popconfirm) SetDismissible(dismissible bool) { p.ctrl.SetDismissible(dismissible) }

func (p *Popconfirm) changed(s dismiss.State, r dismiss.Reason) {
	if r == dismiss.ReasonUnmount {
		return
	}
	if s == dismiss.Open {
		p.opened()
		return
	}
	p.publish(p.closed())
	switch r {
	case dismiss.ReasonConfirm:
		if p.onConfirm != nil {
			p.onConfirm()
		}
	case dismiss.ReasonCancel:
		if p.onCancel != nil {
			p.onCancel()
		}
	}
}

func (p *Popconfirm) refresh() {
	if p.ctrl.IsOpen() {
		p.reposition()
	}
}

func (p *Popconfirm) unmount() {
	p.ctrl.Unmount()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
