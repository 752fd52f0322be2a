package main

import (
	"log/slog"

	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/server"
)

// dashboardPage builds the floating widgets of the dashboard shell: the
// mobile navigation drawer, the user access confirmations and the pipeline
// check tooltips. Element IDs match the dashboard markup.
func dashboardPage(logger *slog.Logger) server.Page {
	return func(l *overlay.Layer) error {
		if _, err := l.AddDrawer(overlay.DrawerConfig{
			ID:       "mobile-nav",
			AnchorID: "mobile-nav-toggle",
			PanelID:  "mobile-nav-panel",
			Title:    "COHIS",
		}); err != nil {
			return err
		}

		for _, pc := range []struct {
			id, title, action string
		}{
			{"disable-user", "This user will be denied access", "disable"},
			{"enable-user", "This user will be enabled", "enable"},
		} {
			action := pc.action
			if _, err := l.AddPopconfirm(overlay.PopconfirmConfig{
				ID:         pc.id,
				AnchorID:   pc.id + "-btn",
				FloatingID: pc.id + "-confirm",
				Title:      pc.title,
				OKText:     "Confirm",
				CancelText: "Cancel",
				OnConfirm:  func() { logger.Info("user access change confirmed", "action", action) },
			}); err != nil {
				return err
			}
		}

		for _, tt := range []struct {
			id, content string
		}{
			{"check-passed", "All data checks passed"},
			{"check-failed", "One or more data checks failed"},
		} {
			if _, err := l.AddTooltip(overlay.TooltipConfig{
				ID:         tt.id,
				AnchorID:   tt.id + "-icon",
				FloatingID: tt.id + "-tip",
				Content:    tt.content,
			}); err != nil {
				return err
			}
		}
		return nil
	}
}
