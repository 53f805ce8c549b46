package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"gowheel/metrics"
)

const campaignFetchTimeout = 30 * time.Second

// startJobs schedules the campaign refresh and the MQTT ping.
func (app *App) startJobs() error {
	c := cron.New()
	if _, err := c.AddFunc(app.cfg.Campaign.Refresh, func() { app.refreshCampaign("cron") }); err != nil {
		return fmt.Errorf("schedule campaign refresh: %w", err)
	}
	if _, err := c.AddFunc(app.cfg.PingSchedule, app.sendPing); err != nil {
		return fmt.Errorf("schedule ping: %w", err)
	}
	c.Start()
	app.cron = c
	return nil
}

// refreshCampaign downloads the segment list. trigger names what asked for
// it in logs and metrics.
func (app *App) refreshCampaign(trigger string) {
	ctx, cancel := context.WithTimeout(app.ctx, campaignFetchTimeout)
	defer cancel()

	err := app.campaign.FetchFromAPI(ctx)
	metrics.CampaignReloaded(trigger, len(app.campaign.Snapshot().Segments), err)
	if err != nil {
		log.Printf("Campaign: %s refresh failed: %v", trigger, err)
	}
}

func (app *App) sendPing() {
	if app.status == nil {
		return
	}
	err := app.status.PublishJSON(app.topics.Ping(), map[string]any{
		"status":   "ok",
		"build":    myBuild,
		"spinning": app.busy.Load(),
		"campaign": app.campaign.Snapshot().Version,
	})
	if err != nil {
		log.Printf("MQTT: %v", err)
	}
}
