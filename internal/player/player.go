package player

import (
	"github.com/Nixie-Tech-LLC/signage/internal/client"
	"github.com/Nixie-Tech-LLC/signage/internal/config"
	"github.com/Nixie-Tech-LLC/signage/internal/supervisor"
)

// Player bundles the three loops of a screen.
type Player struct {
	Playback    *Playback
	Refresher   *Refresher
	Heartbeater *Heartbeater

	heartbeatEvery *supervisor.TickerService
}

func New(cfg config.Config, api *client.Client, cache Localizer, renderer Renderer) *Player {
	p := &Player{}
	p.Refresher = NewRefresher(api, cache, nil, cfg.PollInterval, cfg.DownloadWorkers)
	p.Playback = NewPlayback(renderer, cfg.NoContentRetry, p.Refresher.Trigger)
	p.Refresher.sink = p.Playback.Submit
	p.Heartbeater = NewHeartbeater(api, cfg.Name, cfg.Location, p.Refresher.Trigger)
	p.heartbeatEvery = supervisor.NewTickerService("heartbeat", cfg.HeartbeatInterval, p.Heartbeater.Beat)
	return p
}

// RequestRefresh fetches the playlist now instead of at the next poll.
func (p *Player) RequestRefresh() {
	p.Refresher.Trigger()
}

// Mount adds the loops to tree. Playback and the network loops are separate
// services, so a slow download or a restart never stalls the other.
func (p *Player) Mount(tree *supervisor.Tree) {
	tree.AddAPIService(p.Playback)
	tree.AddBackgroundService(p.Refresher)
	tree.AddBackgroundService(p.heartbeatEvery)
}
