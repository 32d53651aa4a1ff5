package dispatch

import (
	"nonomi/internal/dispatch/interfaces"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"sync"
)

const (
	EffectWidget         = "widget"
	EffectCaption        = "caption"
	EffectAudio          = "audio"
	EffectWebSurfaceShow = "web_surface_show"
	EffectWebSurfaceHide = "web_surface_hide"
	EffectTransferShow   = "transfer_show"
	EffectTransferHide   = "transfer_hide"
)

// ActionDispatcher maps each accepted status record to its side effects.
type ActionDispatcher struct {
	policy   *Policy
	audio    interfaces.AudioPlayer
	widget   interfaces.WidgetRenderer
	caption  interfaces.CaptionDisplay
	web      interfaces.WebSurface
	transfer interfaces.TransferUI
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface

	mu sync.Mutex
}

func NewActionDispatcher(
	policy *Policy,
	audio interfaces.AudioPlayer,
	widget interfaces.WidgetRenderer,
	caption interfaces.CaptionDisplay,
	web interfaces.WebSurface,
	transfer interfaces.TransferUI,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) interfaces.DispatcherInterface {
	return &ActionDispatcher{
		policy:   policy,
		audio:    audio,
		widget:   widget,
		caption:  caption,
		web:      web,
		transfer: transfer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handle is meant to be registered with the poller's OnUpdate. A failing
// collaborator is logged and the remaining effects still run.
func (d *ActionDispatcher) Handle(rec *models.StatusRecord) {
	if rec == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rule := d.policy.RuleFor(rec.Action)
	if rec.Action != models.ActionNone && !rec.Action.Known() {
		d.logger.Debugf(providers.TypeDispatch, "Unknown action %q, using fallback rule", rec.Action)
	}

	d.run(EffectWidget, func() error { return d.widget.Render(rec.HTML, rec.Width, rec.Height) })
	d.run(EffectCaption, func() error { return d.caption.Show(rec.DanmuText) })

	if rule.PlayVoice && rec.HasVoice() {
		d.run(EffectAudio, func() error { return d.audio.Play(rec.Voice) })
	}

	if rule.ShowWebSurface {
		d.run(EffectWebSurfaceShow, func() error { return d.web.Show(rec.Value) })
	} else {
		d.run(EffectWebSurfaceHide, d.web.Hide)
	}

	if rule.ShowTransfer {
		d.run(EffectTransferShow, func() error { return d.transfer.Show(rule.Chain) })
	} else {
		d.run(EffectTransferHide, d.transfer.Hide)
	}
}

func (d *ActionDispatcher) run(effect string, fn func() error) {
	if err := fn(); err != nil {
		d.metrics.IncDispatchEffect(effect + "_failed")
		d.logger.Errorf(providers.TypeDispatch, "Effect %s failed: %s", effect, err)
		return
	}
	d.metrics.IncDispatchEffect(effect)
}
