package handlers

import (
	"time"

	"github.com/pocketbase/pocketbase"
	"golang.org/x/sync/singleflight"

	"boqwizard/config"
	"boqwizard/services"
)

// Deps carries what the wizard handlers need besides the request.
type Deps struct {
	App       *pocketbase.PocketBase
	Sessions  *services.SessionStore
	Rules     services.RuleTable
	Extractor services.Extractor
	Config    *config.Config
	Now       func() time.Time

	// uploads allows one in-flight extraction per session token.
	uploads singleflight.Group
}

// NewDeps wires the default rate card and the Gemini extractor from cfg.
func NewDeps(app *pocketbase.PocketBase, cfg *config.Config) *Deps {
	return &Deps{
		App:       app,
		Sessions:  services.NewSessionStore(app),
		Rules:     services.DefaultRules,
		Extractor: services.NewGeminiExtractor(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEndpoint, cfg.ExtractTimeout),
		Config:    cfg,
		Now:       time.Now,
	}
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}
