package providers

import (
	"fmt"
	"nonomi/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors
	}

	// relay urls are only required when the relay is switched on
	if c.conf.Agent.Enabled && !validate.IsFullURL(c.conf.Agent.Url) {
		return fmt.Errorf("agent.url must be a full url when the agent is enabled, got %q", c.conf.Agent.Url)
	}
	if c.conf.Transcribe.Enabled && !validate.IsFullURL(c.conf.Transcribe.Url) {
		return fmt.Errorf("transcribe.url must be a full url when transcription is enabled, got %q", c.conf.Transcribe.Url)
	}
	return nil
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}
