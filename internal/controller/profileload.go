package controller

import (
	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/profile"
)

// loadProfilePath implements LoadProfilePath: clear the current profile
// before attempting to parse the new one, so a failed load leaves no
// profile active rather than silently keeping the old one (spec.md §7,
// §8.3). Emitted-mapping and intercept bookkeeping reset with it, since
// both are meaningless against a profile they were never computed
// against. The intercept activation chord resets to the controller's
// default for the same reason; if the new profile names its own chord, it
// is reapplied once the load succeeds.
func (c *Controller) loadProfilePath(path string) error {
	c.profile = nil
	c.profileName = ""
	c.emittedMappings = make(map[string]struct{})

	defaultCaps, defaultTarget := defaultInterceptActivation()
	c.interceptActivationCaps = defaultCaps
	c.interceptModeTargetCap = defaultTarget
	c.interceptActiveInputs = capability.NewSet()

	dp, err := profile.LoadFile(path)
	if err != nil {
		return err
	}

	c.profile = dp
	c.profileName = dp.Name

	if len(dp.InterceptActivationCaps) > 0 {
		c.interceptActivationCaps = dp.InterceptActivationCaps
		c.interceptModeTargetCap = dp.InterceptModeTargetCap
	}

	log.Infof("controller %s: loaded profile %q from %s", c.name, dp.Name, path)
	return nil
}
