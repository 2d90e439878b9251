package deploy

import (
	"log/slog"
	"time"

	"code.cloudfoundry.org/clock"
)

type WithStateDir string

func (d WithStateDir) ApplyToMountConfig(c *MountConfig) {
	c.StateDir = string(d)
}

type WithTempRoot string

func (r WithTempRoot) ApplyToMountConfig(c *MountConfig) {
	c.TempRoot = string(r)
}

type WithInterval time.Duration

func (i WithInterval) ApplyToMountConfig(c *MountConfig) {
	c.Interval = time.Duration(i)
}

type WithTimeout time.Duration

func (t WithTimeout) ApplyToMountConfig(c *MountConfig) {
	c.Timeout = time.Duration(t)
}

type WithClock struct{ clock.Clock }

func (cl WithClock) ApplyToMountConfig(c *MountConfig) {
	c.Clock = cl.Clock
}

type WithStartFunc StartFunc

func (fn WithStartFunc) ApplyToMountConfig(c *MountConfig) {
	c.Start = StartFunc(fn)
}

type WithProbeFunc ProbeFunc

func (fn WithProbeFunc) ApplyToMountConfig(c *MountConfig) {
	c.Probe = ProbeFunc(fn)
}

type WithLogger struct{ *slog.Logger }

func (l WithLogger) ApplyToDeployer(d *Deployer) {
	d.logger = l.Logger
}

type WithNixFile string

func (f WithNixFile) ApplyToDeployer(d *Deployer) {
	d.nixFile = string(f)
}
