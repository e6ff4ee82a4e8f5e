package scheduler

import (
	"github.com/coreos/go-systemd/v22/daemon"

	logx "croner/pkg/logx"
)

// Notifier receives service state changes ("READY=1", "RELOADING=1",
// "STATUS=...").
type Notifier interface {
	Notify(state string)
}

type NotifierFunc func(state string)

func (f NotifierFunc) Notify(state string) { f(state) }

// SystemdNotifier forwards states to systemd via sd_notify. Outside a
// Type=notify unit NOTIFY_SOCKET is unset and every call is a no-op.
type SystemdNotifier struct {
	Log logx.Logger
}

func (n SystemdNotifier) Notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil && !n.Log.IsZero() {
		n.Log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent && !n.Log.IsZero() {
		n.Log.Trace("sd_notify sent", logx.String("state", state))
	}
}
