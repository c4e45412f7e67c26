//go:build linux

package notify

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
)

const (
	busName  = "org.freedesktop.Notifications"
	busPath  = "/org/freedesktop/Notifications"
	appName  = "Soundwave"
	expireMS = int32(5000)
)

var bodyEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Bus sends announcements to the notification server of the session bus.
type Bus struct {
	obj dbus.BusObject
}

// Dial connects to the session bus.
func Dial() (Sender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect session bus")
	}
	return &Bus{obj: conn.Object(busName, busPath)}, nil
}

// Send implements Sender.
func (b *Bus) Send(a Announcement) (uint32, error) {
	call := b.obj.Call(busName+".Notify", 0,
		appName,
		a.Replaces,
		a.Icon,
		a.Summary,
		bodyEscaper.Replace(a.Body),
		[]string{}, // no actions
		announcementHints(),
		expireMS,
	)
	if call.Err != nil {
		return 0, errors.Wrapf(call.Err, "announce track %s", a.TrackID)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, errors.Wrap(err, "read notification id")
	}
	return id, nil
}

// announcementHints marks track announcements low urgency and keeps them out
// of the server's history.
func announcementHints() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(0)),
		"transient":     dbus.MakeVariant(true),
		"desktop-entry": dbus.MakeVariant("soundwave"),
	}
}
