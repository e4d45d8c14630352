package player

import (
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const mprisPrefix = "org.mpris.MediaPlayer2."

// ScrollOffset maps a playback position onto the page: the start of the
// track is offset 0, the end is total.
func ScrollOffset(position time.Duration, length time.Duration, total float64) float64 {
	if length <= 0 || total <= 0 {
		return 0
	}

	progress := float64(position) / float64(length)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return progress * total
}

// ListPlayers returns the MPRIS services currently on the bus.
func ListPlayers(bus *dbus.Conn) ([]string, error) {
	var names []string
	err := bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, fmt.Errorf("failed to list dbus names: %w", err)
	}

	var services []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			services = append(services, name)
		}
	}
	return services, nil
}

func Identity(bus *dbus.Conn, service string) string {
	variant, err := bus.Object(service, mprisPath).GetProperty("org.mpris.MediaPlayer2.Identity")
	if err != nil {
		return ""
	}

	identity, _ := variant.Value().(string)
	return identity
}
