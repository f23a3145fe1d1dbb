// README: Device positions read from Firebase RTDB under /device_locations, published by workers' phones.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"

	"crewtrack/internal/types"
)

var (
	ErrNoDevicePosition    = errors.New("no device position published")
	ErrStaleDevicePosition = errors.New("device position is stale")
)

// rtdbDeviceEntry mirrors a single entry stored under /device_locations/{employeeId}.
type rtdbDeviceEntry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"` // unix ms, written by the device
}

type deviceRef interface {
	Get(ctx context.Context, path string, v interface{}) error
}

type rtdbRef struct {
	client *db.Client
}

func (r rtdbRef) Get(ctx context.Context, path string, v interface{}) error {
	return r.client.NewRef(path).Get(ctx, v)
}

// DevicePositions is the geolocation provider for check-ins.
type DevicePositions struct {
	ref    deviceRef
	maxAge time.Duration
	now    func() time.Time
}

func NewDevicePositions(ctx context.Context, app *firebase.App, maxAge time.Duration) (*DevicePositions, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase RTDB client: %w", err)
	}
	return &DevicePositions{ref: rtdbRef{client: client}, maxAge: maxAge, now: time.Now}, nil
}

// CurrentPosition returns the employee's last published position if it is
// younger than maxAge. The caller bounds the wait through ctx.
func (d *DevicePositions) CurrentPosition(ctx context.Context, employeeID types.ID) (types.Point, error) {
	var entry rtdbDeviceEntry
	if err := d.ref.Get(ctx, "device_locations/"+string(employeeID), &entry); err != nil {
		return types.Point{}, fmt.Errorf("reading device position: %w", err)
	}
	if entry.Timestamp == 0 {
		return types.Point{}, ErrNoDevicePosition
	}
	if d.maxAge > 0 && d.now().Sub(time.UnixMilli(entry.Timestamp)) > d.maxAge {
		return types.Point{}, ErrStaleDevicePosition
	}
	return types.Point{Lat: entry.Lat, Lng: entry.Lng}, nil
}
