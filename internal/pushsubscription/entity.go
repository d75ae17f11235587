// Package pushsubscription stores the web-push endpoints of board clients.
// The notification dispatcher fans owner-assignment events out to every
// subscription recorded here.
package pushsubscription

import "time"

// Subscription is one browser push endpoint with its encryption keys, as
// delivered by the client's PushManager registration.
type Subscription struct {
	ID        string    `yaml:"id"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	CreatedAt time.Time `yaml:"created_at"`
}
