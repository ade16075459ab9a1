package events

import (
	intercom "gopkg.in/intercom/intercom-go.v2"
)

// IntercomConfig holds configuration for the intercom notifier.
type IntercomConfig struct {
	AccessToken string `env:"JOBSWIPE_INTERCOM_ACCESS_TOKEN"`
}

type intercomNotifier struct {
	ic *intercom.Client
}

// NewIntercomNotifier ships application events to Intercom as user events.
func NewIntercomNotifier(conf IntercomConfig) Notifier {
	return &intercomNotifier{
		ic: intercom.NewClient(conf.AccessToken, ""),
	}
}

func (n *intercomNotifier) Notify(event Event) error {
	metadata := map[string]interface{}{"entry_id": event.EntryID}
	for k, v := range event.Metadata {
		metadata[k] = v
	}
	icEvent := intercom.Event{
		UserID:    event.UserID,
		EventName: event.EventName,
		CreatedAt: event.CreatedAt.Unix(),
		Metadata:  metadata,
	}
	return n.ic.Events.Save(&icEvent)
}
