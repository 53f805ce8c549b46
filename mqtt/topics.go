package mqtt

import "fmt"

// Topics names the topics a kiosk uses.
type Topics struct {
	root     string
	clientID string
}

// NewTopics returns the topics for clientID under root ("arcade" if empty).
func NewTopics(root, clientID string) Topics {
	if root == "" {
		root = "arcade"
	}
	return Topics{root: root, clientID: clientID}
}

// CampaignUpdate is broadcast when any campaign changes.
func (t Topics) CampaignUpdate() string {
	return fmt.Sprintf("%s/control/broadcast/campaign/update", t.root)
}

// RemoteSpin carries signed remote spin requests for this kiosk.
func (t Topics) RemoteSpin() string {
	return t.node("control", "spin")
}

// SpinStatus receives the result of every spin.
func (t Topics) SpinStatus() string {
	return t.node("status", "spin")
}

// CampaignStatus receives campaign reload notices.
func (t Topics) CampaignStatus() string {
	return t.node("status", "campaign/update")
}

// Ping receives the periodic liveness message.
func (t Topics) Ping() string {
	return t.node("status", "ping")
}

func (t Topics) node(kind, leaf string) string {
	return fmt.Sprintf("%s/%s/node/%s/%s", t.root, kind, t.clientID, leaf)
}
