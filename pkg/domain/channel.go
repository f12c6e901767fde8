package domain

import "fmt"

// Channel is the delivery channel a subscriber receives messages on.
// Invariant: the value must be one of the supported channels.
//
// Usage: construct via ParseChannel when reading record data; direct casting
// bypasses validation.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

var validChannels = map[Channel]bool{
	ChannelSMS:      true,
	ChannelWhatsApp: true,
}

// ParseChannel constructs a Channel from external input.
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported channel %q", s)
	}
	return c, nil
}

// IsValid reports whether the channel is in the allowlist.
func (c Channel) IsValid() bool {
	return validChannels[c]
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	return string(c)
}

// MessagesetPrefix is prepended to a catalog short name for this channel.
func (c Channel) MessagesetPrefix() string {
	if c == ChannelWhatsApp {
		return "whatsapp_"
	}
	return ""
}
