package notification

import (
	"fmt"
	"strings"
)

// Kind is the delivery medium of a rendered message.
type Kind string

// Supported channel kinds.
const (
	KindChat  Kind = "chat"
	KindEmail Kind = "email"
	KindSMS   Kind = "sms"
	KindPush  Kind = "push"
)

// Kinds lists every supported kind in rendering order.
var Kinds = []Kind{KindChat, KindEmail, KindSMS, KindPush}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindChat, KindEmail, KindSMS, KindPush:
		return true
	}
	return false
}

// Channel is a parsed channel identifier such as "email" or "sms/test".
// Transport is the optional sub-provider name after the slash.
type Channel struct {
	Kind      Kind
	Transport string
}

// ParseChannel splits a channel identifier into its kind and transport name.
func ParseChannel(id string) (Channel, error) {
	id = strings.TrimSpace(id)
	kind, transport, _ := strings.Cut(id, "/")
	c := Channel{Kind: Kind(strings.ToLower(kind)), Transport: transport}
	if !c.Kind.Valid() {
		return Channel{}, fmt.Errorf("unknown channel kind %q in %q", kind, id)
	}
	return c, nil
}

// String returns the canonical identifier.
func (c Channel) String() string {
	if c.Transport == "" {
		return string(c.Kind)
	}
	return string(c.Kind) + "/" + c.Transport
}
