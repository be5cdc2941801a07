package mqtt

import (
	"time"

	"github.com/golang-io/requests"
)

// Will describes the optional last-will message sent in CONNECT.
type Will struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// ConnectProperties mirrors the CONNECT variable-header properties a
// caller can request; the server may override some of these in CONNACK
// (see Client.Connect).
type ConnectProperties struct {
	SessionExpiryInterval      uint32
	ReceiveMaximum             uint16
	MaximumPacketSize          uint32
	TopicAliasMaximum          uint16
	RequestResponseInformation bool
	RequestProblemInformation  bool
	AuthenticationMethod       string
	AuthenticationData         []byte
}

// ClientConfig is the full set of parameters a Client is built from, either
// via functional options or a parsed config file (see config.go).
type ClientConfig struct {
	URL               string // e.g. "mqtt://127.0.0.1:1883" or "ws://127.0.0.1:1883/mqtt"
	ClientID          string
	KeepAlive         time.Duration
	CleanStart        bool
	Username          string
	Password          []byte
	HasUsername       bool
	HasPassword       bool
	Will              *Will
	Connect           ConnectProperties
	DefaultPublishQoS byte
	DefaultRetain     bool
	// TopicFilterPrefix is prepended (with a "/" separator) to every
	// filter passed to Subscribe/Unsubscribe, unless it already starts
	// with the prefix. Defaults to ClientID: New replaces an empty prefix
	// with ClientID unless DisableTopicPrefix is set. No prefix is applied
	// while it is empty or DisableTopicPrefix is set.
	TopicFilterPrefix string
	DisableTopicPrefix bool

	AckTimeout time.Duration
	DialTimeout time.Duration

	Logger Logger
}

// Option mutates a ClientConfig being built by New.
type Option func(*ClientConfig)

// WithURL sets the broker URL ("mqtt://host:port" or "ws://host:port/path").
func WithURL(url string) Option { return func(c *ClientConfig) { c.URL = url } }

// WithClientID sets the client identifier. Without this option, New
// generates one via requests.GenId(); an empty id passed here is sent as-is.
func WithClientID(id string) Option { return func(c *ClientConfig) { c.ClientID = id } }

// WithKeepAlive sets the keep-alive interval; rounded to whole seconds on
// the wire. Zero disables keep-alive pings (not recommended).
func WithKeepAlive(d time.Duration) Option { return func(c *ClientConfig) { c.KeepAlive = d } }

// WithCleanStart sets the CONNECT clean-start flag.
func WithCleanStart(clean bool) Option { return func(c *ClientConfig) { c.CleanStart = clean } }

// WithCredentials sets the CONNECT username/password.
func WithCredentials(username string, password []byte) Option {
	return func(c *ClientConfig) {
		c.Username, c.HasUsername = username, true
		c.Password, c.HasPassword = password, true
	}
}

// WithWill sets the CONNECT last-will message.
func WithWill(w Will) Option { return func(c *ClientConfig) { c.Will = &w } }

// WithConnectProperties sets the CONNECT variable-header properties.
func WithConnectProperties(p ConnectProperties) Option {
	return func(c *ClientConfig) { c.Connect = p }
}

// WithDefaultPublish sets the QoS and retain flag Publish uses when the
// caller doesn't specify per-call overrides.
func WithDefaultPublish(qos byte, retain bool) Option {
	return func(c *ClientConfig) { c.DefaultPublishQoS, c.DefaultRetain = qos, retain }
}

// WithTopicFilterPrefix overrides the default (client-id) topic-filter
// prefix Subscribe/Unsubscribe apply.
func WithTopicFilterPrefix(prefix string) Option {
	return func(c *ClientConfig) { c.TopicFilterPrefix = prefix }
}

// WithoutTopicFilterPrefix disables the topic-filter prefixing convention
// entirely: Subscribe/Unsubscribe send filters unmodified.
func WithoutTopicFilterPrefix() Option {
	return func(c *ClientConfig) { c.DisableTopicPrefix = true }
}

// WithAckTimeout sets how long Publish/Subscribe/Unsubscribe wait for
// their matching acknowledgement before failing with ErrTimeout.
func WithAckTimeout(d time.Duration) Option { return func(c *ClientConfig) { c.AckTimeout = d } }

// WithLogger overrides the default stderr logger.
func WithLogger(l Logger) Option { return func(c *ClientConfig) { c.Logger = l } }

func newConfig(opts ...Option) ClientConfig {
	cfg := ClientConfig{
		URL:               "mqtt://127.0.0.1:1883",
		ClientID:          "mqtt-" + requests.GenId(),
		KeepAlive:         60 * time.Second,
		CleanStart:        true,
		DefaultPublishQoS: 0,
		AckTimeout:        10 * time.Second,
		DialTimeout:       10 * time.Second,
		Logger:            NewStdLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TopicFilterPrefix == "" && !cfg.DisableTopicPrefix {
		cfg.TopicFilterPrefix = cfg.ClientID
	}
	return cfg
}
