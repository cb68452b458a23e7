package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/logger"
)

// Config holds the settings shared by the detector binaries.
type Config struct {
	// ServerAddress is the gRPC address of the detector server.
	ServerAddress string `yaml:"server_addr"`
	// StateFile is the path to the JSON file storing the detector snapshot.
	StateFile string `yaml:"state_file"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of log messages.
	LogLevel string `yaml:"log_level"`
	// Detector configures the detection cycle.
	Detector Detector `yaml:"detector"`
	// MQTT configures state publishing. Publishing is off without a broker.
	MQTT MQTT `yaml:"mqtt"`
}

// Detector configures the detection cycle.
// A zero duration disables the automatic End Time for that state.
type Detector struct {
	// Delay is how long the detector stays in Delay.
	Delay time.Duration `yaml:"delay"`
	// Fire is how long the detector stays in Fire.
	Fire time.Duration `yaml:"fire"`
	// Rearm is how long the detector stays in ReArm.
	Rearm time.Duration `yaml:"rearm"`
	// Hooks maps state labels to the command run when the state is entered.
	Hooks map[string][]string `yaml:"hooks,omitempty"`
}

// MQTT configures the state publisher.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883.
	Broker string `yaml:"broker,omitempty"`
	// ClientID identifies the publisher on the broker.
	ClientID string `yaml:"client_id,omitempty"`
	// Topic receives every state change.
	Topic string `yaml:"topic,omitempty"`
	// QoS is the MQTT quality of service level.
	QoS byte `yaml:"qos,omitempty"`
	// Retained keeps the last state on the broker for new subscribers.
	Retained bool `yaml:"retained,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "people-detector-settings.yaml"

	// DefaultStateFilename is the default filename for the snapshot JSON.
	DefaultStateFilename = "people-detector-state.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"

	// DefaultMQTTClientID is used when mqtt.client_id is empty.
	DefaultMQTTClientID = "people-detector"

	// DefaultMQTTTopic is used when mqtt.topic is empty.
	DefaultMQTTTopic = "people-detector/state"

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600

	// maxQoS is the highest MQTT quality of service level.
	maxQoS = 2
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errNegativeDuration is returned for negative cycle timings.
	errNegativeDuration = errors.New("duration must not be negative")
	// errEmptyHook is returned for a hook without a command.
	errEmptyHook = errors.New("hook command must not be empty")
	// errInvalidLogLevel is returned for an unknown log level.
	errInvalidLogLevel = errors.New("invalid log level")
	// errInvalidQoS is returned for QoS above 2.
	errInvalidQoS = errors.New("mqtt qos must be 0, 1 or 2")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults.
func Validate(settings *Config) error {
	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, settings.LogLevel)
	}

	if err := validateDetector(&settings.Detector); err != nil {
		return err
	}

	return validateMQTT(&settings.MQTT)
}

// Timings returns the automatic End Time delay for each timed state.
func (d *Detector) Timings() map[detector.State]time.Duration {
	return map[detector.State]time.Duration{
		detector.StateDelay: d.Delay,
		detector.StateFire:  d.Fire,
		detector.StateRearm: d.Rearm,
	}
}

// HookCommands returns the hooks keyed by state.
// Keys that do not name a state are skipped; Validate rejects them.
func (d *Detector) HookCommands() map[detector.State][]string {
	commands := make(map[detector.State][]string, len(d.Hooks))

	for label, argv := range d.Hooks {
		state, err := detector.ParseState(label)
		if err != nil {
			continue
		}

		commands[state] = append([]string(nil), argv...)
	}

	return commands
}

// validateDetector checks cycle timings and hook definitions.
func validateDetector(d *Detector) error {
	for state, duration := range d.Timings() {
		if duration < 0 {
			return fmt.Errorf("detector %s: %w", state, errNegativeDuration)
		}
	}

	for label, argv := range d.Hooks {
		if _, err := detector.ParseState(label); err != nil {
			return fmt.Errorf("detector hooks: %w", err)
		}

		if len(argv) == 0 || argv[0] == "" {
			return fmt.Errorf("detector hook %q: %w", label, errEmptyHook)
		}
	}

	return nil
}

// validateMQTT checks the broker URL and fills in publisher defaults.
func validateMQTT(m *MQTT) error {
	if m.Broker == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(m.Broker); err != nil {
		return fmt.Errorf("invalid mqtt broker URI: %w", err)
	}

	if m.QoS > maxQoS {
		return errInvalidQoS
	}

	if m.ClientID == "" {
		m.ClientID = DefaultMQTTClientID
	}

	if m.Topic == "" {
		m.Topic = DefaultMQTTTopic
	}

	return nil
}
