package mqtt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig parses a flat "key: value" configuration file into a
// ClientConfig: ip/port/client_id/keep_alive/flag_clean_start/
// flag_username/flag_password/username/password/session_expiry_interval/
// receive_maximum/maximum_packet_size/topic_alias_maximum/
// request_response_information/request_problem_information/
// authentication_method/authentication_data/topic_filter_prefix. An
// unrecognized key is a configuration error.
func LoadConfig(path string) (ClientConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("mqtt: opening config %s: %w", path, err)
	}
	defer f.Close()
	return parseConfig(f)
}

func parseConfig(r io.Reader) (ClientConfig, error) {
	cfg := newConfig()
	var ip, port string
	prefixSet := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return ClientConfig{}, fmt.Errorf("mqtt: config line %d: missing ':' separator", lineNo)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "ip":
			ip = value
		case "port":
			port = value
		case "client_id":
			cfg.ClientID = value
		case "keep_alive":
			secs, err := strconv.Atoi(value)
			if err != nil {
				return ClientConfig{}, fmt.Errorf("mqtt: config line %d: keep_alive: %w", lineNo, err)
			}
			cfg.KeepAlive = time.Duration(secs) * time.Second
		case "flag_clean_start":
			cfg.CleanStart = value == "true" || value == "1"
		case "flag_username":
			if value == "true" || value == "1" {
				cfg.HasUsername = true
			}
		case "flag_password":
			if value == "true" || value == "1" {
				cfg.HasPassword = true
			}
		case "username":
			cfg.Username, cfg.HasUsername = value, true
		case "password":
			cfg.Password, cfg.HasPassword = []byte(value), true
		case "session_expiry_interval":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return ClientConfig{}, fmt.Errorf("mqtt: config line %d: session_expiry_interval: %w", lineNo, err)
			}
			cfg.Connect.SessionExpiryInterval = uint32(v)
		case "receive_maximum":
			v, err := strconv.ParseUint(value, 10, 16)
			if err != nil {
				return ClientConfig{}, fmt.Errorf("mqtt: config line %d: receive_maximum: %w", lineNo, err)
			}
			cfg.Connect.ReceiveMaximum = uint16(v)
		case "maximum_packet_size":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return ClientConfig{}, fmt.Errorf("mqtt: config line %d: maximum_packet_size: %w", lineNo, err)
			}
			cfg.Connect.MaximumPacketSize = uint32(v)
		case "topic_alias_maximum":
			v, err := strconv.ParseUint(value, 10, 16)
			if err != nil {
				return ClientConfig{}, fmt.Errorf("mqtt: config line %d: topic_alias_maximum: %w", lineNo, err)
			}
			cfg.Connect.TopicAliasMaximum = uint16(v)
		case "request_response_information":
			cfg.Connect.RequestResponseInformation = value == "true" || value == "1"
		case "request_problem_information":
			cfg.Connect.RequestProblemInformation = value == "true" || value == "1"
		case "authentication_method":
			cfg.Connect.AuthenticationMethod = value
		case "authentication_data":
			cfg.Connect.AuthenticationData = []byte(value)
		case "topic_filter_prefix":
			cfg.TopicFilterPrefix = value
			prefixSet = true
		default:
			return ClientConfig{}, fmt.Errorf("mqtt: config line %d: unrecognized key %q", lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return ClientConfig{}, fmt.Errorf("mqtt: reading config: %w", err)
	}

	if ip != "" || port != "" {
		if port == "" {
			port = "1883"
		}
		cfg.URL = fmt.Sprintf("mqtt://%s:%s", ip, port)
	}
	if !prefixSet {
		cfg.TopicFilterPrefix = cfg.ClientID
	}
	return cfg, nil
}
