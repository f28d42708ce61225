// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the JSON configuration for an edge
// node process: which Sparkplug group/edge node identity to use, which
// brokers to rotate through, and the ambient knobs (rebirth poll interval,
// metrics listen address, periodic publish interval). It deliberately does
// not import pkg/sparkplug, so the core library stays usable without this
// CLI-facing convenience layer.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadSchema(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadSchema
}

// Broker is one entry in the Config.Brokers rotation list.
type Broker struct {
	URL                   string `json:"url"`
	ClientID              string `json:"clientId"`
	Username              string `json:"username"`
	Password              string `json:"password"`
	KeepAliveSeconds      int    `json:"keepAliveSeconds"`
	ConnectTimeoutSeconds int    `json:"connectTimeoutSeconds"`
	TLSInsecureSkipVerify bool   `json:"tlsInsecureSkipVerify"`
	CAFile                string `json:"caFile"`
	CertFile              string `json:"certFile"`
	KeyFile               string `json:"keyFile"`
}

// Config is the root configuration document for an edge node process.
type Config struct {
	GroupID    string   `json:"groupId"`
	EdgeNodeID string   `json:"edgeNodeId"`
	Brokers    []Broker `json:"brokers"`

	ProvideBdSeq    bool `json:"provideBdSeq"`
	ProvideControls bool `json:"provideControls"`
	Uint32InLong    bool `json:"uint32InLong"`
	StrictSchema    bool `json:"strictSchema"`

	RebirthPollIntervalSeconds int `json:"rebirthPollIntervalSeconds"`
	PublishIntervalSeconds     int `json:"publishIntervalSeconds"`

	MetricsListenAddr string `json:"metricsListenAddr"`
	GopsListenAddr    string `json:"gopsListenAddr"`
}

// Keys holds the process-wide configuration after Init has been called. Its
// defaults are overwritten by whatever Init loads from disk.
var Keys = Config{
	ProvideBdSeq:               true,
	ProvideControls:            true,
	RebirthPollIntervalSeconds: 1,
	PublishIntervalSeconds:     10,
	MetricsListenAddr:          ":9090",
}

// RebirthPollInterval and PublishInterval convert their *Seconds fields to
// time.Duration for callers that wire Config straight into pkg/sparkplug
// options.
func (c Config) RebirthPollInterval() time.Duration {
	return time.Duration(c.RebirthPollIntervalSeconds) * time.Second
}

func (c Config) PublishInterval() time.Duration {
	return time.Duration(c.PublishIntervalSeconds) * time.Second
}

func (b Broker) KeepAlive() time.Duration {
	return time.Duration(b.KeepAliveSeconds) * time.Second
}

func (b Broker) ConnectTimeout() time.Duration {
	return time.Duration(b.ConnectTimeoutSeconds) * time.Second
}

// Init reads envFile (a .env overlay, missing is not an error) then
// flagConfigFile (a JSON document, validated against the embedded schema)
// into Keys. Environment variables loaded from envFile take effect via
// os.ExpandEnv-style ${VAR} substitution performed on the raw JSON bytes
// before parsing, so secrets (broker passwords) need not be committed to
// the config file itself.
func Init(flagConfigFile, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("config: load env overlay %s: %w", envFile, err)
		}
	}

	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", flagConfigFile, err)
	}
	raw = []byte(os.ExpandEnv(string(raw)))

	s, err := jsonschema.Compile("embedFS://schemas/config.schema.json")
	if err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}

	var v interface{}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&v); err != nil {
		return fmt.Errorf("config: decode %s: %w", flagConfigFile, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("config: validate %s: %w", flagConfigFile, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	cfg := Keys
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("config: unmarshal %s: %w", flagConfigFile, err)
	}
	Keys = cfg
	return nil
}
