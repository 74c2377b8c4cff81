// Package config reads the environment variables that set the defaults of
// the unival command.
package config

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go-simpler.org/env"

	"github.com/Neumenon/unival/lol"
	"github.com/Neumenon/unival/unival"
)

// C is the configuration of the unival command. Flags given on the command
// line override these.
type C struct {
	Mode     string `env:"UNIVAL_MODE" default:"compact" usage:"output mode: compact, pretty, json or json-pretty"`
	LogLevel string `env:"UNIVAL_LOG_LEVEL" default:"info" usage:"log level: off fatal error warn info debug trace"`
	Workers  int    `env:"UNIVAL_WORKERS" default:"4" usage:"number of files processed concurrently"`
	CRC      bool   `env:"UNIVAL_CRC" default:"true" usage:"write a CRC-32 on every stream frame"`
	Compress string `env:"UNIVAL_COMPRESS" default:"none" usage:"frame stream compression: none, gzip or zstd"`
}

var compressors = []string{"none", "gzip", "zstd"}

// Load reads the configuration from the environment and checks it.
func Load() (c *C, err error) {
	c = &C{}
	if err = env.Load(c, &env.Options{SliceSep: ","}); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return
}

// Validate reports the first setting that is out of range.
func (c *C) Validate() error {
	if _, ok := unival.ParseMode(c.Mode); !ok {
		return errors.Errorf("UNIVAL_MODE %q is not an output mode", c.Mode)
	}
	if c.Workers < 1 {
		return errors.Errorf("UNIVAL_WORKERS must be at least 1, got %d", c.Workers)
	}
	found := false
	for _, name := range compressors {
		found = found || name == c.Compress
	}
	if !found {
		return errors.Errorf("UNIVAL_COMPRESS must be one of %s, got %q",
			strings.Join(compressors, ", "), c.Compress)
	}
	return nil
}

// OutputMode returns the parsed Mode. It must only be called on a
// validated configuration.
func (c *C) OutputMode() unival.Mode {
	m, _ := unival.ParseMode(c.Mode)
	return m
}

// Apply sets the global log level.
func (c *C) Apply() {
	lol.SetLoggers(lol.GetLogLevel(c.LogLevel))
}

// Usage writes a description of every variable to w.
func (c *C) Usage(w io.Writer) {
	env.Usage(c, w, nil)
}

// KV is a key/value pair.
type KV struct{ Key, Value string }

// KVSlice is a collection of key/value pairs.
type KVSlice []KV

func (kv KVSlice) Len() int           { return len(kv) }
func (kv KVSlice) Less(i, j int) bool { return kv[i].Key < kv[j].Key }
func (kv KVSlice) Swap(i, j int)      { kv[i], kv[j] = kv[j], kv[i] }

// EnvKV turns a struct with `env` tags into key/value pairs. cfg must not
// be a pointer.
func EnvKV(cfg any) (m KVSlice) {
	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		k := t.Field(i).Tag.Get("env")
		if k == "" {
			continue
		}
		m = append(m, KV{k, fmt.Sprint(reflect.ValueOf(cfg).Field(i).Interface())})
	}
	return
}

// PrintEnv renders the configuration as a shell script that sets it.
func (c *C) PrintEnv(w io.Writer) {
	_, _ = fmt.Fprintln(w, "#!/usr/bin/env bash")
	kvs := EnvKV(*c)
	sort.Sort(kvs)
	for _, v := range kvs {
		_, _ = fmt.Fprintf(w, "export %s=%s\n", v.Key, v.Value)
	}
}
