package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, trims list entries and reports
// anything a running engine could not live with.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	if out.App.Port == 0 {
		out.App.Port = 8080
	}
	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch strings.TrimSpace(out.Broker.Driver) {
	case "":
		out.Broker.Driver = "memory"
	case "memory", "nats":
	default:
		res.addErr("broker.driver must be %q or %q", "memory", "nats")
	}
	if out.Broker.Driver == "nats" && strings.TrimSpace(out.Broker.URL) == "" {
		res.addErr("broker.url is required when broker.driver=nats")
	}
	if out.Broker.Name == "" {
		out.Broker.Name = "jobmatch-engine"
	}
	if out.Broker.Driver == "memory" {
		res.addWarn("broker.driver=memory keeps the pipeline in-process; run the embed worker in the same process or switch to nats.")
	}

	if out.Pipeline.BufferSize <= 0 {
		out.Pipeline.BufferSize = 256
	}

	if out.Fetch.Enabled {
		var boards []Board
		for i, b := range out.Fetch.Boards {
			b.Slug = strings.TrimSpace(b.Slug)
			b.Name = strings.TrimSpace(b.Name)
			if b.Slug == "" {
				res.addErr("fetch.boards[%d].slug is required", i)
				continue
			}
			if b.Name == "" {
				b.Name = b.Slug
			}
			boards = append(boards, b)
		}
		out.Fetch.Boards = boards
		if len(out.Fetch.Boards) == 0 {
			res.addWarn("fetch.enabled is true but fetch.boards is empty; fetch requests will find nothing.")
		}
	}
	if out.Fetch.ReqPerSec <= 0 {
		out.Fetch.ReqPerSec = 1
	}
	if out.Fetch.Burst <= 0 {
		out.Fetch.Burst = 2
	}

	if out.Reaper.Enabled {
		if out.Reaper.PendingTimeoutMinutes <= 0 {
			res.addErr("reaper.pending_timeout_minutes must be > 0 when reaper.enabled=true")
		}
		if out.Reaper.SweepSeconds <= 0 {
			out.Reaper.SweepSeconds = 300
		} else if out.Reaper.SweepSeconds < 10 {
			res.addWarn("reaper.sweep_seconds is very low (%d); the sweep is a full-table scan.", out.Reaper.SweepSeconds)
		}
	}

	if out.Auth.TokenTTLMinutes <= 0 {
		out.Auth.TokenTTLMinutes = 24 * 60
	}

	return out, res
}
