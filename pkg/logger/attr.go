package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Session records the checkout session identifier under "session_id".
func Session(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// Account records the customer account name under "account".
func Account(name string) slog.Attr {
	return slog.String("account", name)
}

// PlanCode records the premium plan code under "plan_code".
func PlanCode(code string) slog.Attr {
	return slog.String("plan_code", code)
}

// Tab records the active purchase tab under "tab".
func Tab(tab string) slog.Attr {
	return slog.String("tab", tab)
}

// Upstream records the remote endpoint a call went to under "upstream".
func Upstream(url string) slog.Attr {
	return slog.String("upstream", url)
}

// StatusCode records an HTTP status under "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Duration records d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
