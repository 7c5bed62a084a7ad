package livesystem

import (
	"strconv"

	"github.com/hamed0406/livestatus/internal/health"
)

const (
	PillOK   = "OK"
	PillDown = "DOWN"
)

// ActuatorHealth is the body of the BFF's /actuator/health.
type ActuatorHealth struct {
	Status string `json:"status,omitempty"`
}

// ClassifyStatusPayload turns whatever /status returned into display text:
// a string is shown as is, an object with a string "status" shows that field,
// anything else is "OK". Reaching this function already means a 2xx.
func ClassifyStatusPayload(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case map[string]any:
		if s, ok := p["status"].(string); ok {
			return s
		}
	}
	return "OK"
}

// BFFStatusLabel defaults a missing actuator status to UP.
func BFFStatusLabel(h ActuatorHealth) string {
	if h.Status == "" {
		return "UP"
	}
	return h.Status
}

// Card is the view-model of one status card.
type Card struct {
	Title     string `json:"title"`
	Loading   bool   `json:"loading"`
	OK        bool   `json:"ok"`
	Pill      string `json:"pill"`
	LatencyMS *int64 `json:"latencyMs,omitempty"`
	Latency   string `json:"latency"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Cards is what /api/system returns and /system renders.
type Cards struct {
	Profile Card `json:"profile"`
	BFF     Card `json:"bff"`
}

// CardFrom renders a hook state. label is only consulted on success.
func CardFrom[T any](title string, st health.State[T], label func(T) string) Card {
	c := Card{
		Title:     title,
		Loading:   st.Loading,
		OK:        st.OK,
		Pill:      PillDown,
		LatencyMS: st.LatencyMS,
		Latency:   "—ms",
		Error:     st.Error,
	}
	if st.LatencyMS != nil {
		c.Latency = strconv.FormatInt(*st.LatencyMS, 10) + "ms"
	}
	if st.OK {
		c.Pill = PillOK
		if st.Data != nil {
			c.Status = label(*st.Data)
		}
	}
	return c
}
