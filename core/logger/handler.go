package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records as one flat line per event, either JSON
// or key=value, with well-known keys first in keyOrder.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = defaultKeyOrder
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}
	jsonOut := h.cfg.format == formatJSON

	fields := make(map[string]any, 16)
	ts := r.Time.UTC()
	fields["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	fields["level"] = normalizeLevel(r.Level.String())
	if jsonOut {
		fields["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		h.put(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.put(fields, a)
		return true
	})
	putContext(ctx, fields)

	if rid, _ := fields["rid"].(string); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			fields["rid"] = compact
			if _, ok := fields["rid_full"]; jsonOut && !ok {
				fields["rid_full"] = rid
			}
		}
	}
	setDefault(fields, "event", r.Message, "unknown")
	setDefault(fields, "component", "app")
	normalizeEnums(fields)
	dropEmpty(fields)

	keys := orderedKeys(fields, h.cfg.keyOrder)
	var (
		line []byte
		err  error
	)
	if jsonOut {
		line, err = encodeJSON(fields, keys)
	} else {
		line = encodeKV(fields, keys)
	}
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.grouped(attrs)...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// grouped binds attrs added via WithAttrs to the current group prefix.
func (h *structuredHandler) grouped(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: joinKey(h.prefix, a.Key), Value: a.Value}
	}
	return out
}

func (h *structuredHandler) put(fields map[string]any, a slog.Attr) {
	flatten(h.prefix, a, func(key string, v slog.Value) {
		if key, val, ok := fieldValue(key, v); ok {
			fields[key] = val
		}
	})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func flatten(prefix string, a slog.Attr, fn func(string, slog.Value)) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		if key != "" {
			fn(key, v)
		}
		return
	}
	for _, child := range v.Group() {
		flatten(key, child, fn)
	}
}

func fieldValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// msKey renames duration attributes so the unit is part of the key.
func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func putContext(ctx context.Context, fields map[string]any) {
	m := MetaFrom(ctx)
	putIfMissing(fields, "rid", m.RID, m.RID != "")
	putIfMissing(fields, "update_id", m.UpdateID, m.UpdateID != 0)
	putIfMissing(fields, "user_id", m.UserID, m.UserID != 0)
	putIfMissing(fields, "chat_id", m.ChatID, m.ChatID != 0)
	putIfMissing(fields, "handler", m.Handler, m.Handler != "")
}

func putIfMissing(fields map[string]any, key string, val any, set bool) {
	if _, ok := fields[key]; ok || !set {
		return
	}
	fields[key] = val
}

// setDefault fills key with the first non-empty candidate when it is missing or blank.
func setDefault(fields map[string]any, key string, candidates ...string) {
	if s, _ := fields[key].(string); s != "" {
		return
	}
	for _, c := range candidates {
		if c != "" {
			fields[key] = c
			return
		}
	}
}

func normalizeEnums(fields map[string]any) {
	if s, ok := fields["status"].(string); ok && s != "" {
		fields["status"], _ = normalizeStatus(s)
	}
	if o, ok := fields["outcome"].(string); ok && o != "" {
		if n, valid := normalizeOutcome(o); valid {
			fields["outcome"] = n
		} else {
			delete(fields, "outcome")
		}
	}
}

func dropEmpty(fields map[string]any) {
	for k, v := range fields {
		if v == nil || v == "" {
			delete(fields, k)
		}
	}
}

// orderedKeys lists keys named in order first, then the rest alphabetically.
func orderedKeys(fields map[string]any, order []string) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := fields[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	n := len(keys)
	for k := range fields {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[n:])
	return keys
}

func encodeJSON(fields map[string]any, keys []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		val, err := json.Marshal(fields[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeKV(fields map[string]any, keys []string) []byte {
	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(kvValue(fields[k]))
	}
	return buf.Bytes()
}

func kvValue(val any) string {
	s := fmt.Sprint(val)
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
