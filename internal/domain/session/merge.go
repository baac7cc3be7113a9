package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// sanitizer strips markup from imported names and titles. Imported
// documents are untrusted input that ends up rendered in a UI.
var sanitizer = bluemonday.StrictPolicy()

// ParseImport decodes an import document. Both shapes the exporter has
// produced over time are accepted: a bare session array, and the
// versioned wrapper with an exportDate. Anything else is a format
// error.
func ParseImport(data []byte) ([]types.Session, error) {
	var bare []types.Session
	if err := sonic.Unmarshal(data, &bare); err == nil {
		return validateImported(bare)
	}

	var doc types.ExportDocument
	if err := sonic.Unmarshal(data, &doc); err == nil && doc.Sessions != nil {
		return validateImported(doc.Sessions)
	}

	return nil, ErrFormat
}

// validateImported keeps only records that carry the fields a session
// cannot exist without, and scrubs what will be displayed.
func validateImported(records []types.Session) ([]types.Session, error) {
	out := make([]types.Session, 0, len(records))
	for _, r := range records {
		if r.Timestamp <= 0 || r.Tabs == nil || strings.TrimSpace(r.Name) == "" {
			continue
		}

		r.Name = sanitizer.Sanitize(r.Name)
		for i := range r.Tabs {
			r.Tabs[i].Title = sanitizer.Sanitize(r.Tabs[i].Title)
		}
		if !isImageDataURL(r.Screenshot) {
			r.Screenshot = ""
		}
		r.TabCount = len(r.Tabs)
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid sessions in document", ErrFormat)
	}
	return out, nil
}

// isImageDataURL reports whether s is a data URL whose payload sniffs
// as an image. Screenshots from untrusted documents are dropped rather
// than stored when they are anything else.
func isImageDataURL(s string) bool {
	if s == "" {
		return false
	}
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return false
	}

	// Sniffing needs only the first bytes.
	if len(payload) > 512 {
		payload = payload[:512]
	}
	raw, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return false
	}
	kind := mimetype.Detect(raw)
	return strings.HasPrefix(kind.String(), "image/")
}

// Merge folds incoming sessions into existing ones. A session whose
// timestamp is already present is skipped; everything else appends in
// document order. Returns the merged sequence and how many were
// accepted.
func Merge(existing, incoming []types.Session) ([]types.Session, int) {
	seen := make(map[int64]struct{}, len(existing))
	for _, s := range existing {
		seen[s.Timestamp] = struct{}{}
	}

	merged := make([]types.Session, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	accepted := 0
	for _, s := range incoming {
		if _, dup := seen[s.Timestamp]; dup {
			continue
		}
		seen[s.Timestamp] = struct{}{}
		merged = append(merged, s)
		accepted++
	}
	return merged, accepted
}

// Import merges a parsed document into the store and persists the
// result. It reports how many sessions were accepted.
func (s *Store) Import(ctx context.Context, data []byte) (int, error) {
	incoming, err := ParseImport(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	merged, accepted := Merge(s.sessions, incoming)
	if accepted == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	if err := s.persistLocked(ctx, merged); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	count := len(merged)
	s.mu.Unlock()

	s.logger.Info("sessions imported",
		zap.Int("accepted", accepted),
		zap.Int("skipped", len(incoming)-accepted))
	if s.metrics != nil {
		s.metrics.ImportsAccepted.Add(float64(accepted))
	}
	s.publishCount(count)
	return accepted, nil
}

// Export renders the full sequence as a versioned document.
func (s *Store) Export() ([]byte, error) {
	doc := types.ExportDocument{
		Version:    types.ExportVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Sessions:   s.List(),
	}

	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export document: %w", err)
	}
	return data, nil
}
