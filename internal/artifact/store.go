package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"seriescore/internal/blob"
	"seriescore/pkg/domain"
)

// Artifact filenames, fixed so downstream tooling and sidecars line up with
// the evidence bundle layout.
const (
	BaselineManifestName = "baseline_order_manifest.json"
	OrderedManifestName  = "ordered_series_manifest.json"
	DecisionLogName      = "ordering_decision_log.json"
	DiffReportName       = "order_diff_report.json"
)

// ErrMissingArtifact reports a required artifact that is absent from the
// store. This aborts the stage that needs it; no partial output is produced.
var ErrMissingArtifact = errors.New("artifact: missing")

// ErrHashMismatch reports an artifact whose bytes no longer match its
// sidecar hash.
var ErrHashMismatch = errors.New("artifact: sidecar hash mismatch")

// Store reads and writes sealed pipeline artifacts under a key prefix of a
// blob store. Every artifact is accompanied by a sidecar holding its SHA-256;
// loads verify the sidecar before decoding.
type Store struct {
	blobs  blob.Store
	prefix string
}

// NewStore wraps a blob store. prefix scopes one pipeline run (may be empty).
func NewStore(blobs blob.Store, prefix string) *Store {
	return &Store{blobs: blobs, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Save seals v, writes it with its sidecar, and returns the content hash.
func (s *Store) Save(ctx context.Context, name string, v any) (string, error) {
	b, hash, err := Seal(v)
	if err != nil {
		return "", err
	}
	if _, err := s.blobs.Put(ctx, s.key(name), strings.NewReader(string(b)), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	sidecar := FormatSidecar(hash, name)
	if _, err := s.blobs.Put(ctx, s.key(SidecarName(name)), strings.NewReader(sidecar), blob.PutOptions{ContentType: "text/plain"}); err != nil {
		return "", fmt.Errorf("write %s: %w", SidecarName(name), err)
	}
	return hash, nil
}

// Load reads an artifact, verifies its sidecar hash when present, and
// returns the raw bytes with their hash.
func (s *Store) Load(ctx context.Context, name string) ([]byte, string, error) {
	_, rc, err := s.blobs.Get(ctx, s.key(name))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingArtifact, name)
		}
		return nil, "", err
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", name, err)
	}
	hash := Sum(b)
	if err := s.checkSidecar(ctx, name, hash); err != nil {
		return nil, "", err
	}
	return b, hash, nil
}

func (s *Store) checkSidecar(ctx context.Context, name, hash string) error {
	_, rc, err := s.blobs.Get(ctx, s.key(SidecarName(name)))
	if errors.Is(err, blob.ErrNotFound) {
		// Sidecar absence is tolerated: the artifact may have been produced
		// by tooling that ships hashes out of band.
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	content, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	want, _, err := ParseSidecar(string(content))
	if err != nil {
		return fmt.Errorf("sidecar for %s: %w", name, err)
	}
	if want != hash {
		return fmt.Errorf("%w: %s (want %s, got %s)", ErrHashMismatch, name, want, hash)
	}
	return nil
}

// SaveBaseline persists a baseline manifest and returns its content hash.
func (s *Store) SaveBaseline(ctx context.Context, m domain.BaselineManifest) (string, error) {
	return s.Save(ctx, BaselineManifestName, m)
}

// SaveOrdered persists an ordered manifest and returns its content hash.
func (s *Store) SaveOrdered(ctx context.Context, m domain.OrderedManifest) (string, error) {
	return s.Save(ctx, OrderedManifestName, m)
}

// SaveDecisionLog persists a decision log and returns its content hash.
func (s *Store) SaveDecisionLog(ctx context.Context, l domain.DecisionLog) (string, error) {
	return s.Save(ctx, DecisionLogName, l)
}

// SaveDiffReport persists a diff report and returns its content hash.
func (s *Store) SaveDiffReport(ctx context.Context, r domain.DiffReport) (string, error) {
	return s.Save(ctx, DiffReportName, r)
}

// LoadBaseline reads and decodes the baseline manifest, setting ContentHash
// from the verified bytes.
func (s *Store) LoadBaseline(ctx context.Context) (domain.BaselineManifest, error) {
	var m domain.BaselineManifest
	hash, err := s.loadInto(ctx, BaselineManifestName, &m)
	if err != nil {
		return domain.BaselineManifest{}, err
	}
	m.ContentHash = hash
	return m, nil
}

// LoadOrdered reads and decodes the ordered manifest.
func (s *Store) LoadOrdered(ctx context.Context) (domain.OrderedManifest, error) {
	var m domain.OrderedManifest
	hash, err := s.loadInto(ctx, OrderedManifestName, &m)
	if err != nil {
		return domain.OrderedManifest{}, err
	}
	m.ContentHash = hash
	return m, nil
}

// LoadDecisionLog reads and decodes the ordering decision log.
func (s *Store) LoadDecisionLog(ctx context.Context) (domain.DecisionLog, error) {
	var l domain.DecisionLog
	hash, err := s.loadInto(ctx, DecisionLogName, &l)
	if err != nil {
		return domain.DecisionLog{}, err
	}
	l.ContentHash = hash
	return l, nil
}

// LoadDiffReport reads and decodes the diff report.
func (s *Store) LoadDiffReport(ctx context.Context) (domain.DiffReport, error) {
	var r domain.DiffReport
	hash, err := s.loadInto(ctx, DiffReportName, &r)
	if err != nil {
		return domain.DiffReport{}, err
	}
	r.ContentHash = hash
	return r, nil
}

func (s *Store) loadInto(ctx context.Context, name string, v any) (string, error) {
	b, hash, err := s.Load(ctx, name)
	if err != nil {
		return "", err
	}
	if err := decodeJSON(b, v); err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return hash, nil
}

// VerifyChain checks that the hash references linking ordered manifest,
// decision log, and diff report back to their predecessors hold. Returns one
// message per broken link; empty means the chain is intact.
func VerifyChain(baseline domain.BaselineManifest, ordered domain.OrderedManifest, log domain.DecisionLog, report *domain.DiffReport) []string {
	var broken []string
	if ordered.BaselineManifestHash != baseline.ContentHash {
		broken = append(broken, fmt.Sprintf("ordered manifest references baseline hash %s, baseline is %s", ordered.BaselineManifestHash, baseline.ContentHash))
	}
	if log.BaselineManifestHash != baseline.ContentHash {
		broken = append(broken, fmt.Sprintf("decision log references baseline hash %s, baseline is %s", log.BaselineManifestHash, baseline.ContentHash))
	}
	if report != nil {
		if report.BaselineHash != baseline.ContentHash {
			broken = append(broken, fmt.Sprintf("diff report references baseline hash %s, baseline is %s", report.BaselineHash, baseline.ContentHash))
		}
		if report.OrderedHash != ordered.ContentHash {
			broken = append(broken, fmt.Sprintf("diff report references ordered hash %s, ordered manifest is %s", report.OrderedHash, ordered.ContentHash))
		}
		if report.DecisionLogHash != log.ContentHash {
			broken = append(broken, fmt.Sprintf("diff report references decision log hash %s, decision log is %s", report.DecisionLogHash, log.ContentHash))
		}
	}
	return broken
}
