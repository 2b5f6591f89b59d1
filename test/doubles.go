// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations — no mock frameworks.
package testdoubles

import (
	"context"
	"fmt"

	"github.com/rios0rios0/treeupdt/domain"
)

// ---------------------------------------------------------------------------
// SpySource
// ---------------------------------------------------------------------------

// SpySource implements domain.Source as a configurable spy.
// Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior.
type SpySource struct {
	// --- identity ---
	SourceName string

	// --- LatestVersion ---
	Latest    *domain.Version
	LatestErr error
	// spy: number of calls received
	LatestCalls int

	// --- Versions ---
	VersionList []domain.Version
	VersionsErr error
	// spy: number of calls received
	VersionsCalls int

	// --- CheckUpdate ---
	Update   *domain.UpdateInfo
	CheckErr error
	// spy: number of calls and identifiers received
	CheckCalls       int
	CheckIdentifiers []string
}

var _ domain.Source = (*SpySource)(nil)

func (s *SpySource) Name() string { return s.SourceName }

func (s *SpySource) LatestVersion(
	_ context.Context,
	identifier string,
) (*domain.Version, error) {
	s.LatestCalls++
	if s.LatestErr != nil {
		return nil, s.LatestErr
	}
	if s.Latest != nil {
		return s.Latest, nil
	}
	return nil, fmt.Errorf("no latest version configured for %s", identifier)
}

func (s *SpySource) Versions(
	_ context.Context,
	_ string,
) ([]domain.Version, error) {
	s.VersionsCalls++
	return s.VersionList, s.VersionsErr
}

func (s *SpySource) CheckUpdate(
	_ context.Context,
	identifier, _ string,
) (*domain.UpdateInfo, error) {
	s.CheckCalls++
	s.CheckIdentifiers = append(s.CheckIdentifiers, identifier)
	if s.CheckErr != nil {
		return nil, s.CheckErr
	}
	if s.Update != nil {
		return s.Update, nil
	}
	return nil, fmt.Errorf("no update info configured for %s", identifier)
}

// ---------------------------------------------------------------------------
// SpyScanner
// ---------------------------------------------------------------------------

// SpyScanner implements domain.Scanner as a configurable spy.
type SpyScanner struct {
	// --- identity ---
	ScannerFormat domain.Format

	// --- Scan ---
	Result  *domain.ScanResult
	ScanErr error
	// spy: roots that were scanned
	ScannedRoots []string
}

var _ domain.Scanner = (*SpyScanner)(nil)

func (s *SpyScanner) Format() domain.Format { return s.ScannerFormat }

func (s *SpyScanner) Scan(root string) (*domain.ScanResult, error) {
	s.ScannedRoots = append(s.ScannedRoots, root)
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	if s.Result != nil {
		return s.Result, nil
	}
	return &domain.ScanResult{}, nil
}

// ---------------------------------------------------------------------------
// SpyMutator
// ---------------------------------------------------------------------------

// SpyMutator implements domain.Mutator as a configurable spy.
type SpyMutator struct {
	// --- identity ---
	MutatorFormat domain.Format

	// --- Apply ---
	Rewritten string
	ApplyErr  error
	// spy: calls received
	ApplyCalls []ApplyCall
}

// ApplyCall records a single invocation of Apply.
type ApplyCall struct {
	Content     string
	Declaration domain.Declaration
	NewVersion  string
}

var _ domain.Mutator = (*SpyMutator)(nil)

func (m *SpyMutator) Format() domain.Format { return m.MutatorFormat }

func (m *SpyMutator) Apply(
	content string,
	decl domain.Declaration,
	newVersion string,
) (string, error) {
	m.ApplyCalls = append(m.ApplyCalls, ApplyCall{
		Content:     content,
		Declaration: decl,
		NewVersion:  newVersion,
	})
	if m.ApplyErr != nil {
		return "", m.ApplyErr
	}
	if m.Rewritten != "" {
		return m.Rewritten, nil
	}
	return content, nil
}

// ---------------------------------------------------------------------------
// DummySource — satisfies the interface but does nothing (for compile checks)
// ---------------------------------------------------------------------------

// DummySource is a no-op implementation of domain.Source.
// Use it only for interface compliance tests or as a placeholder.
type DummySource struct{}

var _ domain.Source = (*DummySource)(nil)

func (d *DummySource) Name() string { return "dummy" }

func (d *DummySource) LatestVersion(
	_ context.Context,
	_ string,
) (*domain.Version, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}

func (d *DummySource) Versions(
	_ context.Context,
	_ string,
) ([]domain.Version, error) {
	return nil, nil
}

func (d *DummySource) CheckUpdate(
	_ context.Context,
	_, _ string,
) (*domain.UpdateInfo, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}
