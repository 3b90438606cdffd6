package domain

import (
	"testing"

	"seriescore/testutil"
)

// The pipeline, storage, and presentation layers all import this package; a
// reverse edge would create a cycle and leak implementation detail into the
// artifact contracts.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"domain must stay free of implementation imports")
}
