package product

import (
	"testing"

	"datamesh/testutil"
)

// The product package defines the shared value objects and must stay free of
// engine dependencies so that rule implementations can live anywhere.
func TestProductDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"product value objects must not depend on internal packages")
}
