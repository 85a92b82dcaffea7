// =============================================================================
// DIAN XML Consolidator - Main Entry Point
// =============================================================================
//
// USAGE:
//   consolidator process       - Consolidate every .xml in the input directory
//   consolidator columns       - List the column catalog
//   consolidator inspect FILE  - Show how one document is normalized
//   consolidator serve         - Start the HTTP API
//   consolidator version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Normalization, projection, workbook, storage and API
//   - pkg/           : File management shared by the commands
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/dian-xml-consolidator/cmd"
)

func main() {
	cmd.Execute()
}
