package truthfile

import (
	"fmt"
	"slices"
	"strings"
)

// Folders returns the job folder structure in its fixed order.
func (b *PathBuilder) Folders() []string {
	return slices.Clone(b.rules.Folders)
}

// FolderValidation is the result of comparing a folder list with the
// canonical structure.
type FolderValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateFolderStructure checks folders matches the canonical list
// position by position.
func (b *PathBuilder) ValidateFolderStructure(folders []string) FolderValidation {
	canonical := b.rules.Folders
	result := FolderValidation{Errors: []string{}}

	if len(folders) != len(canonical) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Folder count mismatch. Expected %d, got %d", len(canonical), len(folders)))
	}
	for i, want := range canonical {
		got := "undefined"
		if i < len(folders) {
			got = folders[i]
		}
		if got != want {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Folder order violation at position %d. Expected %q, got %q", i, want, got))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

var stageFolderPrefixes = map[string]string{
	"drawings":  "05 Drawings",
	"customers": "07 Customers",
	"contacts":  "13 Customer Contacts",
	"approved":  "10 Approved Documents",
	"completed": "17 Completed Pack",
}

// FoldersByStage returns the folders belonging to a named area. Unknown
// names return the whole structure.
func (b *PathBuilder) FoldersByStage(stage string) []string {
	prefix, ok := stageFolderPrefixes[strings.ToLower(stage)]
	if !ok {
		return b.Folders()
	}
	var out []string
	for _, f := range b.rules.Folders {
		if strings.HasPrefix(f, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// Drawing workflow folders.
const (
	DrawingIncoming        = "05 Drawings/05a Incoming Requests"
	DrawingSFGIssue        = "05 Drawings/05b SFG Issue"
	DrawingChangeRequests  = "05 Drawings/05c Change Requests"
	DrawingConfirmations   = "05 Drawings/05d Confirmations"
	DrawingApproval        = "05 Drawings/05e Approval"
	DrawingLive            = "05 Drawings/05f Live Drawings"
	DrawingRejected        = "05 Drawings/05g Rejected Designs"
	DrawingApprovedArchive = "10 Approved Documents (locked)/10c Drawing Approved"
)

var drawingTransitions = map[string][]string{
	DrawingIncoming:        {DrawingSFGIssue},
	DrawingSFGIssue:        {DrawingChangeRequests, DrawingConfirmations},
	DrawingChangeRequests:  {DrawingConfirmations},
	DrawingConfirmations:   {DrawingApproval},
	DrawingApproval:        {DrawingApprovedArchive, DrawingRejected, DrawingLive},
	DrawingLive:            {},
	DrawingRejected:        {},
	DrawingApprovedArchive: {},
}

// CanMoveDrawing reports whether a drawing may move between workflow folders.
func CanMoveDrawing(from, to string) bool {
	return slices.Contains(drawingTransitions[from], to)
}
