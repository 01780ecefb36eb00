package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Linker errors. Each one means malformed upstream input or a broken
	// internal invariant and fails the whole linking pass.
	LinkMissingSemanticTarget       Code = 1001
	LinkInvalidLinkTarget           Code = 1002
	LinkNamingCollisionUnresolvable Code = 1003
	LinkDuplicateLayer              Code = 1004
	LinkCanceled                    Code = 1005

	// Linker information
	LinkInfo          Code = 1100
	LinkForwardedSite Code = 1101
	LinkInlinedSite   Code = 1102

	// Unit loading
	IOLoadUnitError   Code = 2001
	IOUnknownNodeKind Code = 2002

	ObsTimings Code = 3001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                     "Unknown error",
		LinkMissingSemanticTarget:       "Missing semantic target",
		LinkInvalidLinkTarget:           "Invalid link target",
		LinkNamingCollisionUnresolvable: "Naming collision cannot be resolved",
		LinkDuplicateLayer:              "Member used by more than one override layer",
		LinkCanceled:                    "Linking canceled",
		LinkInfo:                        "Linker information",
		LinkForwardedSite:               "Link site forwarded to a helper member",
		LinkInlinedSite:                 "Link site inlined",
		IOLoadUnitError:                 "Failed to load compilation unit",
		IOUnknownNodeKind:               "Unknown syntax node kind in unit",
		ObsTimings:                      "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
